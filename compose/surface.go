package compose

import (
	"maps"
	"slices"
)

// Surface is a member table. It separates the members a type defines
// directly (its own class members, declaration overrides and members merged
// from its mixins) from the full set reachable on it, which also includes
// everything inherited from the superclass.
type Surface[M any] struct {
	own map[string]M
	all map[string]M
}

func newSurface[M any](parent *Surface[M]) *Surface[M] {
	s := &Surface[M]{
		own: make(map[string]M),
		all: make(map[string]M),
	}
	if parent != nil {
		maps.Copy(s.all, parent.all)
	}
	return s
}

func (s *Surface[M]) define(name string, m M) {
	s.own[name] = m
	s.all[name] = m
}

// Lookup returns the member reachable under name. A nil Surface has no members.
func (s *Surface[M]) Lookup(name string) (M, bool) {
	if s == nil {
		var zero M
		return zero, false
	}
	m, ok := s.all[name]
	return m, ok
}

// Has reports whether name is reachable.
func (s *Surface[M]) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Owns reports whether name is defined directly on this surface.
func (s *Surface[M]) Owns(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.own[name]
	return ok
}

// Names returns all reachable member names, sorted.
func (s *Surface[M]) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.all))
}

// OwnNames returns the directly defined member names, sorted.
func (s *Surface[M]) OwnNames() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.own))
}

// mergeMembers copies every member the mixin defines directly onto host,
// skipping names host can already reach. Returns the copied names.
func mergeMembers[M any](host, mixin *Surface[M]) []string {
	var copied []string
	for _, name := range mixin.OwnNames() {
		if host.Has(name) {
			continue
		}
		host.define(name, mixin.own[name])
		copied = append(copied, name)
	}
	return copied
}
