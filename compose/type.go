package compose

import (
	"sync/atomic"

	"github.com/teranos/lineage/errors"
)

// Type is a composable type. Types are created by Registry.Define and live
// for the lifetime of their registry.
type Type struct {
	name      string
	super     *Type
	reg       *Registry
	methods   map[string]Method
	statics   map[string]StaticMethod
	construct Hook
	destroy   Hook
	decl      *Declaration

	// built and owner are guarded by reg.mu. owner is the Decorate call
	// currently running built's hooks.
	built *Descriptor
	owner *pass

	// desc is set once the hooks owed for built have run.
	desc atomic.Pointer[Descriptor]
}

// Name returns the type name.
func (t *Type) Name() string {
	if t == nil {
		return "<nil>"
	}
	return t.name
}

func (t *Type) String() string {
	return t.Name()
}

// Super returns the superclass, or nil for the registry root.
func (t *Type) Super() *Type {
	return t.super
}

// Registry returns the registry the type was defined in.
func (t *Type) Registry() *Registry {
	return t.reg
}

// IsSubtypeOf reports whether u is a strict ancestor of t through ordinary
// inheritance. Mixins never make a type a subtype.
func (t *Type) IsSubtypeOf(u *Type) bool {
	if t == nil || u == nil {
		return false
	}
	for s := t.super; s != nil; s = s.super {
		if s == u {
			return true
		}
	}
	return false
}

// Declaration returns the static declaration visible on t: its own, or the
// nearest ancestor's when t declares none.
func (t *Type) Declaration() *Declaration {
	for s := t; s != nil; s = s.super {
		if s.decl != nil {
			return s.decl
		}
	}
	return nil
}

// Descriptor returns the descriptor if t has been decorated.
func (t *Type) Descriptor() (*Descriptor, bool) {
	d := t.desc.Load()
	return d, d != nil
}

// Decorate decorates t with its static declaration.
func (t *Type) Decorate() (*Descriptor, error) {
	return Decorate(t, nil)
}

// Invoke calls a type-level member reachable on t.
func (t *Type) Invoke(name string, args ...any) (any, error) {
	d, err := Decorate(t, nil)
	if err != nil {
		return nil, err
	}
	m, ok := d.static.Lookup(name)
	if !ok {
		return nil, errors.NewMemberNotFound("%s.%s", t.name, name)
	}
	return m(t, args...)
}

// Mixin returns the type-level handle registered under id. The handle is
// resolved when invoked.
func (t *Type) Mixin(id string) TypeHandle {
	return TypeHandle{t: t, id: id}
}

func (t *Type) resolve() (*Type, error) {
	return t, nil
}
