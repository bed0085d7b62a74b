package compose

import (
	"github.com/teranos/lineage/errors"
)

// Handle gives explicit access to one mixin's original instance members,
// bound to the host instance. A host that shadows a mixin member can still
// delegate to it through its handle.
type Handle struct {
	inst *Instance
	id   string
}

// ID returns the mixin id the handle was requested for.
func (h Handle) ID() string { return h.id }

// Registered reports whether the host's composition registered the id.
func (h Handle) Registered() bool {
	_, ok := h.inst.desc.instanceHandles[h.id]
	return ok
}

// Invoke calls the mixin's member with the host instance as receiver.
func (h Handle) Invoke(name string, args ...any) (any, error) {
	s := h.inst.desc.instanceHandles[h.id]
	m, ok := s.Lookup(name)
	if !ok {
		return nil, errors.NewMemberNotFound("%s.mixins.%s.%s", h.inst.typ.name, h.id, name)
	}
	return m(h.inst, args...)
}

// TypeHandle is the type-level counterpart of Handle.
type TypeHandle struct {
	t  *Type
	id string
}

// ID returns the mixin id the handle was requested for.
func (h TypeHandle) ID() string { return h.id }

// Invoke calls the mixin's type-level member with the host type as receiver.
func (h TypeHandle) Invoke(name string, args ...any) (any, error) {
	d, err := Decorate(h.t, nil)
	if err != nil {
		return nil, err
	}
	s := d.typeHandles[h.id]
	m, ok := s.Lookup(name)
	if !ok {
		return nil, errors.NewMemberNotFound("%s.mixins.%s.%s", h.t.name, h.id, name)
	}
	return m(h.t, args...)
}
