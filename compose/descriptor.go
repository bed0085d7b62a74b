package compose

import (
	"crypto/sha256"
	"maps"
	"slices"
	"strings"

	"github.com/mr-tron/base58"
)

// Descriptor is the decoration result of a Type. It is immutable once
// published.
type Descriptor struct {
	id    ID
	typ   *Type
	super *Descriptor

	composition  []ID
	chain        []*Descriptor
	membership   map[ID]struct{}
	introducedAt int

	instanceHandles map[string]*Surface[Method]
	typeHandles     map[string]*Surface[StaticMethod]
	proto           *Surface[Method]
	static          *Surface[StaticMethod]

	mixinID   string
	extended  TypeHook
	mixed     TypeHook
	construct Hook
	destroy   Hook
	fields    map[string]any
}

func newDescriptor(t *Type, super *Descriptor) *Descriptor {
	d := &Descriptor{
		typ:             t,
		super:           super,
		membership:      make(map[ID]struct{}),
		instanceHandles: make(map[string]*Surface[Method]),
		typeHandles:     make(map[string]*Surface[StaticMethod]),
		construct:       t.construct,
		destroy:         t.destroy,
	}
	if super == nil {
		d.proto = newSurface[Method](nil)
		d.static = newSurface[StaticMethod](nil)
		return d
	}
	d.composition = slices.Clone(super.composition)
	d.chain = slices.Clone(super.chain)
	maps.Copy(d.membership, super.membership)
	maps.Copy(d.instanceHandles, super.instanceHandles)
	maps.Copy(d.typeHandles, super.typeHandles)
	d.proto = newSurface(super.proto)
	d.static = newSurface(super.static)
	return d
}

func (d *Descriptor) ID() ID { return d.id }
func (d *Descriptor) Type() *Type { return d.typ }
func (d *Descriptor) Name() string { return d.typ.name }
func (d *Descriptor) Super() *Descriptor { return d.super }
func (d *Descriptor) MixinID() string { return d.mixinID }

// Composition returns the composition list as arena ids, ending with d's own.
func (d *Descriptor) Composition() []ID {
	return slices.Clone(d.composition)
}

// Chain returns the composition list as descriptors.
func (d *Descriptor) Chain() []*Descriptor {
	return slices.Clone(d.chain)
}

// Names returns the type names of the composition list.
func (d *Descriptor) Names() []string {
	names := make([]string, len(d.chain))
	for i, cd := range d.chain {
		names[i] = cd.typ.name
	}
	return names
}

// Introduced returns the descriptors this type's own mixins added to the
// composition, in the order they were appended.
func (d *Descriptor) Introduced() []*Descriptor {
	return slices.Clone(d.chain[d.introducedAt : len(d.chain)-1])
}

// Contains reports whether id is part of the composition.
func (d *Descriptor) Contains(id ID) bool {
	_, ok := d.membership[id]
	return ok
}

// Prototype returns the instance member surface.
func (d *Descriptor) Prototype() *Surface[Method] { return d.proto }

// Statics returns the type-level member surface.
func (d *Descriptor) Statics() *Surface[StaticMethod] { return d.static }

// InstanceHandle returns the instance surface registered under a mixin id.
func (d *Descriptor) InstanceHandle(mixinID string) (*Surface[Method], bool) {
	s, ok := d.instanceHandles[mixinID]
	return s, ok
}

// TypeHandle returns the type-level surface registered under a mixin id.
func (d *Descriptor) TypeHandle(mixinID string) (*Surface[StaticMethod], bool) {
	s, ok := d.typeHandles[mixinID]
	return s, ok
}

// HandleIDs returns the registered mixin ids, sorted.
func (d *Descriptor) HandleIDs() []string {
	return slices.Sorted(maps.Keys(d.instanceHandles))
}

// HasConstruct reports whether the type declares its own construction hook.
func (d *Descriptor) HasConstruct() bool { return d.construct != nil }

// HasDestroy reports whether the type declares its own destruction hook.
func (d *Descriptor) HasDestroy() bool { return d.destroy != nil }

// Field returns an opaque declaration field.
func (d *Descriptor) Field(key string) (any, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// Fields returns a copy of the opaque declaration fields.
func (d *Descriptor) Fields() map[string]any {
	return maps.Clone(d.fields)
}

// Fingerprint is a base58 digest of the composition's type names. Unlike
// ids it is stable across processes, so two linearizations can be compared.
func (d *Descriptor) Fingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join(d.Names(), "\x00")))
	return base58.Encode(sum[:])
}
