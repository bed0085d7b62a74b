package compose

import (
	"cmp"
	"maps"
	"slices"
	"unicode"

	"github.com/teranos/lineage/errors"
	"github.com/teranos/lineage/logger"
)

// Decorate computes t's composition list, merges mixin members and fires
// the Extended and Mixed hooks of the types t builds on. It is idempotent:
// once t is decorated the cached descriptor is returned and decl is ignored.
//
// When decl is nil the type's static declaration is used. A declaration
// identical to the superclass's static declaration is treated as absent, so
// a subtype never re-runs its superclass's mixin list.
//
// Lazy mixin loaders and hooks run without the registry lock, so both may
// define, look up and decorate other types. A descriptor is published only
// after its own hooks have run; concurrent callers wait for it. When a hook
// fails, the types whose hooks did not all run stay unpublished and the next
// Decorate runs their hooks again. A hook must not decorate a type that is
// still waiting on hooks of the same call.
func (r *Registry) Decorate(t *Type, decl *Declaration) (*Descriptor, error) {
	if t == nil {
		return nil, errors.Wrap(errors.ErrInvalidType, "decorate: nil type")
	}
	if t.reg != r {
		return nil, errors.Wrapf(errors.ErrNotComposable, "decorate %s: type belongs to another registry", t.name)
	}

	for {
		if d := t.desc.Load(); d != nil {
			return d, nil
		}

		p := newPass()
		r.mu.Lock()
		d, err := r.decorate(t, decl, p)
		if err == nil {
			r.commit(p)
		}
		r.mu.Unlock()

		var again *retry
		if errors.As(err, &again) {
			again.run()
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := r.dispatch(p); err != nil {
			return nil, err
		}
		return d, nil
	}
}

// decorate builds t's descriptor into p. A type built by an earlier call
// whose hooks did not all run is claimed instead. r.mu must be held.
func (r *Registry) decorate(t *Type, explicit *Declaration, p *pass) (*Descriptor, error) {
	if d := t.desc.Load(); d != nil {
		return d, nil
	}
	if d, ok := p.staged[t]; ok {
		return d, nil
	}
	if t.built != nil {
		return t.built, p.claim(t.built)
	}
	if _, busy := p.building[t]; busy {
		return nil, errors.Wrapf(errors.ErrDecorationCycle, "type %s", t.name)
	}
	p.building[t] = struct{}{}
	defer delete(p.building, t)

	var super *Descriptor
	if t.super != nil {
		var err error
		if super, err = r.decorate(t.super, nil, p); err != nil {
			return nil, errors.Wrapf(err, "decorate %s", t.name)
		}
	}

	d := newDescriptor(t, super)
	for name, m := range t.methods {
		d.proto.define(name, m)
	}
	for name, m := range t.statics {
		d.static.define(name, m)
	}

	start := len(d.chain)
	if decl := resolveDeclaration(t, explicit); decl != nil {
		if err := d.declare(decl); err != nil {
			return nil, err
		}
		for i, ref := range decl.Mixins {
			if err := r.mix(d, ref, p); err != nil {
				return nil, errors.Wrapf(err, "type %s: mixin #%d", t.name, i)
			}
		}
	}

	d.id = ID(len(r.arena) + len(p.fresh))
	d.introducedAt = start
	d.composition = append(d.composition, d.id)
	d.chain = append(d.chain, d)
	d.membership[d.id] = struct{}{}
	p.stage(d)
	return d, nil
}

// mix folds one mixin into host: composition, members, handle.
func (r *Registry) mix(host *Descriptor, ref Ref, p *pass) error {
	if ref == nil {
		return errors.Wrap(errors.ErrNotComposable, "nil mixin")
	}
	if l, ok := ref.(*lazyRef); ok && !l.loaded.Load() {
		return &retry{lazy: l}
	}
	mt, err := ref.resolve()
	if err != nil {
		return errors.Wrap(err, "resolve mixin")
	}
	if mt == nil || mt.reg != r {
		return errors.WithHint(
			errors.Wrapf(errors.ErrNotComposable, "mixin %s does not derive from %s", mt.Name(), RootName),
			"mixins must be defined through the same Registry as the types that mix them in")
	}

	md, err := r.decorate(mt, nil, p)
	if err != nil {
		return err
	}

	for _, cd := range md.chain {
		if _, seen := host.membership[cd.id]; seen {
			continue
		}
		host.membership[cd.id] = struct{}{}
		host.composition = append(host.composition, cd.id)
		host.chain = append(host.chain, cd)
	}

	copied := mergeMembers(host.proto, md.proto)
	copiedStatic := mergeMembers(host.static, md.static)

	if md.mixinID != "" {
		if _, taken := host.instanceHandles[md.mixinID]; !taken {
			host.instanceHandles[md.mixinID] = md.proto
			host.typeHandles[md.mixinID] = md.static
		}
	}

	p.mixes = append(p.mixes, mixed{host: host, mixin: md, members: copied, statics: copiedStatic})
	return nil
}

// commit makes p's new descriptors part of the registry and marks every
// descriptor p owes hooks for as in flight. r.mu must be held.
func (r *Registry) commit(p *pass) {
	r.arena = append(r.arena, p.fresh...)
	for _, d := range p.fresh {
		d.typ.built = d
		r.log.Debugw("decorated type",
			logger.FieldType, d.typ.name,
			logger.FieldTypeID, d.id,
			logger.FieldComposition, d.Names())
	}
	for _, m := range p.mixes {
		r.log.Debugw("mixed in",
			logger.FieldType, m.host.typ.name,
			logger.FieldMixin, m.mixin.typ.name,
			logger.FieldMixinID, m.mixin.mixinID,
			"members", m.members,
			"statics", m.statics)
	}

	slices.SortFunc(p.owed, func(a, b *Descriptor) int { return cmp.Compare(a.id, b.id) })
	for _, d := range p.owed {
		d.typ.owner = p
	}
}

// dispatch fires the hooks owed by p in decoration order and publishes each
// descriptor once its hooks have run.
func (r *Registry) dispatch(p *pass) error {
	defer close(p.done)
	for i, d := range p.owed {
		if err := fire(d); err != nil {
			r.mu.Lock()
			for _, rest := range p.owed[i:] {
				rest.typ.owner = nil
			}
			r.mu.Unlock()
			return err
		}
		r.mu.Lock()
		d.typ.owner = nil
		d.typ.desc.Store(d)
		r.mu.Unlock()
	}
	return nil
}

// fire runs the Extended hooks of the types d inherits and then the Mixed
// hooks of the types its own mixins introduced.
func fire(d *Descriptor) error {
	if d.super != nil {
		for _, owner := range d.super.chain {
			if owner.extended == nil {
				continue
			}
			ev := HookEvent{Kind: HookExtended, Owner: owner.typ, Target: d.typ}
			if err := owner.extended(ev); err != nil {
				return errors.Wrapf(err, "hook %s", ev)
			}
		}
	}
	for _, owner := range d.chain[d.introducedAt : len(d.chain)-1] {
		if owner.mixed == nil {
			continue
		}
		ev := HookEvent{Kind: HookMixed, Owner: owner.typ, Target: d.typ}
		if err := owner.mixed(ev); err != nil {
			return errors.Wrapf(err, "hook %s", ev)
		}
	}
	return nil
}

// declare applies the declaration's own fields to d.
func (d *Descriptor) declare(decl *Declaration) error {
	if decl.MixinID != "" && !validMixinID(decl.MixinID) {
		return errors.Wrapf(errors.ErrInvalidMixinID, "type %s: %q", d.typ.name, decl.MixinID)
	}
	d.mixinID = decl.MixinID
	d.extended = decl.Extended
	d.mixed = decl.Mixed
	d.fields = maps.Clone(decl.Fields)

	for name, m := range decl.PrototypeMembers {
		d.proto.define(name, m)
	}
	for name, m := range decl.StaticMembers {
		d.static.define(name, m)
	}
	return nil
}

func resolveDeclaration(t *Type, explicit *Declaration) *Declaration {
	decl := explicit
	if decl == nil {
		decl = t.Declaration()
	}
	if decl != nil && t.super != nil && decl == t.super.Declaration() {
		return nil
	}
	return decl
}

// validMixinID accepts identifier-like keys: a letter or underscore followed
// by letters, digits, '_', '-' or '.'.
func validMixinID(id string) bool {
	for i, c := range id {
		letter := unicode.IsLetter(c) || c == '_'
		if i == 0 && !letter {
			return false
		}
		if !letter && !unicode.IsDigit(c) && c != '-' && c != '.' {
			return false
		}
	}
	return id != ""
}

// pass is one attempt of a top-level Decorate call: the descriptors it
// builds, the descriptors it owes hooks for and its bookkeeping.
type pass struct {
	building map[*Type]struct{}
	staged   map[*Type]*Descriptor
	fresh    []*Descriptor
	owed     []*Descriptor
	mixes    []mixed
	done     chan struct{}
}

type mixed struct {
	host    *Descriptor
	mixin   *Descriptor
	members []string
	statics []string
}

func newPass() *pass {
	return &pass{
		building: make(map[*Type]struct{}),
		staged:   make(map[*Type]*Descriptor),
		done:     make(chan struct{}),
	}
}

func (p *pass) stage(d *Descriptor) {
	p.staged[d.typ] = d
	p.fresh = append(p.fresh, d)
	p.owed = append(p.owed, d)
}

// claim takes over the outstanding hooks of d and of every unpublished type
// in its composition. r.mu must be held.
func (p *pass) claim(d *Descriptor) error {
	for _, cd := range d.chain {
		if cd.typ.desc.Load() != nil {
			continue
		}
		if _, ok := p.staged[cd.typ]; ok {
			continue
		}
		if cd.typ.owner != nil {
			return &retry{wait: cd.typ.owner.done}
		}
		p.staged[cd.typ] = cd
		p.owed = append(p.owed, cd)
	}
	return nil
}

// retry aborts an attempt that has to block: to load a lazy mixin or to wait
// for another call's hooks. Decorate runs it without the lock and starts over.
type retry struct {
	lazy *lazyRef
	wait <-chan struct{}
}

func (rt *retry) Error() string {
	if rt.lazy != nil {
		return "decoration needs a lazy mixin loaded"
	}
	return "decoration waits for hooks in flight"
}

func (rt *retry) run() {
	if rt.lazy != nil {
		_, _ = rt.lazy.resolve()
	}
	if rt.wait != nil {
		<-rt.wait
	}
}
