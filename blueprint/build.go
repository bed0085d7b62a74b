package blueprint

import (
	"maps"
	"strings"

	"github.com/teranos/lineage/compose"
	"github.com/teranos/lineage/errors"
	"github.com/teranos/lineage/logger"
)

// Graph is a blueprint built into a registry.
type Graph struct {
	reg   *compose.Registry
	file  *File
	types map[string]*compose.Type
}

// Build validates f and defines its types in reg. Mixins are bound lazily
// and resolved when a type is first decorated, so no type is decorated here.
// Tracing hooks record into rec; rec may be nil.
//
// A nil reg builds into a fresh registry.
func Build(reg *compose.Registry, f *File, rec *Recorder) (*Graph, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = compose.NewRegistry()
	}
	if rec == nil {
		rec = NewRecorder()
	}

	g := &Graph{
		reg:   reg,
		file:  f,
		types: make(map[string]*compose.Type, len(f.Types)),
	}

	// Superclasses must be defined before their subtypes. Validate rules out
	// extends cycles, so every round defines at least one type.
	pending := f.Types
	for len(pending) > 0 {
		var next []TypeSpec
		for _, spec := range pending {
			super, ready := g.super(spec)
			if !ready {
				next = append(next, spec)
				continue
			}
			t, err := reg.Define(g.class(spec, super, rec))
			if err != nil {
				return nil, errors.Wrapf(err, "define %s", spec.Name)
			}
			g.types[spec.Name] = t
		}
		if len(next) == len(pending) {
			return nil, errors.AssertionFailedf("blueprint: no progress defining %v", next)
		}
		pending = next
	}

	logger.Debugw("blueprint built",
		logger.FieldFile, f.Path,
		logger.FieldCount, len(g.types))
	return g, nil
}

func (g *Graph) super(spec TypeSpec) (*compose.Type, bool) {
	if spec.Extends == "" || spec.Extends == compose.RootName {
		return nil, true
	}
	t, ok := g.types[spec.Extends]
	return t, ok
}

func (g *Graph) ref(name string) compose.Ref {
	return compose.Lazy(func() (*compose.Type, error) {
		t, ok := g.types[name]
		if !ok {
			return nil, errors.Wrapf(errors.ErrMemberNotFound, "blueprint type %s", name)
		}
		return t, nil
	})
}

func (g *Graph) class(spec TypeSpec, super *compose.Type, rec *Recorder) compose.Class {
	decl := &compose.Declaration{
		MixinID: spec.MixinID,
		Fields:  maps.Clone(spec.Fields),
	}
	for _, m := range spec.Mixins {
		decl.Mixins = append(decl.Mixins, g.ref(m))
	}
	if spec.HasHook(HookExtended) {
		decl.Extended = typeHook(rec, HookExtended)
	}
	if spec.HasHook(HookMixed) {
		decl.Mixed = typeHook(rec, HookMixed)
	}

	c := compose.Class{
		Name:        spec.Name,
		Extends:     super,
		Methods:     make(map[string]compose.Method, len(spec.Methods)),
		Statics:     make(map[string]compose.StaticMethod, len(spec.Statics)),
		Declaration: decl,
	}
	for name, v := range spec.Methods {
		c.Methods[name] = method(spec.Name, v)
	}
	for name, v := range spec.Statics {
		c.Statics[name] = static(v)
	}

	if spec.HasHook(HookConstruct) {
		c.Construct = func(inst *compose.Instance) error {
			rec.Record(Event{Hook: HookConstruct, Owner: spec.Name, Target: inst.Type().Name()})
			return nil
		}
	}
	if spec.HasHook(HookDestroy) {
		c.Destroy = func(inst *compose.Instance) error {
			rec.Record(Event{Hook: HookDestroy, Owner: spec.Name, Target: inst.Type().Name()})
			return nil
		}
	}
	return c
}

func typeHook(rec *Recorder, hook string) compose.TypeHook {
	return func(ev compose.HookEvent) error {
		rec.Record(Event{
			Hook:    hook,
			Owner:   ev.Owner.Name(),
			Target:  ev.Target.Name(),
			Mixture: hook == HookExtended && ev.Mixture(),
		})
		return nil
	}
}

// method returns a member that yields v. A string value may reference the
// defining type as {{type}} and the receiving instance's type as {{self}}.
func method(owner string, v any) compose.Method {
	return func(inst *compose.Instance, _ ...any) (any, error) {
		if s, ok := v.(string); ok {
			return expand(s, owner, inst.Type().Name()), nil
		}
		return v, nil
	}
}

func expand(s, owner, self string) string {
	return strings.NewReplacer("{{type}}", owner, "{{self}}", self).Replace(s)
}

func static(v any) compose.StaticMethod {
	return func(*compose.Type, ...any) (any, error) {
		return v, nil
	}
}

// Type returns the named type, including the registry root.
func (g *Graph) Type(name string) (*compose.Type, bool) {
	if name == compose.RootName {
		return g.reg.Root(), true
	}
	t, ok := g.types[name]
	return t, ok
}

// Lookup is like Type but reports unknown names as ErrMemberNotFound.
func (g *Graph) Lookup(name string) (*compose.Type, error) {
	t, ok := g.Type(name)
	if !ok {
		return nil, errors.WithHintf(
			errors.Wrapf(errors.ErrMemberNotFound, "type %s", name),
			"declared types: %v", g.Names())
	}
	return t, nil
}

// Names returns the declared type names in file order.
func (g *Graph) Names() []string {
	return g.file.Names()
}

// File returns the blueprint the graph was built from.
func (g *Graph) File() *File { return g.file }

// Registry returns the registry the graph was built into.
func (g *Graph) Registry() *compose.Registry { return g.reg }

// Defaults returns the instance defaults of the named type: the defaults of
// every type in its composition, later types overriding earlier ones.
func (g *Graph) Defaults(name string) (compose.Config, error) {
	t, err := g.Lookup(name)
	if err != nil {
		return nil, err
	}
	d, err := t.Decorate()
	if err != nil {
		return nil, err
	}
	cfg := make(compose.Config)
	for _, cd := range d.Chain() {
		if spec, ok := g.file.Spec(cd.Name()); ok {
			maps.Copy(cfg, spec.Defaults)
		}
	}
	return cfg, nil
}

// New constructs an instance of the named type. The type's defaults are
// merged first, then args in order.
func (g *Graph) New(name string, args ...any) (*compose.Instance, error) {
	defaults, err := g.Defaults(name)
	if err != nil {
		return nil, err
	}
	t, _ := g.Type(name)
	return compose.Construct(t, append([]any{defaults}, args...)...)
}

// DecorateAll decorates every declared type in file order and returns their
// descriptors in the same order.
func (g *Graph) DecorateAll() ([]*compose.Descriptor, error) {
	out := make([]*compose.Descriptor, 0, len(g.file.Types))
	for _, name := range g.Names() {
		d, err := g.types[name].Decorate()
		if err != nil {
			return nil, errors.Wrapf(err, "decorate %s", name)
		}
		out = append(out, d)
	}
	return out, nil
}
