package compose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/lineage/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDecorate_InheritanceWinsOverMixin(t *testing.T) {
	reg := NewRegistry()
	parent := reg.MustDefine(Class{
		Name:    "Parent",
		Methods: map[string]Method{"greet": constant("parent")},
	})
	mixin := reg.MustDefine(Class{
		Name: "Greeter",
		Methods: map[string]Method{
			"greet": constant("mixin"),
			"wave":  constant("wave"),
		},
		Declaration: &Declaration{MixinID: "greeter"},
	})
	child := reg.MustDefine(Class{
		Name:        "Child",
		Extends:     parent,
		Declaration: &Declaration{Mixins: []Ref{mixin}},
	})

	inst, err := child.New(nil)
	require.NoError(t, err)

	got, err := inst.Invoke("greet")
	require.NoError(t, err)
	assert.Equal(t, "parent", got)

	got, err = inst.Invoke("wave")
	require.NoError(t, err)
	assert.Equal(t, "wave", got, "names not reachable on the host are merged")

	got, err = inst.Mixin("greeter").Invoke("greet")
	require.NoError(t, err)
	assert.Equal(t, "mixin", got, "the handle always reaches the mixin's own member")

	d, _ := child.Descriptor()
	assert.False(t, d.Prototype().Owns("greet"))
	assert.True(t, d.Prototype().Owns("wave"))
}

// First mixin wins among mixins providing the same name. This is kept as
// documented behavior; a later mixin's member stays reachable only through
// its handle.
func TestDecorate_FirstMixinWins(t *testing.T) {
	reg := NewRegistry()
	first := reg.MustDefine(Class{
		Name:        "First",
		Methods:     map[string]Method{"name": constant("first")},
		Declaration: &Declaration{MixinID: "first"},
	})
	second := reg.MustDefine(Class{
		Name:        "Second",
		Methods:     map[string]Method{"name": constant("second")},
		Declaration: &Declaration{MixinID: "second"},
	})
	host := reg.MustDefine(Class{
		Name:        "Host",
		Declaration: &Declaration{Mixins: []Ref{first, second}},
	})

	inst, err := host.New(nil)
	require.NoError(t, err)

	got, err := inst.Invoke("name")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	got, err = inst.Mixin("second").Invoke("name")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestDecorate_FirstMixinIDWins(t *testing.T) {
	reg := NewRegistry()
	one := reg.MustDefine(Class{
		Name:        "One",
		Methods:     map[string]Method{"which": constant("one")},
		Declaration: &Declaration{MixinID: "shared"},
	})
	two := reg.MustDefine(Class{
		Name:        "Two",
		Methods:     map[string]Method{"which": constant("two")},
		Declaration: &Declaration{MixinID: "shared"},
	})
	host := reg.MustDefine(Class{
		Name:        "Host",
		Declaration: &Declaration{Mixins: []Ref{one, two}},
	})

	inst, err := host.New(nil)
	require.NoError(t, err)
	got, err := inst.Mixin("shared").Invoke("which")
	require.NoError(t, err)
	assert.Equal(t, "one", got)
}

func TestDecorate_ExplicitDelegation(t *testing.T) {
	reg := NewRegistry()
	mixin := reg.MustDefine(Class{
		Name: "Logger",
		Methods: map[string]Method{
			"describe": func(inst *Instance, _ ...any) (any, error) {
				return "logger of " + inst.Type().Name(), nil
			},
		},
		Declaration: &Declaration{MixinID: "log"},
	})
	host := reg.MustDefine(Class{
		Name: "Service",
		Methods: map[string]Method{
			"describe": func(inst *Instance, args ...any) (any, error) {
				base, err := inst.Mixin("log").Invoke("describe", args...)
				if err != nil {
					return nil, err
				}
				return base.(string) + " (wrapped)", nil
			},
		},
		Declaration: &Declaration{Mixins: []Ref{mixin}},
	})

	inst, err := host.New(nil)
	require.NoError(t, err)
	got, err := inst.Invoke("describe")
	require.NoError(t, err)
	assert.Equal(t, "logger of Service (wrapped)", got)
}

func TestDecorate_DiamondDedup(t *testing.T) {
	reg := NewRegistry()
	var constructed []string
	hook := func(name string) Hook {
		return func(*Instance) error {
			constructed = append(constructed, name)
			return nil
		}
	}

	shared := reg.MustDefine(Class{Name: "Shared", Construct: hook("Shared")})
	left := reg.MustDefine(Class{
		Name:        "Left",
		Construct:   hook("Left"),
		Declaration: &Declaration{Mixins: []Ref{shared}},
	})
	right := reg.MustDefine(Class{
		Name:        "Right",
		Construct:   hook("Right"),
		Declaration: &Declaration{Mixins: []Ref{shared}},
	})
	bottom := reg.MustDefine(Class{
		Name:        "Bottom",
		Extends:     left,
		Construct:   hook("Bottom"),
		Declaration: &Declaration{Mixins: []Ref{right, shared}},
	})

	d, err := bottom.Decorate()
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Shared", "Left", "Right", "Bottom"}, d.Names())

	_, err = bottom.New(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shared", "Left", "Right", "Bottom"}, constructed)
}

func TestDecorate_InheritedDeclarationIsAbsent(t *testing.T) {
	reg := NewRegistry()
	var mixed []string
	mixin := reg.MustDefine(Class{
		Name: "Mixin",
		Declaration: &Declaration{Mixed: func(ev HookEvent) error {
			mixed = append(mixed, ev.Target.Name())
			return nil
		}},
	})
	parent := reg.MustDefine(Class{
		Name:        "Parent",
		Declaration: &Declaration{Mixins: []Ref{mixin}, MixinID: "parent"},
	})
	child := reg.MustDefine(Class{Name: "Child", Extends: parent})

	assert.Same(t, parent.Declaration(), child.Declaration())

	d, err := child.Decorate()
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Mixin", "Parent", "Child"}, d.Names())
	assert.Empty(t, d.Introduced())
	assert.Empty(t, d.MixinID(), "the superclass's mixin id is not re-declared")
	assert.Equal(t, []string{"Parent"}, mixed, "the mixin list is not re-run for the subtype")
}

func TestDecorate_ExplicitDeclaration(t *testing.T) {
	reg := NewRegistry()
	mixin := reg.MustDefine(Class{
		Name:    "Extra",
		Methods: map[string]Method{"extra": constant(true)},
	})
	other := reg.MustDefine(Class{Name: "Other"})
	plain := reg.MustDefine(Class{Name: "Plain"})

	d, err := reg.Decorate(plain, &Declaration{
		Mixins: []Ref{mixin},
		Fields: map[string]any{"owner": "team-a"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Extra", "Plain"}, d.Names())
	owner, ok := d.Field("owner")
	require.True(t, ok)
	assert.Equal(t, "team-a", owner)

	again, err := Decorate(plain, &Declaration{Mixins: []Ref{other}})
	require.NoError(t, err)
	assert.Same(t, d, again, "a later declaration is ignored once decorated")
}

func TestDecorate_DeclarationMembers(t *testing.T) {
	reg := NewRegistry()
	typ := reg.MustDefine(Class{
		Name:    "Widget",
		Methods: map[string]Method{"render": constant("class")},
		Statics: map[string]StaticMethod{
			"kind": func(t *Type, _ ...any) (any, error) { return "widget:" + t.Name(), nil },
		},
		Declaration: &Declaration{
			PrototypeMembers: map[string]Method{"render": constant("declared")},
			StaticMembers: map[string]StaticMethod{
				"count": func(*Type, ...any) (any, error) { return 3, nil },
			},
		},
	})

	inst, err := typ.New(nil)
	require.NoError(t, err)
	got, err := inst.Invoke("render")
	require.NoError(t, err)
	assert.Equal(t, "declared", got)

	got, err = typ.Invoke("kind")
	require.NoError(t, err)
	assert.Equal(t, "widget:Widget", got)

	got, err = typ.Invoke("count")
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestDecorate_StaticMerge(t *testing.T) {
	reg := NewRegistry()
	mixin := reg.MustDefine(Class{
		Name: "Countable",
		Statics: map[string]StaticMethod{
			"tag": func(t *Type, _ ...any) (any, error) { return "countable:" + t.Name(), nil },
		},
		Declaration: &Declaration{MixinID: "countable"},
	})
	host := reg.MustDefine(Class{
		Name: "Item",
		Statics: map[string]StaticMethod{
			"tag": func(*Type, ...any) (any, error) { return "item", nil },
		},
		Declaration: &Declaration{Mixins: []Ref{mixin}},
	})
	sub := reg.MustDefine(Class{Name: "SubItem", Extends: host})

	got, err := sub.Invoke("tag")
	require.NoError(t, err)
	assert.Equal(t, "item", got)

	got, err = sub.Mixin("countable").Invoke("tag")
	require.NoError(t, err)
	assert.Equal(t, "countable:SubItem", got, "type handles receive the host type")

	_, err = sub.Mixin("missing").Invoke("tag")
	assert.True(t, errors.IsMemberNotFound(err))

	_, err = sub.Invoke("missing")
	assert.True(t, errors.IsMemberNotFound(err))
}

func TestDecorate_NotComposable(t *testing.T) {
	reg := NewRegistry()
	foreign := NewRegistry().MustDefine(Class{Name: "Foreign"})

	tests := []struct {
		name string
		ref  Ref
	}{
		{name: "nil ref", ref: nil},
		{name: "nil type", ref: (*Type)(nil)},
		{name: "foreign registry", ref: foreign},
		{name: "lazy nil", ref: Lazy(func() (*Type, error) { return nil, nil })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := reg.MustDefine(Class{
				Name:        "Host" + tt.name,
				Declaration: &Declaration{Mixins: []Ref{tt.ref}},
			})
			_, err := host.Decorate()
			require.Error(t, err)
			assert.True(t, errors.IsNotComposable(err), "got %v", err)
			_, ok := host.Descriptor()
			assert.False(t, ok)
		})
	}

	_, err := reg.Decorate(foreign, nil)
	assert.True(t, errors.IsNotComposable(err))

	_, err = Decorate(nil, nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidType))
}

func TestDecorate_LazyRef(t *testing.T) {
	reg := NewRegistry()
	loads := 0
	var target *Type
	ref := Lazy(func() (*Type, error) {
		loads++
		return target, nil
	})

	first := reg.MustDefine(Class{Name: "First", Declaration: &Declaration{Mixins: []Ref{ref}}})
	second := reg.MustDefine(Class{Name: "Second", Declaration: &Declaration{Mixins: []Ref{ref}}})
	target = reg.MustDefine(Class{Name: "Late"})

	assert.Equal(t, 0, loads, "lazy refs are not resolved at definition")

	d1, err := first.Decorate()
	require.NoError(t, err)
	d2, err := second.Decorate()
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, []string{"Base", "Late", "First"}, d1.Names())
	assert.Equal(t, []string{"Base", "Late", "Second"}, d2.Names())
}

func TestDecorate_LazyRefError(t *testing.T) {
	reg := NewRegistry()
	errLoad := errors.New("module not found")
	loads := 0
	ref := Lazy(func() (*Type, error) {
		loads++
		return nil, errLoad
	})
	host := reg.MustDefine(Class{Name: "Host", Declaration: &Declaration{Mixins: []Ref{ref}}})

	_, err := host.Decorate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errLoad))

	_, err = host.Decorate()
	assert.True(t, errors.Is(err, errLoad))
	assert.Equal(t, 1, loads, "the load error is cached")
}

func TestDecorate_Cycle(t *testing.T) {
	reg := NewRegistry()
	var x, y *Type
	x = reg.MustDefine(Class{
		Name:        "X",
		Declaration: &Declaration{Mixins: []Ref{Lazy(func() (*Type, error) { return y, nil })}},
	})
	y = reg.MustDefine(Class{
		Name:        "Y",
		Declaration: &Declaration{Mixins: []Ref{Lazy(func() (*Type, error) { return x, nil })}},
	})

	_, err := x.Decorate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDecorationCycle))

	_, ok := x.Descriptor()
	assert.False(t, ok)
	_, ok = y.Descriptor()
	assert.False(t, ok)

	var self *Type
	self = reg.MustDefine(Class{
		Name:        "Self",
		Declaration: &Declaration{Mixins: []Ref{Lazy(func() (*Type, error) { return self, nil })}},
	})
	_, err = self.Decorate()
	assert.True(t, errors.Is(err, errors.ErrDecorationCycle))
}

func TestValidMixinID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"m", true},
		{"m2", true},
		{"_private", true},
		{"net.http-client", true},
		{"", false},
		{"2m", false},
		{"-m", false},
		{"has space", false},
		{"a/b", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, validMixinID(tt.id), "mixin id %q", tt.id)
	}
}

func TestDecorate_InvalidMixinID(t *testing.T) {
	reg := NewRegistry()
	typ := reg.MustDefine(Class{Name: "Bad", Declaration: &Declaration{MixinID: "9lives"}})

	_, err := typ.Decorate()
	assert.True(t, errors.Is(err, errors.ErrInvalidMixinID))
}

func TestDecorate_HookError(t *testing.T) {
	reg := NewRegistry()
	errHook := errors.New("refused")
	parent := reg.MustDefine(Class{
		Name: "Strict",
		Declaration: &Declaration{Extended: func(ev HookEvent) error {
			if ev.Target.Name() == "Rejected" {
				return errHook
			}
			return nil
		}},
	})
	child := reg.MustDefine(Class{Name: "Rejected", Extends: parent})

	_, err := child.Decorate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errHook))
	assert.Contains(t, err.Error(), "extended(Strict,Rejected)")

	_, ok := child.Descriptor()
	assert.False(t, ok, "a type is published only after its hooks ran")
	_, ok = parent.Descriptor()
	assert.True(t, ok)

	_, err = child.Decorate()
	assert.True(t, errors.Is(err, errHook), "outstanding hooks run again")
}

func TestDecorate_HookErrorKeepsHooksOwed(t *testing.T) {
	reg := NewRegistry()
	errHook := errors.New("refused")
	var events []string
	refuse := true
	a := reg.MustDefine(Class{
		Name: "A",
		Declaration: &Declaration{Extended: func(ev HookEvent) error {
			events = append(events, ev.String())
			if refuse && ev.Target.Name() == "B" {
				return errHook
			}
			return nil
		}},
	})
	b := reg.MustDefine(Class{Name: "B", Extends: a})
	m := reg.MustDefine(Class{
		Name: "M",
		Declaration: &Declaration{Mixed: func(ev HookEvent) error {
			events = append(events, ev.String())
			return nil
		}},
	})
	c := reg.MustDefine(Class{Name: "C", Extends: b, Declaration: &Declaration{Mixins: []Ref{m}}})

	_, err := c.Decorate()
	require.True(t, errors.Is(err, errHook))
	assert.Equal(t, []string{"extended(A,B)"}, events)
	for _, typ := range []*Type{b, m, c} {
		_, ok := typ.Descriptor()
		assert.False(t, ok, "%s stays unpublished", typ)
	}
	_, ok := reg.Lookup(ID(2))
	assert.False(t, ok, "unpublished descriptors are not looked up")

	refuse = false
	events = nil
	d, err := c.Decorate()
	require.NoError(t, err)
	assert.Equal(t, []string{"extended(A,B)", "extended(A,C)", "mixed(M,C)"}, events)
	assert.Equal(t, []string{"Base", "A", "B", "M", "C"}, d.Names())
	assert.Equal(t, 5, reg.Len(), "ids are assigned once")

	published, ok := c.Descriptor()
	require.True(t, ok)
	assert.Same(t, d, published)

	events = nil
	_, err = c.Decorate()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDecorate_WaitsForHooksInFlight(t *testing.T) {
	reg := NewRegistry()
	entered := make(chan struct{})
	release := make(chan struct{})
	parent := reg.MustDefine(Class{
		Name: "Slow",
		Declaration: &Declaration{Extended: func(HookEvent) error {
			close(entered)
			<-release
			return nil
		}},
	})
	child := reg.MustDefine(Class{Name: "Child", Extends: parent})

	first := make(chan *Descriptor, 1)
	go func() {
		d, _ := child.Decorate()
		first <- d
	}()
	<-entered

	_, ok := child.Descriptor()
	assert.False(t, ok, "not published while its hooks run")

	second := make(chan *Descriptor, 1)
	go func() {
		d, _ := child.Decorate()
		second <- d
	}()

	select {
	case <-second:
		t.Fatal("Decorate returned before the hooks finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	d1 := <-first
	d2 := <-second
	require.NotNil(t, d1)
	assert.Same(t, d1, d2)
}

func TestDecorate_LazyLoaderUsesRegistry(t *testing.T) {
	reg := NewRegistry()
	late := Lazy(func() (*Type, error) {
		if existing, ok := reg.Type("Late"); ok {
			return existing, nil
		}
		return reg.Define(Class{
			Name:    "Late",
			Methods: map[string]Method{"late": constant("late")},
		})
	})
	host := reg.MustDefine(Class{Name: "Host", Declaration: &Declaration{Mixins: []Ref{late}}})
	other := reg.MustDefine(Class{Name: "Other", Declaration: &Declaration{Mixins: []Ref{late}}})

	done := make(chan error, 1)
	go func() {
		_, err := host.Decorate()
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Decorate blocked on a lazy loader that uses the registry")
	}

	d, ok := host.Descriptor()
	require.True(t, ok)
	assert.Equal(t, []string{"Base", "Late", "Host"}, d.Names())

	inst, err := host.New(nil)
	require.NoError(t, err)
	got, err := inst.Invoke("late")
	require.NoError(t, err)
	assert.Equal(t, "late", got)

	d, err = other.Decorate()
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Late", "Other"}, d.Names())
}

func TestDecorate_LazyLoaderDecorates(t *testing.T) {
	reg := NewRegistry()
	dep := reg.MustDefine(Class{Name: "Dep"})
	host := reg.MustDefine(Class{
		Name: "Host",
		Declaration: &Declaration{Mixins: []Ref{Lazy(func() (*Type, error) {
			if _, err := dep.Decorate(); err != nil {
				return nil, err
			}
			return dep, nil
		})}},
	})

	d, err := host.Decorate()
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Dep", "Host"}, d.Names())
}

func TestHookEvent_Mixture(t *testing.T) {
	reg := NewRegistry()
	a := reg.MustDefine(Class{Name: "A"})
	b := reg.MustDefine(Class{Name: "B", Extends: a})
	m := reg.MustDefine(Class{Name: "M"})

	assert.False(t, HookEvent{Kind: HookExtended, Owner: a, Target: b}.Mixture())
	assert.True(t, HookEvent{Kind: HookExtended, Owner: m, Target: b}.Mixture())
	assert.Equal(t, "extended(M,B)[mixture]", HookEvent{Kind: HookExtended, Owner: m, Target: b}.String())
	assert.Equal(t, "mixed(M,B)", HookEvent{Kind: HookMixed, Owner: m, Target: b}.String())
}

func TestRegistry_Define(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Define(Class{Name: "  "})
	assert.True(t, errors.Is(err, errors.ErrInvalidType))

	_, err = reg.Define(Class{Name: RootName})
	assert.True(t, errors.Is(err, errors.ErrDuplicateType))

	_, err = reg.Define(Class{Name: "Widget"})
	require.NoError(t, err)
	_, err = reg.Define(Class{Name: "Widget"})
	assert.True(t, errors.Is(err, errors.ErrDuplicateType))

	foreign := NewRegistry().MustDefine(Class{Name: "Foreign"})
	_, err = reg.Define(Class{Name: "Sub", Extends: foreign})
	assert.True(t, errors.Is(err, errors.ErrInvalidType))
	assert.NotEmpty(t, errors.GetAllHints(err))

	assert.Panics(t, func() { reg.MustDefine(Class{Name: "Widget"}) })

	typ, ok := reg.Type("Widget")
	require.True(t, ok)
	assert.Same(t, reg.Root(), typ.Super())
	assert.Equal(t, []string{RootName, "Widget"}, reg.TypeNames())
}

func TestRegistry_Lookup(t *testing.T) {
	s := newScenario(t)
	d, err := s.D.Decorate()
	require.NoError(t, err)

	for _, cd := range d.Chain() {
		got, ok := s.reg.Lookup(cd.ID())
		require.True(t, ok)
		assert.Same(t, cd, got)
	}
	_, ok := s.reg.Lookup(ID(99))
	assert.False(t, ok)
	_, ok = s.reg.Lookup(ID(-1))
	assert.False(t, ok)
}

func TestRegistry_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := NewRegistry(WithLogger(zap.New(core).Sugar()))

	mixin := reg.MustDefine(Class{Name: "Mixin", Declaration: &Declaration{MixinID: "mx"}})
	host := reg.MustDefine(Class{Name: "Host", Declaration: &Declaration{Mixins: []Ref{mixin}}})
	_, err := host.Decorate()
	require.NoError(t, err)

	decorated := logs.FilterMessage("decorated type").All()
	require.Len(t, decorated, 3)
	assert.Equal(t, "Host", decorated[2].ContextMap()["type"])

	mixedIn := logs.FilterMessage("mixed in").All()
	require.Len(t, mixedIn, 1)
	assert.Equal(t, "mx", mixedIn[0].ContextMap()["mixin_id"])
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, Default(), Default())

	typ, err := Define(Class{Name: "DefaultRegistryProbe"})
	require.NoError(t, err)
	assert.Same(t, Default(), typ.Registry())

	d, err := Decorate(typ, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{RootName, "DefaultRegistryProbe"}, d.Names())
}
