package compose

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ID indexes a Descriptor in its registry's arena. IDs are assigned in
// decoration order and never reused.
type ID int

// Config is the backing state record of an Instance.
type Config map[string]any

// Method is an instance-level member. inst is the instance it was invoked on,
// which for a mixin member is the host instance.
type Method func(inst *Instance, args ...any) (any, error)

// StaticMethod is a type-level member. t is the type it was invoked through.
type StaticMethod func(t *Type, args ...any) (any, error)

// Hook is a construction or destruction hook declared directly on a type.
type Hook func(inst *Instance) error

// TypeHook observes the decoration of another type.
type TypeHook func(ev HookEvent) error

// HookKind distinguishes the two decoration notifications.
type HookKind int

const (
	// HookExtended fires on every type already present in the new type's superclass composition.
	HookExtended HookKind = iota
	// HookMixed fires on every type newly introduced by the new type's own mixins.
	HookMixed
)

func (k HookKind) String() string {
	switch k {
	case HookExtended:
		return "extended"
	case HookMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// HookEvent is passed to Extended and Mixed hooks.
type HookEvent struct {
	Kind HookKind
	// Owner is the type whose hook is running.
	Owner *Type
	// Target is the type that just finished decorating.
	Target *Type
}

// Mixture reports whether Target reached Owner only through mixin merge
// rather than ordinary inheritance.
func (e HookEvent) Mixture() bool {
	return !e.Target.IsSubtypeOf(e.Owner)
}

func (e HookEvent) String() string {
	s := fmt.Sprintf("%s(%s,%s)", e.Kind, e.Owner.Name(), e.Target.Name())
	if e.Kind == HookExtended && e.Mixture() {
		s += "[mixture]"
	}
	return s
}

// Declaration is the composition contract of a type. It may be attached to
// the type statically (Class.Declaration) or passed to Decorate explicitly.
type Declaration struct {
	// Mixins are folded into the composition in order.
	Mixins []Ref
	// MixinID registers this type's member surfaces as a handle on every
	// type that mixes it in. It must start with a letter or underscore and
	// continue with letters, digits, '_', '-' or '.'; Decorate rejects other
	// ids with ErrInvalidMixinID.
	MixinID string
	// PrototypeMembers are written onto the type's own instance members.
	PrototypeMembers map[string]Method
	// StaticMembers are written onto the type's own type-level members.
	StaticMembers map[string]StaticMethod
	Extended      TypeHook
	Mixed         TypeHook
	// Fields are opaque to the engine and exposed through Descriptor.Field.
	Fields map[string]any
}

// Class is the body of a type definition.
type Class struct {
	Name string
	// Extends is the superclass; nil means the registry root.
	Extends     *Type
	Methods     map[string]Method
	Statics     map[string]StaticMethod
	Construct   Hook
	Destroy     Hook
	Declaration *Declaration
}

// Ref is a mixin reference: either a *Type or a Lazy reference.
type Ref interface {
	resolve() (*Type, error)
}

type lazyRef struct {
	once   sync.Once
	loaded atomic.Bool
	load   func() (*Type, error)
	t      *Type
	err    error
}

// Lazy returns a Ref that calls load the first time a decoration needs it and
// caches the result, error included. load runs without the registry lock and
// may define or look up types, but must not decorate the type mixing it in.
func Lazy(load func() (*Type, error)) Ref {
	return &lazyRef{load: load}
}

func (l *lazyRef) resolve() (*Type, error) {
	l.once.Do(func() {
		if l.load == nil {
			return
		}
		l.t, l.err = l.load()
	})
	l.loaded.Store(true)
	return l.t, l.err
}
