package compose

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/teranos/lineage/errors"
	"github.com/teranos/lineage/logger"
	"go.uber.org/zap"
)

// RootName is the name of every registry's composition root.
const RootName = "Base"

// Registry owns a family of composable types: their definitions, the arena of
// descriptors indexed by ID, and the lock that serializes decoration.
type Registry struct {
	mu    sync.Mutex
	arena []*Descriptor
	types map[string]*Type
	root  *Type
	log   *zap.SugaredLogger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for decoration and lifecycle events.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry creates a registry containing only its root type.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		types: make(map[string]*Type),
		log:   logger.ComponentLogger("compose"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.root = &Type{name: RootName, reg: r}
	r.types[RootName] = r.root
	return r
}

// Root returns the composition root. Every type of the registry derives from it.
func (r *Registry) Root() *Type {
	return r.root
}

// Define creates a new type. Names are unique per registry.
func (r *Registry) Define(c Class) (*Type, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return nil, errors.Wrap(errors.ErrInvalidType, "type name is required")
	}

	super := c.Extends
	if super == nil {
		super = r.root
	} else if super.reg != r {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidType, "type %s: superclass %s belongs to another registry", name, super.name),
			"define the superclass through the same Registry")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; exists {
		return nil, errors.Wrapf(errors.ErrDuplicateType, "%s", name)
	}

	t := &Type{
		name:      name,
		super:     super,
		reg:       r,
		methods:   maps.Clone(c.Methods),
		statics:   maps.Clone(c.Statics),
		construct: c.Construct,
		destroy:   c.Destroy,
		decl:      c.Declaration,
	}
	r.types[name] = t
	return t, nil
}

// MustDefine is like Define but panics on error. Intended for package-level
// type variables.
func (r *Registry) MustDefine(c Class) *Type {
	t, err := r.Define(c)
	if err != nil {
		panic(err)
	}
	return t
}

// Type returns the type defined under name.
func (r *Registry) Type(name string) (*Type, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.types[name]
	return t, ok
}

// TypeNames returns all defined type names, root included, sorted.
func (r *Registry) TypeNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.types))
}

// Lookup returns the published descriptor with the given id. Descriptors
// whose hooks have not run yet are not returned.
func (r *Registry) Lookup(id ID) (*Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || int(id) >= len(r.arena) {
		return nil, false
	}
	d := r.arena[id]
	if d.typ.desc.Load() != d {
		return nil, false
	}
	return d, true
}

// Len returns the number of ids assigned, which counts decorated types and
// types whose hooks are still outstanding.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.arena)
}

// Process-wide default registry, created on first use
var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Define creates a type in the default registry.
func Define(c Class) (*Type, error) {
	return Default().Define(c)
}

// MustDefine creates a type in the default registry, panicking on error.
func MustDefine(c Class) *Type {
	return Default().MustDefine(c)
}

// Decorate decorates t in the registry it was defined in.
func Decorate(t *Type, decl *Declaration) (*Descriptor, error) {
	if t == nil {
		return nil, errors.Wrap(errors.ErrInvalidType, "decorate: nil type")
	}
	return t.reg.Decorate(t, decl)
}
