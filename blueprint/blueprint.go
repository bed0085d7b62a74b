// Package blueprint loads declarative type graphs and builds them into a
// compose.Registry.
//
// A blueprint names a set of types, their superclasses and the mixins they
// fold in. Members are constant-valued, which is enough to observe merge
// precedence and handle delegation from the command line. Every type gets
// tracing hooks that feed a Recorder.
package blueprint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/teranos/lineage/compose"
	"github.com/teranos/lineage/errors"
	"gopkg.in/yaml.v3"
)

// Format is a blueprint encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Hook names accepted in TypeSpec.Hooks.
const (
	HookExtended  = "extended"
	HookMixed     = "mixed"
	HookConstruct = "construct"
	HookDestroy   = "destroy"
)

var knownHooks = []string{HookExtended, HookMixed, HookConstruct, HookDestroy}

// File is a parsed blueprint.
type File struct {
	// Engine is an optional semver constraint on the running lineage version.
	Engine string     `toml:"engine" yaml:"engine" json:"engine"`
	Types  []TypeSpec `toml:"types" yaml:"types" json:"types"`

	// Path is the file the blueprint was loaded from, empty for Parse.
	Path string `toml:"-" yaml:"-" json:"-"`
}

// TypeSpec declares one type.
type TypeSpec struct {
	Name    string   `toml:"name" yaml:"name" json:"name"`
	Extends string   `toml:"extends" yaml:"extends" json:"extends,omitempty"`
	Mixins  []string `toml:"mixins" yaml:"mixins" json:"mixins,omitempty"`
	MixinID string   `toml:"mixin_id" yaml:"mixin_id" json:"mixin_id,omitempty"`
	// Hooks selects the tracing hooks to attach. Empty attaches all of them.
	Hooks    []string       `toml:"hooks" yaml:"hooks" json:"hooks,omitempty"`
	Methods  map[string]any `toml:"methods" yaml:"methods" json:"methods,omitempty"`
	Statics  map[string]any `toml:"statics" yaml:"statics" json:"statics,omitempty"`
	Defaults map[string]any `toml:"defaults" yaml:"defaults" json:"defaults,omitempty"`
	Fields   map[string]any `toml:"fields" yaml:"fields" json:"fields,omitempty"`
}

// HasHook reports whether the named tracing hook is attached.
func (s TypeSpec) HasHook(name string) bool {
	return len(s.Hooks) == 0 || slices.Contains(s.Hooks, name)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.NewInvalidBlueprint("unsupported blueprint extension %q", filepath.Ext(path))
	}
}

// Load reads and parses a blueprint file. The file is not validated.
func Load(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read blueprint %s", path)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "blueprint %s", path)
	}
	f.Path = path
	return f, nil
}

// Parse decodes a blueprint.
func Parse(data []byte, format Format) (*File, error) {
	var f File
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &f)
	case FormatYAML:
		err = yaml.Unmarshal(data, &f)
	case FormatJSON:
		err = json.Unmarshal(data, &f)
	default:
		return nil, errors.NewInvalidBlueprint("unknown format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidBlueprint, "failed to decode %s: %v", format, err)
	}
	return &f, nil
}

// Spec returns the declaration of the named type.
func (f *File) Spec(name string) (TypeSpec, bool) {
	for _, s := range f.Types {
		if s.Name == name {
			return s, true
		}
	}
	return TypeSpec{}, false
}

// Names returns the declared type names in file order.
func (f *File) Names() []string {
	names := make([]string, len(f.Types))
	for i, s := range f.Types {
		names[i] = s.Name
	}
	return names
}

// Validate checks that the blueprint describes a buildable graph. Mixin
// cycles are not checked here; they surface as decoration errors.
func (f *File) Validate() error {
	if len(f.Types) == 0 {
		return errors.NewInvalidBlueprint("no types declared")
	}

	declared := make(map[string]TypeSpec, len(f.Types))
	for i, s := range f.Types {
		if s.Name == "" {
			return errors.NewInvalidBlueprint("types[%d]: name is required", i)
		}
		if s.Name == compose.RootName {
			return errors.NewInvalidBlueprint("types[%d]: %s is reserved for the composition root", i, compose.RootName)
		}
		if _, dup := declared[s.Name]; dup {
			return errors.NewInvalidBlueprint("types[%d]: duplicate type %s", i, s.Name)
		}
		declared[s.Name] = s
	}

	for _, s := range f.Types {
		if s.Extends != "" && s.Extends != compose.RootName {
			if _, ok := declared[s.Extends]; !ok {
				return errors.NewInvalidBlueprint("type %s extends undeclared type %s", s.Name, s.Extends)
			}
		}
		for _, m := range s.Mixins {
			if _, ok := declared[m]; !ok {
				return errors.NewInvalidBlueprint("type %s mixes in undeclared type %s", s.Name, m)
			}
		}
		for _, h := range s.Hooks {
			if !slices.Contains(knownHooks, h) {
				return errors.NewInvalidBlueprint("type %s: unknown hook %q (expected one of %s)",
					s.Name, h, strings.Join(knownHooks, ", "))
			}
		}
	}

	for _, s := range f.Types {
		seen := map[string]bool{s.Name: true}
		for p := s.Extends; p != "" && p != compose.RootName; p = declared[p].Extends {
			if seen[p] {
				return errors.NewInvalidBlueprint("type %s: extends cycle through %s", s.Name, p)
			}
			seen[p] = true
		}
	}
	return nil
}

// CheckEngine checks the Engine constraint against the running version.
// Development builds and blueprints without a constraint always pass.
func (f *File) CheckEngine(running string) error {
	if f.Engine == "" || running == "" || running == "dev" {
		return nil
	}
	constraint, err := semver.NewConstraint(f.Engine)
	if err != nil {
		return errors.NewInvalidBlueprint("engine constraint %q: %v", f.Engine, err)
	}
	v, err := semver.NewVersion(strings.TrimPrefix(running, "v"))
	if err != nil {
		return errors.Wrapf(err, "running version %q is not semver", running)
	}
	if !constraint.Check(v) {
		return errors.WithHintf(
			errors.NewInvalidBlueprint("requires engine %s, running %s", f.Engine, running),
			"upgrade lineage or relax the engine constraint in %s", f.Path)
	}
	return nil
}
