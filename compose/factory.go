package compose

import (
	"maps"

	"github.com/teranos/lineage/errors"
)

// Construct builds an instance of t from any number of configuration
// arguments. Each argument is nil, a Config or a map[string]any; they are
// merged left to right, later keys winning, and passed to Type.New.
func Construct(t *Type, args ...any) (*Instance, error) {
	if t == nil {
		return nil, errors.Wrap(errors.ErrInvalidType, "construct: nil type")
	}
	cfg, err := mergeArgs(args)
	if err != nil {
		return nil, errors.Wrapf(err, "construct %s", t.name)
	}
	return t.New(cfg)
}

// Create is Construct bound to t.
func (t *Type) Create(args ...any) (*Instance, error) {
	return Construct(t, args...)
}

func mergeArgs(args []any) (Config, error) {
	cfg := make(Config)
	for i, arg := range args {
		switch v := arg.(type) {
		case nil:
		case Config:
			maps.Copy(cfg, v)
		case map[string]any:
			maps.Copy(cfg, v)
		default:
			return nil, errors.Wrapf(errors.ErrInvalidArgument, "argument %d: unsupported type %T", i, arg)
		}
	}
	return cfg, nil
}
