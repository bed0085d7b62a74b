package compose

import (
	"maps"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/teranos/lineage/errors"
	"github.com/teranos/lineage/logger"
)

// Phase is the lifecycle state of an Instance.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseInitializing
	PhaseInitialized
	PhaseDestroying
	PhaseDestroyed
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseInitializing:
		return "initializing"
	case PhaseInitialized:
		return "initialized"
	case PhaseDestroying:
		return "destroying"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Instance is a constructed value of a composed type. Instances are not safe
// for concurrent use.
type Instance struct {
	id    uuid.UUID
	typ   *Type
	desc  *Descriptor
	state Config
	phase Phase

	// set on the first Destroy call, before any hook runs
	teardown bool
}

// New decorates t if needed, then constructs an instance: cfg is shallow-merged
// into the instance state and every construction hook in the composition runs
// once, base to derived.
//
// A failing hook stops construction. The error is returned together with the
// partially constructed instance, which stays in PhaseInitializing.
func (t *Type) New(cfg Config) (*Instance, error) {
	d, err := Decorate(t, nil)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		id:    uuid.New(),
		typ:   t,
		desc:  d,
		state: make(Config, len(cfg)),
	}
	maps.Copy(inst.state, cfg)

	log := t.reg.log
	inst.phase = PhaseInitializing
	for _, cd := range d.chain {
		if cd.construct == nil {
			continue
		}
		log.Debugw("construct hook",
			logger.FieldInstance, inst.id,
			logger.FieldType, t.name,
			logger.FieldHook, cd.typ.name)
		if err := cd.construct(inst); err != nil {
			return inst, errors.Wrapf(err, "construct %s: %s hook", t.name, cd.typ.name)
		}
	}
	inst.phase = PhaseInitialized
	return inst, nil
}

// Destroy runs every destruction hook in the composition once, derived to
// base. Calls after the first are no-ops.
//
// A failing hook stops teardown, leaving the remaining hooks un-run and the
// instance in PhaseDestroying.
func (inst *Instance) Destroy() error {
	if inst.teardown {
		return nil
	}
	inst.teardown = true
	inst.phase = PhaseDestroying

	log := inst.typ.reg.log
	for i := len(inst.desc.chain) - 1; i >= 0; i-- {
		cd := inst.desc.chain[i]
		if cd.destroy == nil {
			continue
		}
		log.Debugw("destroy hook",
			logger.FieldInstance, inst.id,
			logger.FieldType, inst.typ.name,
			logger.FieldHook, cd.typ.name)
		if err := cd.destroy(inst); err != nil {
			return errors.Wrapf(err, "destroy %s: %s hook", inst.typ.name, cd.typ.name)
		}
	}
	inst.phase = PhaseDestroyed
	return nil
}

func (inst *Instance) ID() uuid.UUID { return inst.id }
func (inst *Instance) Type() *Type { return inst.typ }
func (inst *Instance) Descriptor() *Descriptor { return inst.desc }
func (inst *Instance) Phase() Phase { return inst.phase }
func (inst *Instance) Initializing() bool { return inst.phase == PhaseInitializing }
func (inst *Instance) Initialized() bool { return inst.phase == PhaseInitialized }
func (inst *Instance) Destroying() bool { return inst.phase == PhaseDestroying }
func (inst *Instance) Destroyed() bool { return inst.phase == PhaseDestroyed }

// Reconfigure merges partial into the instance state. No hooks run.
func (inst *Instance) Reconfigure(partial Config) {
	maps.Copy(inst.state, partial)
}

// Get returns a raw state value.
func (inst *Instance) Get(key string) (any, bool) {
	v, ok := inst.state[key]
	return v, ok
}

// Set stores a state value.
func (inst *Instance) Set(key string, v any) {
	inst.state[key] = v
}

// Config returns a copy of the instance state.
func (inst *Instance) Config() Config {
	return maps.Clone(inst.state)
}

func (inst *Instance) GetString(key string) string {
	return cast.ToString(inst.state[key])
}

func (inst *Instance) GetInt(key string) int {
	return cast.ToInt(inst.state[key])
}

func (inst *Instance) GetBool(key string) bool {
	return cast.ToBool(inst.state[key])
}

func (inst *Instance) GetStringSlice(key string) []string {
	return cast.ToStringSlice(inst.state[key])
}

// Invoke calls an instance member reachable on the instance's type.
func (inst *Instance) Invoke(name string, args ...any) (any, error) {
	m, ok := inst.desc.proto.Lookup(name)
	if !ok {
		return nil, errors.NewMemberNotFound("%s.%s", inst.typ.name, name)
	}
	return m(inst, args...)
}

// Mixin returns the handle for the mixin registered under id. Unknown ids are
// reported when the handle is invoked.
func (inst *Instance) Mixin(id string) Handle {
	return Handle{inst: inst, id: id}
}
