package blueprint

import (
	"fmt"
	"sync"

	"github.com/teranos/lineage/logger"
	"go.uber.org/zap"
)

// Event is one hook notification observed while building or running a graph.
type Event struct {
	Hook string
	// Owner is the type whose hook ran.
	Owner string
	// Target is the decorated type, or the instance's type for lifecycle hooks.
	Target string
	// Mixture is set for extended hooks reached through mixin merge only.
	Mixture bool
}

func (e Event) String() string {
	switch e.Hook {
	case HookConstruct, HookDestroy:
		return fmt.Sprintf("%s(%s@%s)", e.Hook, e.Owner, e.Target)
	default:
		s := fmt.Sprintf("%s(%s,%s)", e.Hook, e.Owner, e.Target)
		if e.Mixture {
			s += "[mixture]"
		}
		return s
	}
}

// Recorder collects events in the order hooks fire. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	log    *zap.SugaredLogger
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{log: logger.ComponentLogger("blueprint")}
}

// Record appends an event.
func (r *Recorder) Record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()

	r.log.Debugw("hook",
		logger.FieldHook, e.Hook,
		logger.FieldType, e.Owner,
		"target", e.Target,
		"mixture", e.Mixture)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Strings renders the recorded events.
func (r *Recorder) Strings() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.String()
	}
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
