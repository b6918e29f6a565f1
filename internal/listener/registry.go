package listener

import (
	"fmt"
	"log/slog"
	"sync"

	"alertengine/internal/domain"
)

// Func handles one alert lifecycle change.
// Params: change payload.
// Returns: error is logged by the registry, never propagated.
type Func func(change domain.Change) error

// Subscription is a first-class handle for one registered listener.
// Params: owning registry and registration id.
// Returns: cancellable registration.
type Subscription struct {
	registry *Registry
	id       uint64
	once     sync.Once
}

// Cancel removes the listener from the registry.
// Params: none.
// Returns: none, safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.registry == nil {
		return
	}
	s.once.Do(func() {
		s.registry.remove(s.id)
	})
}

type entry struct {
	id   uint64
	name string
	fn   Func
}

// Registry fans lifecycle changes out to registered listeners.
// Params: copy-on-write listener list guarded for concurrent registration.
// Returns: in-process pub/sub for alert lifecycle events.
type Registry struct {
	mu      sync.Mutex
	entries []entry
	nextID  uint64
	logger  *slog.Logger
}

// NewRegistry creates an empty listener registry.
// Params: logger for listener failure reports.
// Returns: initialized registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Subscribe registers one listener.
// Params: listener name for failure logs and handler function.
// Returns: subscription handle for deterministic unsubscription.
func (r *Registry) Subscribe(name string, fn Func) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	next := make([]entry, 0, len(r.entries)+1)
	next = append(next, r.entries...)
	next = append(next, entry{id: id, name: name, fn: fn})
	r.entries = next
	return &Subscription{registry: r, id: id}
}

// Notify delivers one change to every listener, isolating failures.
// Params: change payload.
// Returns: none, listener errors and panics are logged and swallowed.
func (r *Registry) Notify(change domain.Change) {
	r.mu.Lock()
	snapshot := r.entries
	r.mu.Unlock()

	for _, listener := range snapshot {
		r.invoke(listener, change)
	}
}

// invoke runs one listener with panic isolation.
// Params: listener entry and change payload.
// Returns: none.
func (r *Registry) invoke(listener entry, change domain.Change) {
	defer func() {
		if recovered := recover(); recovered != nil && r.logger != nil {
			r.logger.Error("alert listener panicked",
				"listener", listener.name,
				"kind", string(change.Kind),
				"panic", fmt.Sprintf("%v", recovered))
		}
	}()
	if err := listener.fn(change); err != nil && r.logger != nil {
		r.logger.Error("alert listener failed",
			"listener", listener.name,
			"kind", string(change.Kind),
			"error", err.Error())
	}
}

// remove drops one listener by registration id.
// Params: registration id.
// Returns: none.
func (r *Registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]entry, 0, len(r.entries))
	for _, listener := range r.entries {
		if listener.id != id {
			next = append(next, listener)
		}
	}
	r.entries = next
}
