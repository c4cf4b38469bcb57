package speechd

import (
	"fmt"
	"sync"
)

// EventFunc handles a begin, end, cancel, pause or resume notification.
type EventFunc func(msgID, clientID uint64)

// IndexMarkFunc handles an index mark notification.
type IndexMarkFunc func(msgID, clientID uint64, mark string)

// Event is a notification routed through a Registry.
type Event struct {
	Kind      EventKind
	MessageID uint64
	ClientID  uint64
	// Mark is set for EventIndexMark only.
	Mark string
}

// Callbacks holds at most one handler per event kind. Nil fields are allowed.
type Callbacks struct {
	Begin     EventFunc
	End       EventFunc
	Cancel    EventFunc
	Pause     EventFunc
	Resume    EventFunc
	IndexMark IndexMarkFunc
}

func (cb *Callbacks) slot(kind EventKind) *EventFunc {
	switch kind {
	case EventBegin:
		return &cb.Begin
	case EventEnd:
		return &cb.End
	case EventCancel:
		return &cb.Cancel
	case EventPause:
		return &cb.Pause
	case EventResume:
		return &cb.Resume
	}
	return nil
}

// Registry maps client ids to their callbacks. Connections sharing a Registry
// share one lock; notification delivery may run concurrently with registration.
//
// Handlers are invoked after the lock is released, so a handler may register or
// clear handlers, or close its connection.
type Registry struct {
	mu      sync.Mutex
	entries map[uint64]*Callbacks
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint64]*Callbacks)}
}

// Len returns the number of registered client ids.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Has reports whether clientID has an entry.
func (r *Registry) Has(clientID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[clientID]
	return ok
}

// add creates an empty entry for clientID, replacing any stale one.
func (r *Registry) add(clientID uint64) {
	r.mu.Lock()
	r.entries[clientID] = &Callbacks{}
	r.mu.Unlock()
}

func (r *Registry) remove(clientID uint64) {
	r.mu.Lock()
	delete(r.entries, clientID)
	r.mu.Unlock()
}

// setEvent replaces the handler for kind. It reports false if clientID has no entry.
func (r *Registry) setEvent(clientID uint64, kind EventKind, f EventFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.entries[clientID]
	if !ok {
		return false
	}
	slot := cb.slot(kind)
	if slot == nil {
		panic(fmt.Sprintf("speechd: %v has no simple event slot", kind))
	}
	*slot = f
	return true
}

func (r *Registry) setIndexMark(clientID uint64, f IndexMarkFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.entries[clientID]
	if !ok {
		return false
	}
	cb.IndexMark = f
	return true
}

// Dispatch delivers ev to the handler registered for its client id and kind.
// Events for unknown client ids or empty slots are dropped. An unknown kind means
// the event mapping is out of sync with the daemon and panics.
func (r *Registry) Dispatch(ev Event) {
	if ev.Kind < EventBegin || ev.Kind > EventIndexMark {
		panic(fmt.Sprintf("speechd: unknown notification kind %d", int(ev.Kind)))
	}

	r.mu.Lock()
	cb, ok := r.entries[ev.ClientID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if ev.Kind == EventIndexMark {
		f := cb.IndexMark
		r.mu.Unlock()
		if f != nil {
			f(ev.MessageID, ev.ClientID, ev.Mark)
		}
		return
	}
	f := *cb.slot(ev.Kind)
	r.mu.Unlock()

	if f != nil {
		f(ev.MessageID, ev.ClientID)
	}
}
