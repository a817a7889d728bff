package bridge

import (
	"slices"
	"sync"
	"time"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/errors"
)

// Request is a deferred resource load awaiting completion.
type Request struct {
	Issued time.Time
	URI    string
	ID     windowless.RequestID
}

// EventType identifies a pending request lifecycle step.
type EventType uint8

const (
	EventTracked EventType = iota
	EventCompleted
	EventCancelled
)

func (t EventType) String() string {
	switch t {
	case EventTracked:
		return "tracked"
	case EventCompleted:
		return "completed"
	case EventCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Event is a pending request lifecycle notification.
type Event struct {
	Request Request
	Type    EventType
}

// Observer receives pending request lifecycle events. Observers run
// synchronously on the goroutine that caused the event and must not call
// back into the table.
type Observer interface {
	OnPendingEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnPendingEvent(e Event) { f(e) }

// PendingTable tracks deferred resource loads by request id. Unlike the
// rest of a session it is safe for concurrent use, so completions can be
// delivered from whichever goroutine produced the data.
type PendingTable struct {
	now       func() time.Time
	reqs      map[windowless.RequestID]Request
	observers []Observer
	mu        sync.Mutex
	obsMu     sync.RWMutex
}

// NewPendingTable creates an empty table.
func NewPendingTable() *PendingTable {
	return &PendingTable{
		now:  time.Now,
		reqs: make(map[windowless.RequestID]Request),
	}
}

// Track registers a deferred request. Tracking an id that is already
// pending fails.
func (t *PendingTable) Track(id windowless.RequestID, uri string) error {
	t.mu.Lock()
	if _, ok := t.reqs[id]; ok {
		t.mu.Unlock()
		return errors.New(errors.PhaseCallback, errors.KindInvalidInput).
			Value(uint64(id)).
			Detail("request %d is already pending", id).
			Build()
	}
	req := Request{ID: id, URI: uri, Issued: t.now()}
	t.reqs[id] = req
	t.mu.Unlock()

	t.notify(Event{Type: EventTracked, Request: req})
	return nil
}

// Resolve removes a pending request for completion. Exactly one Resolve
// succeeds per tracked id; later calls fail with errors.KindUnknownRequest.
func (t *PendingTable) Resolve(id windowless.RequestID) (Request, error) {
	req, err := t.remove(id)
	if err != nil {
		return Request{}, err
	}
	t.notify(Event{Type: EventCompleted, Request: req})
	return req, nil
}

// Cancel removes a pending request without completing it.
func (t *PendingTable) Cancel(id windowless.RequestID) (Request, error) {
	req, err := t.remove(id)
	if err != nil {
		return Request{}, err
	}
	t.notify(Event{Type: EventCancelled, Request: req})
	return req, nil
}

func (t *PendingTable) remove(id windowless.RequestID) (Request, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	req, ok := t.reqs[id]
	if !ok {
		return Request{}, errors.New(errors.PhaseComplete, errors.KindUnknownRequest).
			Value(uint64(id)).
			Detail("request %d is not pending", id).
			Build()
	}
	delete(t.reqs, id)
	return req, nil
}

// Get returns a pending request without removing it.
func (t *PendingTable) Get(id windowless.RequestID) (Request, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	req, ok := t.reqs[id]
	return req, ok
}

// Len returns the number of pending requests.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.reqs)
}

// IDs returns the pending request ids in ascending order.
func (t *PendingTable) IDs() []windowless.RequestID {
	t.mu.Lock()
	ids := make([]windowless.RequestID, 0, len(t.reqs))
	for id := range t.reqs {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Clear cancels every pending request.
func (t *PendingTable) Clear() {
	// Collect first so observers run without the table lock.
	for _, id := range t.IDs() {
		_, _ = t.Cancel(id)
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *PendingTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer. Only comparable observers (pointers,
// not ObserverFunc values) can be unsubscribed.
func (t *PendingTable) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *PendingTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnPendingEvent(e)
	}
}
