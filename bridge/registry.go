package bridge

import (
	"maps"
	"sort"
	"sync"
	"sync/atomic"
)

// Handlers is an immutable snapshot of the handlers registered for one
// window. Nil fields mean no handler.
type Handlers struct {
	DataLoad   DataLoadHandler
	Native     NativeInvocationHandler
	Invalidate InvalidateHandler
	Draw       map[string]DrawHandler
}

// Registry holds the current Handlers for a window. Readers take a
// snapshot without locking; writers copy the current snapshot, modify the
// copy and publish it. A handler may therefore replace itself, or any other
// handler, while it is running; the change is seen by the next callback.
type Registry struct {
	cur atomic.Pointer[Handlers]
	mu  sync.Mutex // serializes writers
}

// NewRegistry returns a registry with no handlers.
func NewRegistry() *Registry {
	r := &Registry{}
	r.cur.Store(&Handlers{})
	return r
}

// Snapshot returns the handlers as of now. The result must not be
// modified.
func (r *Registry) Snapshot() *Handlers {
	return r.cur.Load()
}

func (r *Registry) update(fn func(h *Handlers)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := *r.cur.Load()
	fn(&next)
	r.cur.Store(&next)
}

// SetDataLoad replaces the data-load handler. nil removes it.
func (r *Registry) SetDataLoad(h DataLoadHandler) {
	r.update(func(hs *Handlers) { hs.DataLoad = h })
}

// SetNativeInvocation replaces the native-invocation handler. nil removes it.
func (r *Registry) SetNativeInvocation(h NativeInvocationHandler) {
	r.update(func(hs *Handlers) { hs.Native = h })
}

// SetInvalidate replaces the invalidate handler. nil removes it.
func (r *Registry) SetInvalidate(h InvalidateHandler) {
	r.update(func(hs *Handlers) { hs.Invalidate = h })
}

// SetDraw binds h to a behavior name and reports whether the name was new.
// nil removes the binding.
func (r *Registry) SetDraw(name string, h DrawHandler) (added bool) {
	r.update(func(hs *Handlers) {
		draw := maps.Clone(hs.Draw)
		if draw == nil {
			draw = make(map[string]DrawHandler)
		}
		_, existed := draw[name]
		if h == nil {
			delete(draw, name)
		} else {
			draw[name] = h
			added = !existed
		}
		hs.Draw = draw
	})
	return added
}

// Draw returns the handler bound to name.
func (r *Registry) Draw(name string) (DrawHandler, bool) {
	h, ok := r.Snapshot().Draw[name]
	return h, ok
}

// Behaviors returns the bound behavior names in order.
func (r *Registry) Behaviors() []string {
	draw := r.Snapshot().Draw
	names := make([]string, 0, len(draw))
	for name := range draw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
