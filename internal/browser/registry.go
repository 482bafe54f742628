package browser

import (
	"fmt"
	"log"
	"sync"
)

// Registry is the ordered collection of live top-level windows. It has an
// explicit lifecycle owned by the application object; nothing reaches for
// an ambient global. Windows are registered in creation order and their
// 1-based position drives display numbering.
type Registry struct {
	mu      sync.RWMutex
	windows []*Window
	change  func()
}

func NewRegistry() *Registry {
	return &Registry{}
}

// SetChangeHook installs the callback fired after every registration
// change. The application wires this to the menu synchronizer.
func (r *Registry) SetChangeHook(fn func()) {
	r.mu.Lock()
	r.change = fn
	r.mu.Unlock()
}

// Register tracks a window and fires the change hook. No two live windows
// may share an identifier.
func (r *Registry) Register(w *Window) error {
	r.mu.Lock()
	for _, existing := range r.windows {
		if existing.ID() == w.ID() {
			r.mu.Unlock()
			return fmt.Errorf("window '%s' already registered", w.ID())
		}
	}
	r.windows = append(r.windows, w)
	count := len(r.windows)
	fn := r.change
	r.mu.Unlock()

	log.Printf("[REGISTRY] Registered window id=%s count=%d", w.ID(), count)
	if fn != nil {
		fn()
	}
	return nil
}

// Unregister removes a destroyed window and fires the change hook. Calling
// it for an unknown window is a no-op.
func (r *Registry) Unregister(w *Window) {
	r.mu.Lock()
	removed := false
	for i, existing := range r.windows {
		if existing == w {
			r.windows = append(r.windows[:i], r.windows[i+1:]...)
			removed = true
			break
		}
	}
	count := len(r.windows)
	fn := r.change
	r.mu.Unlock()

	if !removed {
		return
	}
	log.Printf("[REGISTRY] Unregistered window id=%s count=%d", w.ID(), count)
	if fn != nil {
		fn()
	}
}

// IndexOf returns the 1-based position of a window, or 0 when it is not
// registered. Positions are recomputed from current order on every call,
// never cached, so numbering stays gap-free after removals.
func (r *Registry) IndexOf(w *Window) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, existing := range r.windows {
		if existing == w {
			return i + 1
		}
	}
	return 0
}

// Windows returns a snapshot of the registered windows in display order.
func (r *Registry) Windows() []*Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Window{}, r.windows...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// ByID finds a registered window by identifier.
func (r *Registry) ByID(id string) *Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.windows {
		if w.ID() == id {
			return w
		}
	}
	return nil
}

// BestForActivation picks the window a second launch should bring to the
// front: the currently focused window if any, else the first registered.
func (r *Registry) BestForActivation() *Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.windows {
		if w.IsActive() {
			return w
		}
	}
	if len(r.windows) > 0 {
		return r.windows[0]
	}
	return nil
}

// Shutdown drops all registrations without firing the change hook; the
// application is tearing down and menus no longer matter.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.windows = nil
	r.mu.Unlock()
}
