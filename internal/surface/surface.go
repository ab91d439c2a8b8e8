// Package surface tracks the host screen currently in the foreground. The
// registry never owns a surface: the host sets it on foreground and clears
// it on background.
package surface

import (
	"sync"

	"github.com/ninjabase8085/pushapp/internal/inapp"
)

// Surface is a host screen that can show in-app content.
type Surface interface {
	// Name identifies the screen in page_open and page_closed events.
	Name() string
	// Dispatch runs fn on the host's UI context.
	Dispatch(fn func())
	// Render shows content. It is only called from a Dispatch callback.
	Render(c inapp.Content) error
}

// Registry holds at most one foreground surface.
type Registry struct {
	mu      sync.RWMutex
	current Surface
}

// Set registers s as the foreground surface, replacing any previous one.
func (r *Registry) Set(s Surface) {
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
}

// Clear removes the foreground surface and returns it, or nil.
func (r *Registry) Clear() Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.current
	r.current = nil
	return s
}

// ClearIf removes s only if it is still the foreground surface.
func (r *Registry) ClearIf(s Surface) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != s {
		return false
	}
	r.current = nil
	return true
}

// Current returns the foreground surface, or nil.
func (r *Registry) Current() Surface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
