package session

import "sync"

// Registry tracks live sessions by session ID. Insertion on connect and
// removal on teardown are atomic with respect to lookups from the transport
// layer.
//
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Handler)}
}

// Add registers a session. Returns false if the ID is already present.
func (r *Registry) Add(id string, h *Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return false
	}
	r.sessions[id] = h
	return true
}

// Remove deletes a session. Removing an absent ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get returns the session for id, or nil.
func (r *Registry) Get(id string) *Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown signals disconnect to every live session. Used on server
// shutdown so sessions flush their artifacts.
func (r *Registry) Shutdown() {
	r.mu.RLock()
	handlers := make([]*Handler, 0, len(r.sessions))
	for _, h := range r.sessions {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		h.Disconnect()
	}
}
