package registry

import (
	"sync"

	"github.com/ujjwalshri/CodeColab/internal/models"
)

// Registry tracks the identity announced by each live connection. Identities
// are never validated for uniqueness; two connections may well claim the same
// username.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]models.Identity
}

func New() *Registry {
	return &Registry{conns: make(map[string]models.Identity)}
}

// Register records a connection with an empty identity. The user id defaults
// to the connection id until the client announces itself.
func (r *Registry) Register(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[connID]; !exists {
		r.conns[connID] = models.Identity{UserID: connID}
	}
}

// SetIdentity stores the announced identity for a connection. An empty user
// id keeps the connection-id default. Setting identity on an unknown
// connection registers it.
func (r *Registry) SetIdentity(connID, userID, username string) {
	if userID == "" {
		userID = connID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = models.Identity{UserID: userID, Username: username}
}

// Lookup returns the identity for a connection, ok=false when unknown.
func (r *Registry) Lookup(connID string) (models.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.conns[connID]
	return id, ok
}

// Unregister forgets a connection. Unknown ids are a no-op.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
