// Package session holds the identity currently logged in to a running process.
package session

import (
	"fmt"
	"sync"

	"github.com/granjapro/granja/internal/domain"
)

// Unauthenticated is what DisplayName returns while nobody is logged in.
const Unauthenticated = "unauthenticated"

// Holder is a single-slot session: empty, or holding one active identity.
// It is safe for concurrent use.
type Holder struct {
	mu      sync.RWMutex
	current *domain.Identity
}

func NewHolder() *Holder {
	return &Holder{}
}

// Start replaces the session with identity, which must be a stored, active identity.
func (h *Holder) Start(identity domain.Identity) error {
	if identity.ID == "" {
		return fmt.Errorf("%w: identity has no id", domain.ErrInvalidSession)
	}
	if !identity.Active {
		return fmt.Errorf("%w: identity %s is inactive", domain.ErrInvalidSession, identity.Name)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = &identity
	return nil
}

// End clears the session. It is idempotent.
func (h *Holder) End() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = nil
}

func (h *Holder) IsAuthenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current != nil
}

// Current returns a copy of the session identity.
func (h *Holder) Current() (domain.Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return domain.Identity{}, false
	}
	return *h.current, true
}

// HasRole is false while the session is empty.
func (h *Holder) HasRole(r domain.Role) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current != nil && h.current.HasRole(r)
}

func (h *Holder) DisplayName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return Unauthenticated
	}
	return h.current.Name
}
