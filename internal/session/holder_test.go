package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granjapro/granja/internal/domain"
)

func TestHolderLifecycle(t *testing.T) {
	h := NewHolder()
	assert.False(t, h.IsAuthenticated())
	assert.False(t, h.HasRole(domain.RoleAdmin))
	assert.Equal(t, Unauthenticated, h.DisplayName())
	_, ok := h.Current()
	assert.False(t, ok)

	alice := domain.Identity{ID: "u1", Name: "alice", Role: domain.RoleOperator, Active: true}
	require.NoError(t, h.Start(alice))
	assert.True(t, h.IsAuthenticated())
	assert.True(t, h.HasRole(domain.RoleOperator))
	assert.False(t, h.HasRole(domain.RoleAdmin))
	assert.Equal(t, "alice", h.DisplayName())

	cur, ok := h.Current()
	require.True(t, ok)
	cur.Role = domain.RoleAdmin
	assert.False(t, h.HasRole(domain.RoleAdmin), "Current must return a copy")

	h.End()
	h.End()
	assert.False(t, h.IsAuthenticated())
	assert.Equal(t, Unauthenticated, h.DisplayName())
}

func TestHolderRejectsInvalidIdentities(t *testing.T) {
	h := NewHolder()

	assert.ErrorIs(t, h.Start(domain.Identity{}), domain.ErrInvalidSession)
	assert.ErrorIs(t, h.Start(domain.Identity{ID: "u1", Name: "bob", Role: domain.RoleAdmin}), domain.ErrInvalidSession)
	assert.False(t, h.IsAuthenticated())

	// A failed start leaves an existing session in place.
	root := domain.Identity{ID: "u0", Name: "root", Role: domain.RoleAdmin, Active: true}
	require.NoError(t, h.Start(root))
	assert.Error(t, h.Start(domain.Identity{ID: "u1", Name: "bob"}))
	assert.Equal(t, "root", h.DisplayName())
}

func TestHolderConcurrentAccess(t *testing.T) {
	h := NewHolder()
	id := domain.Identity{ID: "u1", Name: "alice", Role: domain.RoleOperator, Active: true}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = h.Start(id)
			h.End()
		}()
		go func() {
			defer wg.Done()
			name := h.DisplayName()
			if name != Unauthenticated && name != "alice" {
				t.Errorf("unexpected display name %q", name)
			}
		}()
	}
	wg.Wait()
}
