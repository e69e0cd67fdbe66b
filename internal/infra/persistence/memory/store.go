// Package memory provides an in-memory implementation of the user store used
// for tests, ephemeral environments, and as the hydrated cache behind the
// SQL-backed stores.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"usersapi/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// User aliases domain.User for in-memory persistence operations.
	User = domain.User
	// UserInput aliases domain.UserInput.
	UserInput = domain.UserInput
	// UserPatch aliases domain.UserPatch.
	UserPatch = domain.UserPatch
)

// Snapshot captures a point-in-time clone of the store state in insertion order.
type Snapshot struct {
	Users []User `json:"users"`
}

// Store keeps users in a map and remembers insertion order so listings are
// stable. The mutex guards the map itself; it is never held across calls.
type Store struct {
	mu    sync.RWMutex
	users map[string]User
	order []string
	newID func() string
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]User),
		newID: uuid.NewString,
	}
}

// NewID returns a fresh identifier from the store's generator.
func (s *Store) NewID() string {
	return s.newID()
}

// ListUsers returns clones of every stored user.
func (s *Store) ListUsers(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.users[id].Clone())
	}
	return out, nil
}

// GetUser returns the user with id, or false when absent.
func (s *Store) GetUser(_ context.Context, id string) (User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, false, nil
	}
	return u.Clone(), true, nil
}

// CreateUser assigns a new identifier and stores the user.
func (s *Store) CreateUser(_ context.Context, in UserInput) (User, error) {
	u := domain.NewUser(s.newID(), in)
	s.Upsert(u)
	return u.Clone(), nil
}

// UpdateUser shallow-merges patch over the stored user. Unknown ids are
// reported as absent and never create a record.
func (s *Store) UpdateUser(_ context.Context, id string, patch UserPatch) (User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[id]
	if !ok {
		return User{}, false, nil
	}
	updated := current.Apply(patch)
	s.users[id] = updated
	return updated.Clone(), true, nil
}

// Upsert stores u as-is, appending it to the listing order when new.
// Write-through backends call it only after their durable write succeeded.
func (s *Store) Upsert(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; !exists {
		s.order = append(s.order, u.ID)
	}
	s.users[u.ID] = u.Clone()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.users[id].Clone())
	}
	return Snapshot{Users: users}
}

// ImportState replaces the store state with the provided snapshot. Records
// without an identifier are skipped; a repeated identifier keeps the last copy.
func (s *Store) ImportState(snapshot Snapshot) {
	users := make(map[string]User, len(snapshot.Users))
	order := make([]string, 0, len(snapshot.Users))
	for _, u := range snapshot.Users {
		if u.ID == "" {
			continue
		}
		if _, seen := users[u.ID]; !seen {
			order = append(order, u.ID)
		}
		users[u.ID] = u.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.order = order
}

// Close is a no-op; the store holds no external resources.
func (s *Store) Close() error { return nil }
