package domain

import "context"

// UserStore is the persistence gateway consumed by the HTTP layer. Absence
// of a record is reported through the boolean result, never as an error.
// Implementations make no atomicity promise across separate calls.
type UserStore interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (User, bool, error)
	CreateUser(ctx context.Context, in UserInput) (User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (User, bool, error)
}

// PersistentStore is a UserStore owning a durable resource that must be
// released on shutdown.
type PersistentStore interface {
	UserStore
	Close() error
}
