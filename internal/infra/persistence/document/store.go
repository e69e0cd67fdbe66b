// Package document stores every user in a single JSON array kept in a blob
// store (a local file by default). Each operation re-reads the document and
// mutations write the whole document back, so two concurrent updates can
// lose one another's changes: last write wins.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	blobcore "usersapi/internal/infra/blob/core"
	"usersapi/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// DefaultKey names the document when none is configured.
const DefaultKey = "users.json"

const contentType = "application/json"

// Store is a domain.PersistentStore over one blob holding all users.
type Store struct {
	blobs blobcore.Store
	key   string
	newID func() string
}

// NewStore wraps blobs, creating an empty document under key when missing.
func NewStore(ctx context.Context, blobs blobcore.Store, key string) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("document store requires a blob store")
	}
	if key == "" {
		key = DefaultKey
	}
	s := &Store{blobs: blobs, key: key, newID: uuid.NewString}
	if _, err := s.read(ctx); err != nil {
		if !errors.Is(err, blobcore.ErrNotFound) {
			return nil, err
		}
		if err := s.write(ctx, []domain.User{}); err != nil {
			return nil, fmt.Errorf("initialise %s: %w", key, err)
		}
	}
	return s, nil
}

// Key returns the blob key of the document.
func (s *Store) Key() string { return s.key }

func (s *Store) read(ctx context.Context) ([]domain.User, error) {
	_, rc, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []domain.User{}, nil
	}
	var users []domain.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *Store) write(ctx context.Context, users []domain.User) error {
	raw, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if _, err := s.blobs.Put(ctx, s.key, bytes.NewReader(raw), blobcore.PutOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

// ListUsers returns every user in document order.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.read(ctx)
}

// GetUser returns the first user whose id matches.
func (s *Store) GetUser(ctx context.Context, id string) (domain.User, bool, error) {
	users, err := s.read(ctx)
	if err != nil {
		return domain.User{}, false, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

// CreateUser appends a user with a fresh id and rewrites the document.
func (s *Store) CreateUser(ctx context.Context, in domain.UserInput) (domain.User, error) {
	users, err := s.read(ctx)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.NewUser(s.newID(), in)
	if err := s.write(ctx, append(users, u)); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// UpdateUser merges patch over the matching user and rewrites the document.
func (s *Store) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.User, bool, error) {
	users, err := s.read(ctx)
	if err != nil {
		return domain.User{}, false, err
	}
	for i, u := range users {
		if u.ID != id {
			continue
		}
		users[i] = u.Apply(patch)
		if err := s.write(ctx, users); err != nil {
			return domain.User{}, false, err
		}
		return users[i], true, nil
	}
	return domain.User{}, false, nil
}

// Close is a no-op; the blob store owns no long-lived handle.
func (s *Store) Close() error { return nil }
