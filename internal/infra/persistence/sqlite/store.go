// Package sqlite provides a SQLite-backed user store. Rows are hydrated into
// an in-memory cache on open and written through on every mutation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"usersapi/internal/infra/persistence/memory"
	"usersapi/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const defaultPath = "./data/users.db"

// Store persists each user as a JSON row while serving reads from memory.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the SQLite database at path and loads
// every stored user.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT id, payload FROM users ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("select users: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var snapshot memory.Snapshot
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		var u domain.User
		if err := json.Unmarshal(payload, &u); err != nil {
			return fmt.Errorf("decode user %s: %w", id, err)
		}
		u.ID = id
		snapshot.Users = append(snapshot.Users, u)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate users: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist(ctx context.Context, u domain.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user %s: %w", u.ID, err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO users(id,payload) VALUES(?,?) ON CONFLICT(id) DO UPDATE SET payload=excluded.payload`, u.ID, data); err != nil {
		return fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return nil
}

// CreateUser writes the new row first and caches it only once the write succeeded.
func (s *Store) CreateUser(ctx context.Context, in domain.UserInput) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domain.NewUser(s.NewID(), in)
	if err := s.persist(ctx, u); err != nil {
		return domain.User{}, err
	}
	s.Upsert(u)
	return u, nil
}

// UpdateUser merges patch over the cached row, writes it, then refreshes the cache.
func (s *Store) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok, err := s.GetUser(ctx, id)
	if err != nil || !ok {
		return domain.User{}, ok, err
	}
	updated := current.Apply(patch)
	if err := s.persist(ctx, updated); err != nil {
		return domain.User{}, false, err
	}
	s.Upsert(updated)
	return updated, true, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
