// Package postgres provides a Postgres-backed user store that mirrors the
// in-memory semantics, hydrating from the users table on startup and writing
// each mutation through before it becomes visible.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"usersapi/internal/infra/persistence/memory"
	"usersapi/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/usersapi?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists users to Postgres while serving reads from memory.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to defaultDSN).
// It ensures the users table exists and hydrates the in-memory cache from it.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureUsersTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

func ensureUsersTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM users`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan users: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		var u domain.User
		if err := json.Unmarshal(payload, &u); err != nil {
			return memory.Snapshot{}, fmt.Errorf("decode user %s: %w", id, err)
		}
		u.ID = id
		snapshot.Users = append(snapshot.Users, u)
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate users: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context, u domain.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user %s: %w", u.ID, err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO users(id,payload) VALUES($1,$2) ON CONFLICT(id) DO UPDATE SET payload=EXCLUDED.payload`, u.ID, data); err != nil {
		return fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return nil
}

// CreateUser inserts the new row, caching it only after the write succeeded.
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

// UpdateUser merges patch over the cached row and writes it through.
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

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
