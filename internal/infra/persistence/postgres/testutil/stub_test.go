package testutil

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
)

func TestStubConnUpsertsAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	upsert := "INSERT INTO users (id, payload) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload"
	for _, payload := range []string{`{"age":1}`, `{"age":2}`} {
		if _, err := conn.ExecContext(ctx, upsert, []driver.NamedValue{{Value: "u-1"}, {Value: payload}}); err != nil {
			t.Fatalf("ExecContext upsert: %v", err)
		}
	}
	rows := conn.Rows("users")
	if len(rows) != 1 || rows[0]["payload"] != `{"age":2}` {
		t.Fatalf("expected upsert to replace row, got %v", rows)
	}

	if _, err := conn.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS users (id TEXT)", nil); err != nil {
		t.Fatalf("ExecContext ddl: %v", err)
	}
	if len(conn.Execs) != 3 {
		t.Fatalf("expected executed statements recorded, got %v", conn.Execs)
	}

	conn.Seed("users", map[string]any{"id": "u-2", "payload": `{}`})
	result, err := conn.QueryContext(ctx, "SELECT id, payload FROM users ORDER BY id", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer func() { _ = result.Close() }()
	if cols := result.Columns(); len(cols) != 2 || cols[0] != "id" {
		t.Fatalf("unexpected columns %v", cols)
	}
	dest := make([]driver.Value, 2)
	var ids []any
	for {
		if err := result.Next(dest); err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("Next: %v", err)
			}
			break
		}
		ids = append(ids, dest[0])
	}
	if len(ids) != 2 || ids[0] != "u-1" || ids[1] != "u-2" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestStubConnFailures(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	conn.FailPing = true
	if err := conn.Ping(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}

	conn.FailTables = map[string]bool{"users": true}
	if _, err := conn.ExecContext(ctx, "INSERT INTO users (id) VALUES ($1)", []driver.NamedValue{{Value: "x"}}); err == nil {
		t.Fatalf("expected table failure on insert")
	}
	if _, err := conn.QueryContext(ctx, "SELECT id FROM users", nil); err == nil {
		t.Fatalf("expected table failure on select")
	}
	conn.FailTables = nil

	if _, err := conn.ExecContext(ctx, "INSERT INTO users (id, payload) VALUES ($1)", []driver.NamedValue{{Value: "x"}}); err == nil {
		t.Fatalf("expected column/arg mismatch")
	}
	if _, err := conn.ExecContext(ctx, "INSERT INTO users VALUES", nil); err == nil {
		t.Fatalf("expected insert parse error")
	}
	if _, err := conn.QueryContext(ctx, "DELETE FROM users", nil); err == nil {
		t.Fatalf("expected select parse error")
	}

	conn.FailExec = true
	if _, err := conn.ExecContext(ctx, "CREATE TABLE x (id TEXT)", nil); err == nil {
		t.Fatalf("expected exec failure")
	}
	conn.FailExec = false

	conn.RowsErr = errors.New("cursor broke")
	rows, err := conn.QueryContext(ctx, "SELECT id FROM users", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	if err := rows.Next(make([]driver.Value, 1)); err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected rows error, got %v", err)
	}

	tx, err := conn.Begin()
	if err != nil || tx.Commit() != nil || tx.Rollback() != nil {
		t.Fatalf("expected no-op transaction")
	}
	if _, err := conn.Prepare("SELECT 1"); err == nil {
		t.Fatalf("expected Prepare to be unsupported")
	}
}
