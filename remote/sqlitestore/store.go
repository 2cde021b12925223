// Package sqlitestore provides a SQLite-backed remote.Store. Documents are
// JSON bodies keyed by (collection, id); fetch order is insertion order.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/parkcache/record"
	"github.com/unkn0wn-root/parkcache/remote"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	UNIQUE (collection, id)
)`

// Store persists documents in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var (
	_ remote.Store  = (*Store)(nil)
	_ remote.Seeder = (*Store)(nil)
)

// Open opens a SQLite document store and creates its table.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func encodeBody(r record.Record) (string, error) {
	body := r.Clone()
	delete(body, record.IDField)
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func decodeBody(id, body string) (record.Record, error) {
	var r record.Record
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("decode document %q: %w", id, err)
	}
	return r.WithID(id), nil
}

// FetchCollection returns all documents of a collection in insertion order.
func (s *Store) FetchCollection(ctx context.Context, name string) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE collection = ? ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", name, err)
	}
	defer rows.Close()

	out := []record.Record{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan %q: %w", name, err)
		}
		r, err := decodeBody(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %q: %w", name, err)
	}
	return out, nil
}

// GetRecord loads one document.
func (s *Store) GetRecord(ctx context.Context, name, id string) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var body string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, name, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", name, id, remote.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", name, id, err)
	}
	return decodeBody(id, body)
}

// CreateRecord inserts a document with a new id.
func (s *Store) CreateRecord(ctx context.Context, name string, fields record.Record) (string, error) {
	id := uuid.NewString()
	if err := s.put(ctx, name, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

// Put stores a document under an explicit id, replacing any existing body
// but keeping its position. Used for seeding.
func (s *Store) Put(ctx context.Context, name string, r record.Record) (string, error) {
	id := r.ID()
	if id == "" {
		id = uuid.NewString()
	}
	return id, s.put(ctx, name, id, r)
}

// Seed stores docs in one transaction.
func (s *Store) Seed(ctx context.Context, name string, docs []record.Record) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, d := range docs {
		id := d.ID()
		if id == "" {
			id = uuid.NewString()
		}
		body, err := encodeBody(d.ResolveTimestamps(s.now()))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upsertSQL, name, id, body); err != nil {
			return fmt.Errorf("seed %s/%s: %w", name, id, err)
		}
	}
	return tx.Commit()
}

const upsertSQL = `INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
	ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body`

func (s *Store) put(ctx context.Context, name, id string, fields record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := encodeBody(fields.ResolveTimestamps(s.now()))
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx, upsertSQL, name, id, body)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", name, id, err)
	}
	return nil
}

// UpdateRecord merges patch into an existing document.
func (s *Store) UpdateRecord(ctx context.Context, name, id string, patch record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, name, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%s: %w", name, id, remote.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load %s/%s: %w", name, id, err)
	}
	cur, err := decodeBody(id, body)
	if err != nil {
		return err
	}
	for k, v := range patch.ResolveTimestamps(s.now()) {
		if k == record.IDField {
			continue
		}
		cur[k] = v
	}
	next, err := encodeBody(cur)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ? WHERE collection = ? AND id = ?`, next, name, id); err != nil {
		return fmt.Errorf("update %s/%s: %w", name, id, err)
	}
	return tx.Commit()
}

// DeleteRecord removes a document. Deleting a missing document is not an error.
func (s *Store) DeleteRecord(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, name, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", name, id, err)
	}
	return nil
}
