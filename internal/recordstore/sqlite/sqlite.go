// Package sqlite implements the record store on a local SQLite file. It is
// the driver for single-box deployments and for tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/flatmate/flatmate-backend/internal/recordstore"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode for better read concurrency.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS records (
    parent     TEXT NOT NULL,
    key        TEXT NOT NULL,
    doc        TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (parent, key)
);
CREATE INDEX IF NOT EXISTS idx_records_parent ON records(parent);
`

// EnsureSchema creates the records table when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaDDL)
	return err
}

// New constructs a sqlite-backed record store. watchInterval controls the
// poll cadence of Watch subscriptions.
func New(db *sql.DB, watchInterval time.Duration, log zerolog.Logger) recordstore.Store {
	if watchInterval <= 0 {
		watchInterval = time.Second
	}
	return &store{db: db, watchInterval: watchInterval, log: log}
}

type store struct {
	db            *sql.DB
	watchInterval time.Duration
	log           zerolog.Logger
}

func (s *store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	var exact []byte
	if parent, key, ok := recordstore.SplitRecordPath(path); ok {
		var doc string
		err := s.db.QueryRowContext(ctx,
			`SELECT doc FROM records WHERE parent=? AND key=?`, parent, key).Scan(&doc)
		switch err {
		case nil:
			exact = []byte(doc)
		case sql.ErrNoRows:
		default:
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT parent, key, doc FROM records WHERE parent=? OR parent LIKE ? ORDER BY parent, key`,
		path, path+"/%")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var children []recordstore.Row
	for rows.Next() {
		var r recordstore.Row
		var doc string
		if err := rows.Scan(&r.Parent, &r.Key, &doc); err != nil {
			return nil, err
		}
		r.Doc = []byte(doc)
		children = append(children, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recordstore.AssembleTree(path, exact, children)
}

func (s *store) Set(ctx context.Context, path string, value any) error {
	parent, key, ok := recordstore.SplitRecordPath(path)
	if !ok {
		return fmt.Errorf("refusing to set collection root %q", path)
	}
	doc, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO records (parent, key, doc, updated_at) VALUES (?,?,?,?)
        ON CONFLICT(parent, key) DO UPDATE SET doc=excluded.doc, updated_at=excluded.updated_at
    `, parent, key, string(doc), time.Now().UnixMilli())
	return err
}

func (s *store) Push(ctx context.Context, path string, value any) (string, error) {
	key := recordstore.NewPushID()
	if err := s.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *store) Update(ctx context.Context, path string, fields map[string]any) error {
	parent, key, ok := recordstore.SplitRecordPath(path)
	if !ok {
		return fmt.Errorf("refusing to update collection root %q", path)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var existing []byte
	var doc string
	err = tx.QueryRowContext(ctx,
		`SELECT doc FROM records WHERE parent=? AND key=?`, parent, key).Scan(&doc)
	switch err {
	case nil:
		existing = []byte(doc)
	case sql.ErrNoRows:
	default:
		return err
	}

	merged, err := recordstore.MergeFields(existing, fields)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO records (parent, key, doc, updated_at) VALUES (?,?,?,?)
        ON CONFLICT(parent, key) DO UPDATE SET doc=excluded.doc, updated_at=excluded.updated_at
    `, parent, key, string(merged), time.Now().UnixMilli()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *store) Watch(ctx context.Context, path string, onChange func(json.RawMessage)) (recordstore.CancelFunc, error) {
	return recordstore.PollWatch(ctx, s.Get, path, s.watchInterval, onChange, s.log)
}

// Ping implements recordstore.Pinger.
func (s *store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
