// Package postgres implements the record store on PostgreSQL via the pgx
// stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/flatmate/flatmate-backend/internal/recordstore"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
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
    doc        JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (parent, key)
);
CREATE INDEX IF NOT EXISTS idx_records_parent ON records(parent);
`

// EnsureSchema creates the records table when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaDDL)
	return err
}

// New constructs a Postgres-backed record store. watchInterval controls the
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
		err := s.db.QueryRowContext(ctx,
			`SELECT doc FROM records WHERE parent=$1 AND key=$2`, parent, key).Scan(&exact)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT parent, key, doc FROM records WHERE parent=$1 OR parent LIKE $2 ORDER BY parent, key`,
		path, path+"/%")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var children []recordstore.Row
	for rows.Next() {
		var r recordstore.Row
		if err := rows.Scan(&r.Parent, &r.Key, &r.Doc); err != nil {
			return nil, err
		}
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
        INSERT INTO records (parent, key, doc, updated_at) VALUES ($1,$2,$3,now())
        ON CONFLICT (parent, key) DO UPDATE SET doc=EXCLUDED.doc, updated_at=now()
    `, parent, key, doc)
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
	err = tx.QueryRowContext(ctx,
		`SELECT doc FROM records WHERE parent=$1 AND key=$2 FOR UPDATE`, parent, key).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	merged, err := recordstore.MergeFields(existing, fields)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO records (parent, key, doc, updated_at) VALUES ($1,$2,$3,now())
        ON CONFLICT (parent, key) DO UPDATE SET doc=EXCLUDED.doc, updated_at=now()
    `, parent, key, merged); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *store) Watch(ctx context.Context, path string, onChange func(json.RawMessage)) (recordstore.CancelFunc, error) {
	return recordstore.PollWatch(ctx, s.Get, path, s.watchInterval, onChange, s.log)
}

// Ping implements recordstore.Pinger.
func (s *store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
