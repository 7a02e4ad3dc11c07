// Package recordstore defines the key-path-addressed document store surface
// the engines are written against. Implementations live under
// recordstore/<driver>/ (firebase, postgres, sqlite).
package recordstore

import (
	"context"
	"encoding/json"
)

// CancelFunc stops a subscription. Callers are responsible for invoking it
// when no longer interested in updates.
type CancelFunc func()

// Store is a minimal realtime document store: records are addressed by
// slash-separated paths, collections are JSON objects keyed by generated
// child keys.
type Store interface {
	// Get reads everything at path. A nil RawMessage means the path is absent.
	Get(ctx context.Context, path string) (json.RawMessage, error)

	// Set writes value at path, replacing whatever was there.
	Set(ctx context.Context, path string, value any) error

	// Push appends value under path with a generated child key and returns
	// the key. Keys sort lexicographically by creation time.
	Push(ctx context.Context, path string, value any) (string, error)

	// Update merges fields into the record at path. Untouched fields are left
	// as they are; a nil field value deletes the field.
	Update(ctx context.Context, path string, fields map[string]any) error

	// Watch subscribes to path. onChange receives a fresh full snapshot
	// immediately and again after every change until the returned CancelFunc
	// is invoked or ctx is cancelled. A new snapshot supersedes the previous
	// one; there is no queueing.
	Watch(ctx context.Context, path string, onChange func(json.RawMessage)) (CancelFunc, error)
}

// Pinger is implemented by drivers that can cheaply verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
