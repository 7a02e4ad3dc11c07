package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/flatmate/flatmate-backend/internal/recordstore"
)

// fakeStore is an in-memory record store for engine tests. Failures can be
// injected per operation and path prefix to exercise multi-step sequences.
type fakeStore struct {
	mu     sync.Mutex
	docs   map[string]map[string]any // record path -> fields
	writes []string                  // "op path" in commit order

	failPush   map[string]error // path prefix -> error
	failUpdate map[string]error
	failGet    map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:       map[string]map[string]any{},
		failPush:   map[string]error{},
		failUpdate: map[string]error{},
		failGet:    map[string]error{},
	}
}

func (f *fakeStore) failFor(m map[string]error, path string) error {
	for prefix, err := range m {
		if strings.HasPrefix(path, prefix) {
			return err
		}
	}
	return nil
}

func (f *fakeStore) Get(_ context.Context, path string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor(f.failGet, path); err != nil {
		return nil, err
	}
	out := map[string]any{}
	if doc, ok := f.docs[path]; ok {
		for k, v := range doc {
			out[k] = v
		}
	}
	for p, doc := range f.docs {
		if !strings.HasPrefix(p, path+"/") {
			continue
		}
		rel := strings.TrimPrefix(p, path+"/")
		segs := strings.Split(rel, "/")
		node := out
		for _, seg := range segs[:len(segs)-1] {
			child, ok := node[seg].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[seg] = child
			}
			node = child
		}
		node[segs[len(segs)-1]] = doc
	}
	if len(out) == 0 {
		return nil, nil
	}
	return json.Marshal(out)
}

func (f *fakeStore) Set(_ context.Context, path string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := toDoc(value)
	if err != nil {
		return err
	}
	f.docs[path] = doc
	f.writes = append(f.writes, "set "+path)
	return nil
}

func (f *fakeStore) Push(_ context.Context, path string, value any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor(f.failPush, path); err != nil {
		return "", err
	}
	doc, err := toDoc(value)
	if err != nil {
		return "", err
	}
	key := recordstore.NewPushID()
	f.docs[path+"/"+key] = doc
	f.writes = append(f.writes, "push "+path)
	return key, nil
}

func (f *fakeStore) Update(_ context.Context, path string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor(f.failUpdate, path); err != nil {
		return err
	}
	doc := f.docs[path]
	if doc == nil {
		doc = map[string]any{}
		f.docs[path] = doc
	}
	// Normalize through JSON like Set/Push (and every real driver) so reads
	// observe JSON types; nil values survive the round-trip as nil.
	fields, err := toDoc(fields)
	if err != nil {
		return err
	}
	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	f.writes = append(f.writes, "update "+path)
	return nil
}

func (f *fakeStore) Watch(ctx context.Context, path string, onChange func(json.RawMessage)) (recordstore.CancelFunc, error) {
	snap, err := f.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	onChange(snap)
	return func() {}, nil
}

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

// children returns the docs directly under a collection path.
func (f *fakeStore) children(path string) map[string]map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]map[string]any{}
	for p, doc := range f.docs {
		if strings.HasPrefix(p, path+"/") && !strings.Contains(strings.TrimPrefix(p, path+"/"), "/") {
			out[strings.TrimPrefix(p, path+"/")] = doc
		}
	}
	return out
}

func (f *fakeStore) record(path string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[path]
}

func toDoc(value any) (map[string]any, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("record value must be an object: %w", err)
	}
	return doc, nil
}
