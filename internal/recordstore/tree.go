package recordstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The SQL drivers persist one row per record: (parent path, child key, doc).
// A read at a path therefore has to reassemble nested collections from
// path-prefixed rows; the helpers here keep that logic in one place.

// Row is a single persisted record as stored by the SQL drivers.
type Row struct {
	Parent string
	Key    string
	Doc    []byte
}

// SplitRecordPath splits "a/b/c" into parent "a/b" and key "c". ok is false
// for single-segment paths, which address collections, not records.
func SplitRecordPath(path string) (parent, key string, ok bool) {
	i := strings.LastIndexByte(path, '/')
	if i <= 0 || i == len(path)-1 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}

// AssembleTree builds the JSON value visible at path from the exact record
// row (if any) and every row whose parent is path or a descendant of path.
// It returns nil when nothing exists at the path.
func AssembleTree(path string, exact []byte, rows []Row) (json.RawMessage, error) {
	if len(rows) == 0 {
		if exact == nil {
			return nil, nil
		}
		return json.RawMessage(exact), nil
	}

	out := map[string]any{}
	if exact != nil {
		if err := json.Unmarshal(exact, &out); err != nil {
			return nil, fmt.Errorf("record at %q is not an object: %w", path, err)
		}
	}

	for _, r := range rows {
		rel := strings.TrimPrefix(strings.TrimPrefix(r.Parent, path), "/")
		node := out
		if rel != "" {
			for _, seg := range strings.Split(rel, "/") {
				child, ok := node[seg].(map[string]any)
				if !ok {
					child = map[string]any{}
					node[seg] = child
				}
				node = child
			}
		}

		var doc any
		if err := json.Unmarshal(r.Doc, &doc); err != nil {
			return nil, fmt.Errorf("corrupt doc at %s/%s: %w", r.Parent, r.Key, err)
		}
		if existing, ok := node[r.Key].(map[string]any); ok {
			// A nested collection was created before its record row was
			// visited; merge the record fields into it.
			if docObj, ok := doc.(map[string]any); ok {
				for k, v := range docObj {
					existing[k] = v
				}
				continue
			}
		}
		node[r.Key] = doc
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// MergeFields applies a partial update to doc (which may be nil for a record
// that does not exist yet): non-nil values overwrite, nil values delete the
// field. This matches the update semantics of the realtime store.
func MergeFields(doc []byte, fields map[string]any) ([]byte, error) {
	out := map[string]any{}
	if doc != nil {
		if err := json.Unmarshal(doc, &out); err != nil {
			return nil, fmt.Errorf("cannot merge into non-object record: %w", err)
		}
	}
	for k, v := range fields {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}
