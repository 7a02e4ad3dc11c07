package recordstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitRecordPath(t *testing.T) {
	parent, key, ok := SplitRecordPath("users/u1")
	require.True(t, ok)
	require.Equal(t, "users", parent)
	require.Equal(t, "u1", key)

	parent, key, ok = SplitRecordPath("queries/q1/replies/r1")
	require.True(t, ok)
	require.Equal(t, "queries/q1/replies", parent)
	require.Equal(t, "r1", key)

	_, _, ok = SplitRecordPath("users")
	require.False(t, ok)
	_, _, ok = SplitRecordPath("users/")
	require.False(t, ok)
}

func TestAssembleTree_AbsentPath(t *testing.T) {
	out, err := AssembleTree("users", nil, nil)
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestAssembleTree_ExactRecordOnly(t *testing.T) {
	out, err := AssembleTree("users/u1", []byte(`{"name":"Asha"}`), nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Asha"}`, string(out))
}

func TestAssembleTree_Collection(t *testing.T) {
	rows := []Row{
		{Parent: "users", Key: "u1", Doc: []byte(`{"name":"Asha"}`)},
		{Parent: "users", Key: "u2", Doc: []byte(`{"name":"Ravi"}`)},
	}
	out, err := AssembleTree("users", nil, rows)
	require.NoError(t, err)
	require.JSONEq(t, `{"u1":{"name":"Asha"},"u2":{"name":"Ravi"}}`, string(out))
}

func TestAssembleTree_NestedCollections(t *testing.T) {
	rows := []Row{
		{Parent: "queries", Key: "q1", Doc: []byte(`{"subject":"Leak"}`)},
		{Parent: "queries/q1/replies", Key: "r1", Doc: []byte(`{"message":"noted"}`)},
		{Parent: "queries/q1/replies", Key: "r2", Doc: []byte(`{"message":"fixed"}`)},
	}
	out, err := AssembleTree("queries", nil, rows)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"q1": {
			"subject": "Leak",
			"replies": {
				"r1": {"message":"noted"},
				"r2": {"message":"fixed"}
			}
		}
	}`, string(out))
}

func TestAssembleTree_RecordRowAfterDescendants(t *testing.T) {
	// Row order is not guaranteed; the record's own fields must merge into
	// a node already created for its nested collection.
	rows := []Row{
		{Parent: "queries/q1/replies", Key: "r1", Doc: []byte(`{"message":"noted"}`)},
		{Parent: "queries", Key: "q1", Doc: []byte(`{"subject":"Leak"}`)},
	}
	out, err := AssembleTree("queries", nil, rows)
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, "Leak", decoded["q1"]["subject"])
	require.Contains(t, decoded["q1"], "replies")
}

func TestAssembleTree_SubtreeRead(t *testing.T) {
	exact := []byte(`{"subject":"Leak"}`)
	rows := []Row{
		{Parent: "queries/q1/replies", Key: "r1", Doc: []byte(`{"message":"noted"}`)},
	}
	out, err := AssembleTree("queries/q1", exact, rows)
	require.NoError(t, err)
	require.JSONEq(t, `{"subject":"Leak","replies":{"r1":{"message":"noted"}}}`, string(out))
}

func TestMergeFields(t *testing.T) {
	out, err := MergeFields([]byte(`{"status":"open","resolvedAt":123}`), map[string]any{
		"status":     "resolved",
		"resolvedAt": int64(456),
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"resolved","resolvedAt":456}`, string(out))
}

func TestMergeFields_NilDeletes(t *testing.T) {
	out, err := MergeFields([]byte(`{"status":"resolved","resolvedAt":123}`), map[string]any{
		"status":     "open",
		"resolvedAt": nil,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"open"}`, string(out))
}

func TestMergeFields_CreatesMissingRecord(t *testing.T) {
	out, err := MergeFields(nil, map[string]any{"status": "open"})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"open"}`, string(out))
}
