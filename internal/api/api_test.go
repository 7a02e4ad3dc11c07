package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/flatmate/flatmate-backend/internal/config"
	"github.com/flatmate/flatmate-backend/internal/identity"
	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/recordstore"
	storelite "github.com/flatmate/flatmate-backend/internal/recordstore/sqlite"
)

func newTestServer(t *testing.T) (*httptest.Server, recordstore.Store) {
	t.Helper()
	db, err := storelite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storelite.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	cfg := config.NewForTesting()
	store := storelite.New(db, 20*time.Millisecond, zerolog.Nop())
	srv := httptest.NewServer(NewRouter(store, cfg, func() bool { return true }))
	t.Cleanup(srv.Close)
	return srv, store
}

func seedMember(t *testing.T, store recordstore.Store, id string, doc map[string]any) {
	t.Helper()
	if err := store.Set(context.Background(), "users/"+id, doc); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := doJSON(t, "GET", srv.URL+"/api/health", nil, nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("health: %d %v", resp.StatusCode, body)
	}
}

func TestMemberDirectory(t *testing.T) {
	srv, store := newTestServer(t)
	seedMember(t, store, "u1", map[string]any{"role": "member", "fullName": "Asha Verma", "flatNumber": "B-204", "email": "asha@example.test", "dues": 1500.0})
	seedMember(t, store, "u2", map[string]any{"role": "member", "name": "Ravi Iyer", "flat": "C-101", "email": "ravi@example.test"})
	seedMember(t, store, "u3", map[string]any{"role": "admin", "fullName": "Site Admin"})

	resp, body := doJSON(t, "GET", srv.URL+"/api/members", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %d", resp.StatusCode)
	}
	if body["count"].(float64) != 2 {
		t.Fatalf("count: %v", body["count"])
	}

	resp, body = doJSON(t, "GET", srv.URL+"/api/members?q=asha", nil, nil)
	if resp.StatusCode != http.StatusOK || body["count"].(float64) != 1 {
		t.Fatalf("search: %d %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, "GET", srv.URL+"/api/members/u1", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "GET", srv.URL+"/api/members/missing", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing member: %d", resp.StatusCode)
	}
}

func TestQueryLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	headers := map[string]string{
		identity.HeaderUID:  "u1",
		identity.HeaderName: "Asha Verma",
		identity.HeaderFlat: "B-204",
	}
	resp, body := doJSON(t, "POST", srv.URL+"/api/queries",
		map[string]string{"subject": "Leak", "message": "Kitchen tap leaking"}, headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: %d %v", resp.StatusCode, body)
	}
	queryID, _ := body["queryId"].(string)
	if queryID == "" {
		t.Fatalf("no queryId in %v", body)
	}

	// Blank subject is rejected with 400 before any write.
	resp, _ = doJSON(t, "POST", srv.URL+"/api/queries", map[string]string{"subject": " ", "message": "m"}, headers)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank subject: %d", resp.StatusCode)
	}

	// Admin replies; member inbox picks up the reply.
	resp, _ = doJSON(t, "POST", srv.URL+"/api/queries/"+queryID+"/replies",
		map[string]any{"message": "Plumber dispatched", "memberId": "u1"}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("reply: %d", resp.StatusCode)
	}

	resp, body = doJSON(t, "GET", srv.URL+"/api/notifications/members/u1", nil, nil)
	if resp.StatusCode != http.StatusOK || body["count"].(float64) != 1 {
		t.Fatalf("member inbox: %d %v", resp.StatusCode, body)
	}
	notifs := body["notifications"].([]any)
	n := notifs[0].(map[string]any)
	if n["type"] != "query_reply" || n["message"] != "Plumber dispatched" || n["queryId"] != queryID {
		t.Fatalf("notification: %v", n)
	}

	// Resolve, verify filtered listing, then reopen.
	resp, _ = doJSON(t, "PUT", srv.URL+"/api/queries/"+queryID+"/status", map[string]string{"status": "resolved"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve: %d", resp.StatusCode)
	}
	resp, body = doJSON(t, "GET", srv.URL+"/api/queries?status=resolved", nil, nil)
	if resp.StatusCode != http.StatusOK || body["count"].(float64) != 1 {
		t.Fatalf("resolved listing: %d %v", resp.StatusCode, body)
	}
	q := body["queries"].([]any)[0].(map[string]any)
	if q["resolvedAt"] == nil {
		t.Fatalf("resolvedAt missing: %v", q)
	}

	resp, _ = doJSON(t, "PUT", srv.URL+"/api/queries/"+queryID+"/status", map[string]string{"status": "open"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reopen: %d", resp.StatusCode)
	}
	_, body = doJSON(t, "GET", srv.URL+"/api/queries?status=open", nil, nil)
	q = body["queries"].([]any)[0].(map[string]any)
	if _, present := q["resolvedAt"]; present {
		t.Fatalf("resolvedAt must be cleared on reopen: %v", q)
	}
}

func TestReceiptOverHTTP(t *testing.T) {
	srv, store := newTestServer(t)
	seedMember(t, store, "u1", map[string]any{"role": "member", "fullName": "Asha Verma", "flatNumber": "B-204", "email": "asha@example.test", "dues": 1500.0, "paid": 500.0})

	resp, body := doJSON(t, "POST", srv.URL+"/api/receipts",
		map[string]any{"memberId": "u1", "amount": 1000.0, "method": model.MethodCash}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %v", resp.StatusCode, body)
	}
	receiptID, _ := body["receiptId"].(string)
	if receiptID == "" {
		t.Fatalf("no receiptId in %v", body)
	}

	// Balance moved.
	_, member := doJSON(t, "GET", srv.URL+"/api/members/u1", nil, nil)
	if member["dues"].(float64) != 500 || member["paid"].(float64) != 1500 {
		t.Fatalf("balance: %v", member)
	}

	// Ledger lists the entry newest first.
	_, body = doJSON(t, "GET", srv.URL+"/api/receipts", nil, nil)
	if body["count"].(float64) != 1 {
		t.Fatalf("ledger: %v", body)
	}
	entry := body["receipts"].([]any)[0].(map[string]any)
	if entry["receipt"] != receiptID || entry["remainingDue"].(float64) != 500 {
		t.Fatalf("entry: %v", entry)
	}

	// Admin inbox got the payment notification.
	_, body = doJSON(t, "GET", srv.URL+"/api/notifications/admin", nil, nil)
	if body["count"].(float64) != 1 {
		t.Fatalf("admin inbox: %v", body)
	}
	n := body["notifications"].([]any)[0].(map[string]any)
	if n["type"] != "payment" {
		t.Fatalf("notification: %v", n)
	}

	// Invalid amount is a 400.
	resp, _ = doJSON(t, "POST", srv.URL+"/api/receipts",
		map[string]any{"memberId": "u1", "amount": -5.0, "method": model.MethodCash}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid amount: %d", resp.StatusCode)
	}

	// Unknown member is a 404.
	resp, _ = doJSON(t, "POST", srv.URL+"/api/receipts",
		map[string]any{"memberId": "ghost", "amount": 100.0, "method": model.MethodCash}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown member: %d", resp.StatusCode)
	}
}

func TestGatewayConfigEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := doJSON(t, "GET", srv.URL+"/api/gateway/config", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("config: %d", resp.StatusCode)
	}
	if body["currency"] != "INR" || body["companyName"] != "FlatMate" {
		t.Fatalf("config body: %v", body)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doJSON(t, "GET", srv.URL+"/api/health", nil, nil)
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
	resp, _ = doJSON(t, "GET", srv.URL+"/api/health", nil, map[string]string{"X-Request-Id": "abc-123"})
	if got := resp.Header.Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("request id not propagated: %q", got)
	}
}
