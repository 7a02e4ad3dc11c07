// Package firebase implements the record store against the Firebase Realtime
// Database REST API. It operates on the same tree layout the production web
// client uses, so both frontends can share one database.
package firebase

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/flatmate/flatmate-backend/internal/recordstore"
)

// New constructs a Firebase-backed record store. baseURL is the database
// root, e.g. https://flatmate-prod.firebaseio.com. authToken may be empty for
// databases with open rules; otherwise it is sent as the auth query param.
func New(baseURL, authToken string, log zerolog.Logger) recordstore.Store {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15 * time.Second).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	return &store{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    authToken,
		log:     log,
	}
}

type store struct {
	client  *resty.Client
	baseURL string
	auth    string
	log     zerolog.Logger
}

func (s *store) url(path string) string { return "/" + path + ".json" }

func (s *store) request(ctx context.Context) *resty.Request {
	req := s.client.R().SetContext(ctx)
	if s.auth != "" {
		req.SetQueryParam("auth", s.auth)
	}
	return req
}

func (s *store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	resp, err := s.request(ctx).Get(s.url(path))
	if err != nil {
		return nil, fmt.Errorf("firebase GET %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("firebase GET %s: status %d", path, resp.StatusCode())
	}
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

func (s *store) Set(ctx context.Context, path string, value any) error {
	resp, err := s.request(ctx).SetBody(value).Put(s.url(path))
	if err != nil {
		return fmt.Errorf("firebase PUT %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("firebase PUT %s: status %d", path, resp.StatusCode())
	}
	return nil
}

func (s *store) Push(ctx context.Context, path string, value any) (string, error) {
	// Push keys are generated client-side, exactly like the web SDK does, so
	// the write is a plain PUT at the new child path.
	key := recordstore.NewPushID()
	if err := s.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *store) Update(ctx context.Context, path string, fields map[string]any) error {
	resp, err := s.request(ctx).SetBody(fields).Patch(s.url(path))
	if err != nil {
		return fmt.Errorf("firebase PATCH %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("firebase PATCH %s: status %d", path, resp.StatusCode())
	}
	return nil
}

// Watch subscribes to path with the RTDB event-stream protocol. Rather than
// replaying patches into a local tree, every put/patch event triggers a fresh
// full read, which matches the full-snapshot contract of Store.Watch.
func (s *store) Watch(ctx context.Context, path string, onChange func(json.RawMessage)) (recordstore.CancelFunc, error) {
	first, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	go func() {
		onChange(first)
		for {
			if watchCtx.Err() != nil {
				return
			}
			if err := s.streamOnce(watchCtx, path, onChange); err != nil && watchCtx.Err() == nil {
				s.log.Warn().Err(err).Str("path", path).Msg("event stream dropped, reconnecting")
				select {
				case <-watchCtx.Done():
					return
				case <-time.After(2 * time.Second):
				}
			}
		}
	}()

	return recordstore.CancelFunc(cancel), nil
}

// streamOnce holds one SSE connection open until it fails or ctx is
// cancelled, re-reading the full snapshot on every data-bearing event.
func (s *store) streamOnce(ctx context.Context, path string, onChange func(json.RawMessage)) error {
	url := s.baseURL + s.url(path)
	if s.auth != "" {
		url += "?auth=" + s.auth
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("firebase stream %s: status %d", path, resp.StatusCode)
	}

	var event string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			switch event {
			case "put", "patch":
				snap, err := s.Get(ctx, path)
				if err != nil {
					return err
				}
				onChange(snap)
			case "auth_revoked", "cancel":
				return fmt.Errorf("firebase stream %s: %s", path, event)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("firebase stream %s: closed", path)
}

// Ping implements recordstore.Pinger with a shallow root read.
func (s *store) Ping(ctx context.Context) error {
	resp, err := s.request(ctx).SetQueryParam("shallow", "true").Get("/.json")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("firebase ping: status %d", resp.StatusCode())
	}
	return nil
}
