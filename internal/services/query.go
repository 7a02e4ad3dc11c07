package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/flatmate/flatmate-backend/internal/identity"
	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/recordstore"
)

// Limits on member-supplied query text.
const (
	maxSubjectLen = 100
	maxMessageLen = 1000
	maxReplyLen   = 500
)

// QueryService owns the member query lifecycle: submission, admin replies
// and the open <-> resolved status transitions.
type QueryService struct {
	store    recordstore.Store
	notifier *Notifier
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewQueryService constructs the engine. perMinute/burst throttle query
// submission per service instance; zero values disable the throttle.
func NewQueryService(s recordstore.Store, n *Notifier, perMinute, burst int) *QueryService {
	var limiter *rate.Limiter
	if perMinute > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	}
	return &QueryService{store: s, notifier: n, limiter: limiter, now: time.Now}
}

// SubmitQuery validates and appends a new query with status open. The
// caller's identity fields are snapshotted at submission time.
func (s *QueryService) SubmitQuery(ctx context.Context, caller identity.Profile, subject, message string) (string, error) {
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)
	if subject == "" {
		return "", NewValidationError("subject", "subject is required")
	}
	if len(subject) > maxSubjectLen {
		return "", NewValidationError("subject", "subject exceeds 100 characters")
	}
	if message == "" {
		return "", NewValidationError("message", "message is required")
	}
	if len(message) > maxMessageLen {
		return "", NewValidationError("message", "message exceeds 1000 characters")
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return "", NewValidationError("rate", "too many queries, try again shortly")
	}

	q := model.Query{
		UID:        caller.UID,
		MemberName: caller.ResolveName(),
		Email:      caller.Email,
		Flat:       caller.ResolveFlat(),
		Subject:    subject,
		Message:    message,
		Status:     model.QueryStatusOpen,
		Timestamp:  s.now().UnixMilli(),
	}

	id, err := s.store.Push(ctx, recordstore.PathQueries, q)
	if err != nil {
		return "", NewOperationError("submit query", "append query", err)
	}
	log.Info().Str("queryId", id).Str("member", q.MemberName).Msg("query submitted")
	return id, nil
}

// SetStatus moves a query between open and resolved. resolvedAt is set
// exactly when the new status is resolved and removed otherwise. Re-setting
// the current status is a harmless repeat write.
func (s *QueryService) SetStatus(ctx context.Context, queryID, newStatus string) error {
	if queryID == "" {
		return NewValidationError("queryId", "query id is required")
	}
	if newStatus != model.QueryStatusOpen && newStatus != model.QueryStatusResolved {
		return NewValidationError("status", "status must be open or resolved")
	}

	fields := map[string]any{"status": newStatus, "resolvedAt": nil}
	if newStatus == model.QueryStatusResolved {
		fields["resolvedAt"] = s.now().UnixMilli()
	}
	if err := s.store.Update(ctx, recordstore.QueryPath(queryID), fields); err != nil {
		return NewOperationError("update query status", "update query", err)
	}
	return nil
}

// Reply appends an admin reply under the query, then fans out a query_reply
// notification to the originating member when their id is known. The fan-out
// is best-effort relative to the reply append: once the reply is committed it
// stays committed, and a fan-out failure is only reported.
func (s *QueryService) Reply(ctx context.Context, queryID string, targetMemberID *string, text string) error {
	if queryID == "" {
		return NewValidationError("queryId", "query id is required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return NewValidationError("message", "reply message is required")
	}
	if len(text) > maxReplyLen {
		return NewValidationError("message", "reply exceeds 500 characters")
	}

	now := s.now().UnixMilli()
	reply := model.Reply{Message: text, Timestamp: now, From: "admin"}
	if _, err := s.store.Push(ctx, recordstore.QueryRepliesPath(queryID), reply); err != nil {
		return NewOperationError("send reply", "append reply", err)
	}

	if targetMemberID != nil && *targetMemberID != "" {
		from := "admin"
		notif := model.Notification{
			Type:      model.NotificationQueryReply,
			Title:     "Admin Reply to Your Query",
			Message:   text,
			QueryID:   &queryID,
			Timestamp: now,
			Read:      false,
			From:      &from,
		}
		if err := s.notifier.NotifyMember(ctx, *targetMemberID, notif); err != nil {
			log.Error().Err(err).Str("queryId", queryID).Str("memberId", *targetMemberID).
				Msg("reply stored but member notification failed")
			return NewOperationError("send reply", "notify member", err)
		}
	}
	return nil
}

// ListQueries returns all queries, newest first by submission time.
func (s *QueryService) ListQueries(ctx context.Context) ([]model.Query, error) {
	snap, err := s.store.Get(ctx, recordstore.PathQueries)
	if err != nil {
		return nil, err
	}
	return decodeQueries(snap)
}

// WatchQueries establishes a standing subscription on the query table,
// delivering a freshly decoded full snapshot per change.
func (s *QueryService) WatchQueries(ctx context.Context, onChange func([]model.Query)) (recordstore.CancelFunc, error) {
	return s.store.Watch(ctx, recordstore.PathQueries, func(snap json.RawMessage) {
		queries, err := decodeQueries(snap)
		if err != nil {
			log.Warn().Err(err).Msg("query snapshot decode failed")
			return
		}
		onChange(queries)
	})
}

func decodeQueries(snap json.RawMessage) ([]model.Query, error) {
	if snap == nil {
		return []model.Query{}, nil
	}
	var raw map[string]model.Query
	if err := json.Unmarshal(snap, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Query, 0, len(raw))
	for id, q := range raw {
		q.ID = id
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// FilterByStatus is a pure filter; "all" (or empty) is the identity.
func FilterByStatus(queries []model.Query, status string) []model.Query {
	if status == "" || status == "all" {
		return queries
	}
	out := make([]model.Query, 0, len(queries))
	for _, q := range queries {
		if q.Status == status {
			out = append(out, q)
		}
	}
	return out
}
