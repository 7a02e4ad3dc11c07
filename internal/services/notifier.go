package services

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/recordstore"
)

// Notifier is the shared fan-out sink: it appends a single notification
// record to a target inbox. Pure append with a generated key, so concurrent
// fan-outs to the same inbox cannot conflict.
type Notifier struct {
	store recordstore.Store
}

func NewNotifier(s recordstore.Store) *Notifier { return &Notifier{store: s} }

// NotifyAdmin appends to the shared admin inbox.
func (n *Notifier) NotifyAdmin(ctx context.Context, notif model.Notification) error {
	_, err := n.store.Push(ctx, recordstore.PathAdminNotifications, notif)
	return err
}

// NotifyMember appends to the per-member inbox.
func (n *Notifier) NotifyMember(ctx context.Context, memberID string, notif model.Notification) error {
	_, err := n.store.Push(ctx, recordstore.UserNotificationsPath(memberID), notif)
	return err
}

// ListAdmin returns the admin inbox, newest first.
func (n *Notifier) ListAdmin(ctx context.Context) ([]model.Notification, error) {
	return n.list(ctx, recordstore.PathAdminNotifications)
}

// ListForMember returns a member's inbox, newest first.
func (n *Notifier) ListForMember(ctx context.Context, memberID string) ([]model.Notification, error) {
	return n.list(ctx, recordstore.UserNotificationsPath(memberID))
}

func (n *Notifier) list(ctx context.Context, path string) ([]model.Notification, error) {
	snap, err := n.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return []model.Notification{}, nil
	}
	var raw map[string]model.Notification
	if err := json.Unmarshal(snap, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Notification, 0, len(raw))
	for id, notif := range raw {
		notif.ID = id
		out = append(out, notif)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
