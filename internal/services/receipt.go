package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/recordstore"
)

// ReceiptService owns receipt creation, the member balance adjustment and
// the admin notification fan-out.
type ReceiptService struct {
	store      recordstore.Store
	notifier   *Notifier
	now        func() time.Time
	randDigits func() int
}

func NewReceiptService(s recordstore.Store, n *Notifier) *ReceiptService {
	return &ReceiptService{
		store:      s,
		notifier:   n,
		now:        time.Now,
		randDigits: func() int { return rand.Intn(9000) + 1000 },
	}
}

// newReceiptID builds the human-readable receipt label. It is collision
// tolerant, not guaranteed unique; the store push key is the true record key.
func (s *ReceiptService) newReceiptID(now time.Time) string {
	return fmt.Sprintf("RCPT-%d-%d", now.UnixMilli(), s.randDigits())
}

func defaultNote(method, note string) string {
	if note != "" {
		return note
	}
	switch method {
	case model.MethodCash:
		return "Paid in cash"
	case model.MethodUPI:
		return "Paid via UPI"
	case model.MethodCard:
		return "Paid via Card"
	case model.MethodBankTransfer:
		return "Bank Transfer"
	default:
		return "Payment received"
	}
}

// CreateReceipt records a payment against a member: append the receipt to
// the ledger, adjust the member's balances from a fresh read, then notify
// the admin inbox. The three writes are independent; a failure surfaces the
// failed step and leaves earlier writes committed.
func (s *ReceiptService) CreateReceipt(ctx context.Context, member *model.Member, amount float64, method, note string) (string, error) {
	if member == nil || member.ID == "" {
		return "", NewValidationError("member", "no member selected")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return "", NewValidationError("amount", "invalid amount")
	}
	switch method {
	case model.MethodCash, model.MethodUPI, model.MethodCard, model.MethodBankTransfer, model.MethodOther:
	default:
		return "", NewValidationError("method", "unknown payment method")
	}

	now := s.now()
	nowMillis := now.UnixMilli()
	receiptID := s.newReceiptID(now)

	previousDue := member.Dues
	receipt := model.Receipt{
		UID:           member.ID,
		Email:         member.Email,
		Name:          member.Name,
		Member:        member.Name,
		Flat:          member.Flat,
		Amount:        amount,
		Method:        method,
		MethodDetails: model.MethodDetails{Note: defaultNote(method, note)},
		ReceiptID:     receiptID,
		Date:          now.Format("02/01/2006"),
		CreatedAt:     nowMillis,
		PreviousDue:   previousDue,
		RemainingDue:  math.Max(0, previousDue-amount),
		Status:        "completed",
		CreatedBy:     "admin",
	}

	if _, err := s.store.Push(ctx, recordstore.PathRecentPayments, receipt); err != nil {
		return "", NewOperationError("create receipt", "append receipt", err)
	}

	// Balance update works from a fresh read so fields written by other
	// flows since the directory snapshot are not clobbered. Two concurrent
	// receipts for the same member can still interleave between this read
	// and the update; last write wins, as in the system this replaces.
	if err := s.applyPayment(ctx, member.ID, amount, nowMillis); err != nil {
		return "", NewOperationError("create receipt", "update member balance", err)
	}

	notif := model.Notification{
		Type:  model.NotificationPayment,
		Title: "Manual Receipt Created",
		Message: fmt.Sprintf("Receipt %s created for %s (%s) - ₹%s",
			receiptID, member.Name, member.Flat, formatAmount(amount)),
		Timestamp:  nowMillis,
		Read:       false,
		Amount:     &amount,
		MemberName: &member.Name,
		Flat:       &member.Flat,
	}
	if err := s.notifier.NotifyAdmin(ctx, notif); err != nil {
		return "", NewOperationError("create receipt", "notify admin", err)
	}

	log.Info().Str("receiptId", receiptID).Str("memberId", member.ID).
		Float64("amount", amount).Str("method", method).Msg("receipt created")
	return receiptID, nil
}

func (s *ReceiptService) applyPayment(ctx context.Context, memberID string, amount float64, nowMillis int64) error {
	snap, err := s.store.Get(ctx, recordstore.UserPath(memberID))
	if err != nil {
		return err
	}
	var current struct {
		Dues *float64 `json:"dues"`
		Paid *float64 `json:"paid"`
	}
	if snap != nil {
		if err := json.Unmarshal(snap, &current); err != nil {
			return err
		}
	}
	var dues, paid float64
	if current.Dues != nil {
		dues = *current.Dues
	}
	if current.Paid != nil {
		paid = *current.Paid
	}

	return s.store.Update(ctx, recordstore.UserPath(memberID), map[string]any{
		"dues":        math.Max(0, dues-amount),
		"paid":        paid + amount,
		"lastPayment": nowMillis,
	})
}

// ListReceipts returns the ledger, newest first.
func (s *ReceiptService) ListReceipts(ctx context.Context) ([]model.Receipt, error) {
	snap, err := s.store.Get(ctx, recordstore.PathRecentPayments)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return []model.Receipt{}, nil
	}
	var raw map[string]model.Receipt
	if err := json.Unmarshal(snap, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Receipt, 0, len(raw))
	for id, r := range raw {
		r.ID = id
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// formatAmount renders an amount with Indian digit grouping, e.g. 1,23,456.
func formatAmount(amount float64) string {
	whole := int64(math.Floor(amount))
	frac := amount - float64(whole)

	digits := strconv.FormatInt(whole, 10)
	var grouped []byte
	n := len(digits)
	for i := 0; i < n; i++ {
		rem := n - i
		if i > 0 && (rem == 3 || (rem > 3 && (rem-3)%2 == 0)) {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, digits[i])
	}
	out := string(grouped)
	if frac > 1e-9 {
		out += strconv.FormatFloat(frac, 'f', 2, 64)[1:]
	}
	return out
}
