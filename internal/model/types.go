package model

// Timestamps throughout are epoch milliseconds, matching the wire format of the
// realtime store the backend fronts.

// Member is the directory projection of a "member" role account. It is
// read-only to every engine except the receipt engine, which adjusts the
// dues/paid balances.
type Member struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Flat        string  `json:"flat"`
	Email       string  `json:"email"`
	Dues        float64 `json:"dues"`
	Paid        float64 `json:"paid"`
	LastPayment *int64  `json:"lastPayment,omitempty"`
}

// QueryStatus values. Transitions are open <-> resolved only.
const (
	QueryStatusOpen     = "open"
	QueryStatusResolved = "resolved"
)

// Query is a member-to-admin question. Identity fields are snapshotted at
// submission time and never re-derived.
type Query struct {
	ID         string           `json:"id"`
	UID        *string          `json:"uid,omitempty"`
	MemberName string           `json:"memberName"`
	Email      string           `json:"email"`
	Flat       string           `json:"flat"`
	Subject    string           `json:"subject"`
	Message    string           `json:"message"`
	Status     string           `json:"status"`
	Timestamp  int64            `json:"timestamp"`
	ResolvedAt *int64           `json:"resolvedAt,omitempty"`
	Replies    map[string]Reply `json:"replies,omitempty"`
}

// Reply is immutable once created and owned by its parent query. Map keys in
// Query.Replies are store push keys, which sort by creation time.
type Reply struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	From      string `json:"from"`
}

// Payment methods accepted on a receipt.
const (
	MethodCash         = "cash"
	MethodUPI          = "upi"
	MethodCard         = "card"
	MethodBankTransfer = "bank_transfer"
	MethodOther        = "other"
)

// MethodDetails carries the free-form note attached to a payment method.
type MethodDetails struct {
	Note string `json:"note"`
}

// Receipt is an append-only ledger entry. ReceiptID is the human-readable
// display label; the store push key is the true record key.
type Receipt struct {
	ID            string        `json:"id,omitempty"`
	UID           string        `json:"uid"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	Member        string        `json:"member"`
	Flat          string        `json:"flat"`
	Amount        float64       `json:"amount"`
	Method        string        `json:"method"`
	MethodDetails MethodDetails `json:"methodDetails"`
	ReceiptID     string        `json:"receipt"`
	Date          string        `json:"date"`
	CreatedAt     int64         `json:"createdAt"`
	PreviousDue   float64       `json:"previousDue"`
	RemainingDue  float64       `json:"remainingDue"`
	Status        string        `json:"status"`
	CreatedBy     string        `json:"createdBy"`
}

// Notification types written by the fan-out.
const (
	NotificationPayment    = "payment"
	NotificationQueryReply = "query_reply"
)

// Notification is a single inbox record. Context fields are populated
// depending on the type; Read is mutated only by the (out of scope)
// acknowledgement flow.
type Notification struct {
	ID         string   `json:"id,omitempty"`
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Timestamp  int64    `json:"timestamp"`
	Read       bool     `json:"read"`
	Amount     *float64 `json:"amount,omitempty"`
	MemberName *string  `json:"memberName,omitempty"`
	Flat       *string  `json:"flat,omitempty"`
	QueryID    *string  `json:"queryId,omitempty"`
	From       *string  `json:"from,omitempty"`
}
