package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// TransactionType distinguishes how a transaction came to exist and how it
// behaves. Raw values are part of the persisted format and must not change.
type TransactionType int

const (
	// TransactionNormal is a regular detected line item.
	TransactionNormal TransactionType = iota
	// TransactionTotal is the receipt's grand-total line. Its value is the
	// negative of the raw amount, see Transaction.Value.
	TransactionTotal
	// TransactionFreeForm was entered manually, without a bounding box.
	TransactionFreeForm
	// TransactionDivider is the zero-value separator row inside the total
	// card, between per-person subtotals and the grand total.
	TransactionDivider
	// TransactionCardSummary is a locked, computed row holding one card's
	// subtotal, materialized inside the total card. Its id equals the
	// summarized card's id.
	TransactionCardSummary
)

// Transaction is one monetary line item.
type Transaction struct {
	ID uuid.UUID `json:"id"`

	// RawValue is the signed amount as detected or entered. Use Value for
	// arithmetic: total-typed transactions are sign-flipped.
	RawValue float64 `json:"rawValue"`

	// BoundingBox locates the amount on the receipt image. Nil for freeform
	// and synthetic transactions.
	BoundingBox *Rect `json:"boundingBox,omitempty"`

	Type TransactionType `json:"type"`

	// RawLabel is the user-visible label, if any. Use Label, which derives
	// a label for total and shared transactions.
	RawLabel string `json:"rawLabel,omitempty"`

	// Locked transactions cannot have their value edited.
	Locked bool `json:"locked,omitempty"`

	// Shares maps card id to that card's portion of this transaction.
	Shares map[uuid.UUID]Share `json:"shares,omitempty"`
}

// NewTransaction creates a transaction of the given type with a fresh id.
func NewTransaction(value float64, typ TransactionType) Transaction {
	return Transaction{ID: uuid.New(), RawValue: value, Type: typ}
}

// Value returns the amount used for arithmetic. The "total" line on a
// receipt is conventionally the negative of the grand total, so total-typed
// transactions are sign-flipped.
func (t *Transaction) Value() float64 {
	if t.Type == TransactionTotal {
		return -t.RawValue
	}
	return t.RawValue
}

// SetValue updates the raw amount unless the transaction is locked.
func (t *Transaction) SetValue(v float64) {
	if !t.Locked {
		t.RawValue = v
	}
}

// ValueFor returns the given card's share value if one is present, else the
// transaction's own value. Unshared transactions that belong to exactly one
// card count fully toward that card.
func (t *Transaction) ValueFor(cardID uuid.UUID) float64 {
	if s, ok := t.Shares[cardID]; ok && s.Value.IsSet() {
		return s.Value.Float()
	}
	return t.Value()
}

// Label derives the display label: "total" for the grand-total line,
// "shared" when more than one card holds a share, else the raw label.
func (t *Transaction) Label() string {
	switch {
	case t.Type == TransactionTotal:
		return "total"
	case len(t.Shares) > 1:
		return "shared"
	default:
		return t.RawLabel
	}
}

// Clone returns a deep copy. The registry mutates clones and commits them
// only after validation passes, so failed operations never leave partially
// applied state behind.
func (t *Transaction) Clone() Transaction {
	c := *t
	if t.BoundingBox != nil {
		box := *t.BoundingBox
		c.BoundingBox = &box
	}
	if t.Shares != nil {
		c.Shares = make(map[uuid.UUID]Share, len(t.Shares))
		for id, s := range t.Shares {
			c.Shares[id] = s
		}
	}
	return c
}

// UnmarshalJSON decodes a transaction, defaulting anything optional or out
// of range so state written by other builds keeps loading.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type alias Transaction
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Type < TransactionNormal || a.Type > TransactionCardSummary {
		a.Type = TransactionNormal
	}
	if a.Shares == nil {
		a.Shares = map[uuid.UUID]Share{}
	}
	*t = Transaction(a)
	return nil
}
