package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// CardType distinguishes participants from the synthetic total aggregate.
// Raw values are part of the persisted format and must not change.
type CardType int

const (
	CardNormal CardType = iota
	CardTotal
)

// ColorKey selects a card's display color. The key is persisted; the actual
// color values live in the UI layer.
type ColorKey int

const (
	ColorNeutralGray ColorKey = iota
	ColorNeutralDark
	ColorRed
	ColorOrange
	ColorYellow
	ColorGreen
	ColorBlue
	ColorPurple
)

// ColorKeys lists every assignable color, in a stable order.
var ColorKeys = []ColorKey{
	ColorNeutralGray, ColorNeutralDark, ColorRed, ColorOrange,
	ColorYellow, ColorGreen, ColorBlue, ColorPurple,
}

// Card is a participant splitting the bill, or the synthetic "total" card
// holding computed per-person subtotals and the grand total.
type Card struct {
	ID uuid.UUID `json:"id"`

	// RawName is the stored display name. Use Name: the total card's name
	// is derived, not stored.
	RawName string `json:"name"`

	// IsChosen marks cards participating in this session.
	IsChosen bool `json:"isChosen"`

	// IsActive marks cards targeted for new links. Session-only, never
	// persisted: every card loads inactive.
	IsActive bool `json:"-"`

	Type  CardType `json:"cardType"`
	Color ColorKey `json:"color"`

	// TransactionIDs lists linked transactions in link order.
	TransactionIDs []uuid.UUID `json:"transactionIds"`
}

// NewCard creates a chosen normal card with a fresh id.
func NewCard(name string) Card {
	return Card{ID: uuid.New(), RawName: name, IsChosen: true}
}

// NewTotalCard creates the synthetic total card.
func NewTotalCard() Card {
	return Card{
		ID:       uuid.New(),
		RawName:  "sum",
		IsChosen: true,
		Type:     CardTotal,
		Color:    ColorNeutralDark,
	}
}

// Name returns the display name. The total card's name is fixed.
func (c *Card) Name() string {
	if c.Type == CardTotal {
		return "sum"
	}
	return c.RawName
}

// HasTransaction reports whether the transaction is linked to this card.
func (c *Card) HasTransaction(transactionID uuid.UUID) bool {
	for _, id := range c.TransactionIDs {
		if id == transactionID {
			return true
		}
	}
	return false
}

// AddTransactionID appends a linked transaction.
func (c *Card) AddTransactionID(transactionID uuid.UUID) {
	c.TransactionIDs = append(c.TransactionIDs, transactionID)
}

// RemoveTransactionID unlinks a transaction, preserving order.
func (c *Card) RemoveTransactionID(transactionID uuid.UUID) {
	kept := c.TransactionIDs[:0]
	for _, id := range c.TransactionIDs {
		if id != transactionID {
			kept = append(kept, id)
		}
	}
	c.TransactionIDs = kept
}

// ClearTransactions drops every linked transaction id. Used to repair cards
// whose references went stale.
func (c *Card) ClearTransactions() {
	c.TransactionIDs = nil
}

// Clone returns a deep copy.
func (c *Card) Clone() Card {
	out := *c
	if c.TransactionIDs != nil {
		out.TransactionIDs = append([]uuid.UUID(nil), c.TransactionIDs...)
	}
	return out
}

// UnmarshalJSON decodes a card, defaulting anything optional or out of
// range so state written by other builds keeps loading.
func (c *Card) UnmarshalJSON(data []byte) error {
	type alias Card
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Type < CardNormal || a.Type > CardTotal {
		a.Type = CardNormal
	}
	if a.Color < ColorNeutralGray || a.Color > ColorPurple {
		if a.Type == CardTotal {
			a.Color = ColorNeutralDark
		} else {
			a.Color = ColorNeutralGray
		}
	}
	*c = Card(a)
	return nil
}
