// Package registry owns the session state: the card list and the
// transaction map. It enforces linking rules, keeps the synthetic total
// card derived, and records an inverse command for every mutation so a
// whole user gesture can be undone atomically.
//
// A Registry is not safe for concurrent use. Callers must serialize access;
// the service layer does this with a single mutex.
package registry

import (
	"github.com/google/uuid"

	"github.com/fer0n/splitbill/internal/models"
	"github.com/fer0n/splitbill/internal/undo"
)

// dividerID identifies the separator row inserted into the total card
// between per-person subtotals and the grand total. Fixed so the divider
// survives persistence round trips.
var dividerID = uuid.MustParse("4f1c2b6e-9d3a-47c8-8b0f-2a5e7d914c60")

// Registry holds every card and transaction of one splitting session.
type Registry struct {
	cards        []models.Card
	transactions map[uuid.UUID]models.Transaction

	cardIndex     map[uuid.UUID]int
	activeCardIDs map[uuid.UUID]struct{}

	// totalCardID is uuid.Nil until the total card is first accessed.
	totalCardID uuid.UUID
	// totalTransactionID marks which transaction currently represents the
	// grand total inside the total card; uuid.Nil when none. Owned per
	// instance so registries never interfere with each other.
	totalTransactionID uuid.UUID

	history *undo.Log
}

// New builds a registry from persisted state. Cards load inactive; the
// first chosen card is promoted to active.
func New(cards []models.Card, transactions map[uuid.UUID]models.Transaction) *Registry {
	r := &Registry{
		cards:         make([]models.Card, 0, len(cards)),
		transactions:  make(map[uuid.UUID]models.Transaction, len(transactions)),
		activeCardIDs: map[uuid.UUID]struct{}{},
		history:       undo.New(),
	}
	for _, c := range cards {
		card := c.Clone()
		card.IsActive = false
		r.cards = append(r.cards, card)
		if card.Type == models.CardTotal && r.totalCardID == uuid.Nil {
			r.totalCardID = card.ID
		}
	}
	for id, t := range transactions {
		r.transactions[id] = t.Clone()
	}
	r.rebuildCardIndex()
	r.setFirstChosenCardActive()
	return r
}

func (r *Registry) rebuildCardIndex() {
	idx := make(map[uuid.UUID]int, len(r.cards))
	for i := range r.cards {
		idx[r.cards[i].ID] = i
	}
	r.cardIndex = idx
}

func (r *Registry) cardAt(id uuid.UUID) (int, bool) {
	i, ok := r.cardIndex[id]
	return i, ok
}

// Card returns a copy of the card, if present.
func (r *Registry) Card(id uuid.UUID) (models.Card, bool) {
	if i, ok := r.cardAt(id); ok {
		return r.cards[i].Clone(), true
	}
	return models.Card{}, false
}

// Cards returns copies of all cards in registry order.
func (r *Registry) Cards() []models.Card {
	out := make([]models.Card, 0, len(r.cards))
	for i := range r.cards {
		out = append(out, r.cards[i].Clone())
	}
	return out
}

// ChosenCards returns copies of all chosen cards in registry order.
func (r *Registry) ChosenCards() []models.Card {
	out := []models.Card{}
	for i := range r.cards {
		if r.cards[i].IsChosen {
			out = append(out, r.cards[i].Clone())
		}
	}
	return out
}

func (r *Registry) chosenNormalCards() []int {
	out := []int{}
	for i := range r.cards {
		if r.cards[i].IsChosen && r.cards[i].Type == models.CardNormal {
			out = append(out, i)
		}
	}
	return out
}

// TotalCard returns the synthetic total card, creating it on first access.
// At most one total card exists per session.
func (r *Registry) TotalCard() models.Card {
	if i, ok := r.cardAt(r.totalCardID); ok {
		return r.cards[i].Clone()
	}
	card := models.NewTotalCard()
	r.cards = append(r.cards, card)
	r.totalCardID = card.ID
	r.rebuildCardIndex()
	return card
}

// Transaction returns a copy of the transaction, if present. The current
// total transaction is reported as total-typed so its value is sign-flipped
// wherever it is displayed or summed.
func (r *Registry) Transaction(id uuid.UUID) (models.Transaction, bool) {
	t, ok := r.transactions[id]
	if !ok {
		return models.Transaction{}, false
	}
	c := t.Clone()
	if id == r.totalTransactionID {
		c.Type = models.TransactionTotal
	}
	return c, true
}

// Transactions returns copies of every transaction.
func (r *Registry) Transactions() []models.Transaction {
	out := make([]models.Transaction, 0, len(r.transactions))
	for id := range r.transactions {
		t, _ := r.Transaction(id)
		out = append(out, t)
	}
	return out
}

// State snapshots the registry for persistence: cards in order and the
// full transaction map, deep-copied.
func (r *Registry) State() ([]models.Card, map[uuid.UUID]models.Transaction) {
	cards := make([]models.Card, 0, len(r.cards))
	for i := range r.cards {
		cards = append(cards, r.cards[i].Clone())
	}
	txs := make(map[uuid.UUID]models.Transaction, len(r.transactions))
	for id, t := range r.transactions {
		txs[id] = t.Clone()
	}
	return cards, txs
}

// commitTransaction stores a validated transaction clone.
func (r *Registry) commitTransaction(t models.Transaction) {
	r.transactions[t.ID] = t
}

// Undo reverts the most recent mutation group. Returns false when there is
// no history.
func (r *Registry) Undo() bool {
	return r.history.Undo(r.applyCommand)
}

// Redo replays the most recently undone group.
func (r *Registry) Redo() bool {
	return r.history.Redo(r.applyCommand)
}

// CanUndo reports whether undo history exists.
func (r *Registry) CanUndo() bool { return r.history.CanUndo() }

// CanRedo reports whether redo history exists.
func (r *Registry) CanRedo() bool { return r.history.CanRedo() }

// ClearHistory drops all undo/redo state without executing anything.
func (r *Registry) ClearHistory() {
	r.history.Clear()
}

// applyCommand interprets one inverse command during undo/redo replay.
// The mutations called here register their own inverses, which the log
// routes onto the opposite stack.
func (r *Registry) applyCommand(cmd undo.Command) {
	switch cmd.Op {
	case undo.OpLink:
		r.LinkTransaction(cmd.CardID, cmd.TransactionID)
	case undo.OpUnlink:
		r.UnlinkTransaction(cmd.TransactionID, cmd.CardID)
	case undo.OpSetChosen:
		r.SetCardChosen(cmd.CardID, cmd.Chosen)
	case undo.OpRestoreTransaction:
		r.changeTransaction(cmd.TransactionID, cmd.Transaction)
		r.updateTotalValue()
	}
}
