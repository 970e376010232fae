package registry

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/fer0n/splitbill/internal/calculator"
	"github.com/fer0n/splitbill/internal/models"
	"github.com/fer0n/splitbill/internal/undo"
)

// totalTransactionInvolved reports whether linking the card to the
// transaction would violate total-exclusivity: the total card never shares
// a line item that already has shares, and a normal card never links to the
// designated total transaction.
func (r *Registry) totalTransactionInvolved(card *models.Card, transactionID uuid.UUID) bool {
	if card.Type == models.CardTotal {
		t, ok := r.transactions[transactionID]
		return ok && len(t.Shares) >= 1
	}
	return transactionID == r.totalTransactionID
}

// LinkTransaction adds the transaction to the card and gives the card a
// share of it. A no-op when the card or transaction is unknown, the link
// already exists, or total-exclusivity would be violated. Linking a
// non-summary transaction to the total card designates it as the new total
// transaction. Validation failures from the allocation engine leave state
// unchanged.
func (r *Registry) LinkTransaction(cardID, transactionID uuid.UUID) error {
	i, ok := r.cardAt(cardID)
	if !ok {
		return nil
	}
	t, ok := r.transactions[transactionID]
	if !ok || r.cards[i].HasTransaction(transactionID) || r.totalTransactionInvolved(&r.cards[i], transactionID) {
		return nil
	}

	r.history.Begin()
	defer r.history.End()

	clone := t.Clone()
	if err := calculator.AddShare(&clone, cardID, models.ShareValue{}); err != nil {
		return err
	}
	r.commitTransaction(clone)
	if cardID == r.totalCardID && t.Type != models.TransactionCardSummary {
		r.totalTransactionID = transactionID
	}
	r.cards[i].AddTransactionID(transactionID)
	r.history.Register(undo.Command{
		Op:            undo.OpUnlink,
		CardID:        cardID,
		TransactionID: transactionID,
	})
	r.updateTotalValue()
	return nil
}

// LinkToActiveCards links the transaction to every active card as one
// undoable gesture.
func (r *Registry) LinkToActiveCards(transactionID uuid.UUID) error {
	r.history.Begin()
	defer r.history.End()
	for _, cardID := range r.ActiveCardIDs() {
		if err := r.LinkTransaction(cardID, transactionID); err != nil {
			return err
		}
	}
	return nil
}

// UnlinkTransaction removes the transaction from the card and drops the
// card's share. A card referencing a transaction no longer in the live set
// has gone stale and is repaired by clearing its whole list. Unlinking the
// designated total transaction clears the marker.
func (r *Registry) UnlinkTransaction(transactionID, cardID uuid.UUID) error {
	i, ok := r.cardAt(cardID)
	if !ok {
		return nil
	}
	t, ok := r.transactions[transactionID]
	if !ok {
		slog.Debug("clearing stale transaction references", "card_id", cardID)
		r.cards[i].ClearTransactions()
		return nil
	}

	r.history.Begin()
	defer r.history.End()

	clone := t.Clone()
	if err := calculator.RemoveShare(&clone, cardID); err != nil {
		return err
	}
	r.commitTransaction(clone)
	if transactionID == r.totalTransactionID {
		r.totalTransactionID = uuid.Nil
	}
	r.cards[i].RemoveTransactionID(transactionID)
	r.history.Register(undo.Command{
		Op:            undo.OpLink,
		CardID:        cardID,
		TransactionID: transactionID,
	})
	r.updateTotalValue()
	return nil
}

// UnlinkFromCards removes the transaction from each of the given cards as
// one undoable gesture.
func (r *Registry) UnlinkFromCards(transactionID uuid.UUID, cardIDs []uuid.UUID) error {
	r.history.Begin()
	defer r.history.End()
	for _, cardID := range cardIDs {
		if err := r.UnlinkTransaction(transactionID, cardID); err != nil {
			return err
		}
	}
	return nil
}

// UnlinkAll removes every transaction from the card as one undoable
// gesture.
func (r *Registry) UnlinkAll(cardID uuid.UUID) error {
	i, ok := r.cardAt(cardID)
	if !ok {
		return nil
	}
	r.history.Begin()
	defer r.history.End()
	ids := append([]uuid.UUID(nil), r.cards[i].TransactionIDs...)
	for _, transactionID := range ids {
		if err := r.UnlinkTransaction(transactionID, cardID); err != nil {
			return err
		}
	}
	r.updateTotalValue()
	return nil
}

// removeShareOnly drops a card's share without touching card lists or the
// undo log. Used while re-deriving the total card.
func (r *Registry) removeShareOnly(transactionID, cardID uuid.UUID) {
	t, ok := r.transactions[transactionID]
	if !ok {
		return
	}
	clone := t.Clone()
	if err := calculator.RemoveShare(&clone, cardID); err != nil {
		slog.Warn("failed to drop share", "transaction_id", transactionID, "error", err)
		return
	}
	r.commitTransaction(clone)
}

// changeTransaction sets or deletes a transaction and registers the inverse
// snapshot. The snapshot command restores the previous record on undo, or
// deletes the transaction again if it did not exist before.
func (r *Registry) changeTransaction(transactionID uuid.UUID, t *models.Transaction) {
	var snapshot *models.Transaction
	if old, ok := r.transactions[transactionID]; ok {
		c := old.Clone()
		snapshot = &c
	}
	if t == nil {
		delete(r.transactions, transactionID)
		if transactionID == r.totalTransactionID {
			r.totalTransactionID = uuid.Nil
		}
	} else {
		r.commitTransaction(t.Clone())
	}
	r.history.Register(undo.Command{
		Op:            undo.OpRestoreTransaction,
		TransactionID: transactionID,
		Transaction:   snapshot,
	})
}

// CreateFreeform adds a manually entered transaction with no bounding box
// and returns it.
func (r *Registry) CreateFreeform(value float64, label string) models.Transaction {
	t := models.NewTransaction(value, models.TransactionFreeForm)
	t.RawLabel = label
	r.changeTransaction(t.ID, &t)
	return t
}

// AddTransaction registers an externally built transaction (e.g. from the
// recognition pipeline) under its own id.
func (r *Registry) AddTransaction(t models.Transaction) {
	r.changeTransaction(t.ID, &t)
}

// DeleteTransaction removes a transaction entirely, first unlinking it
// from every card referencing it, as one undoable gesture.
func (r *Registry) DeleteTransaction(transactionID uuid.UUID) error {
	if _, ok := r.transactions[transactionID]; !ok {
		return ErrTransactionNotFound
	}
	r.history.Begin()
	defer r.history.End()
	for i := range r.cards {
		if r.cards[i].HasTransaction(transactionID) {
			if err := r.UnlinkTransaction(transactionID, r.cards[i].ID); err != nil {
				return err
			}
		}
	}
	r.changeTransaction(transactionID, nil)
	r.updateTotalValue()
	return nil
}

// ReplaceTransactions swaps in a freshly recognized transaction set, as
// when a new receipt image replaces the current one. Card references into
// the old set go stale and are repaired defensively on their next unlink.
func (r *Registry) ReplaceTransactions(transactions []models.Transaction) {
	r.transactions = make(map[uuid.UUID]models.Transaction, len(transactions))
	r.totalTransactionID = uuid.Nil
	for _, t := range transactions {
		r.transactions[t.ID] = t.Clone()
	}
	r.updateTotalValue()
}

// ClearAll unlinks everything from every card and drops the undo history.
func (r *Registry) ClearAll() {
	for i := range r.cards {
		// ignore errors: unlinking only fails on allocation overflow,
		// which cannot happen when shares are being removed
		_ = r.UnlinkAll(r.cards[i].ID)
	}
	r.history.Clear()
	r.updateTotalValue()
}

// EditTransactionValue changes the transaction's value. When a card is
// given and the transaction is shared between several cards, only that
// card's share is edited instead. Undoable; validation failures leave
// state unchanged.
func (r *Registry) EditTransactionValue(transactionID uuid.UUID, value float64, cardID uuid.UUID) error {
	t, ok := r.transactions[transactionID]
	if !ok {
		return ErrTransactionNotFound
	}
	if len(t.Shares) > 1 && cardID != uuid.Nil {
		if _, ok := t.Shares[cardID]; ok {
			return r.EditShare(transactionID, cardID, value)
		}
	}
	if t.Locked {
		return ErrTransactionLocked
	}

	clone := t.Clone()
	clone.SetValue(value)
	if err := calculator.RefreshShares(&clone); err != nil {
		return err
	}
	r.history.Begin()
	defer r.history.End()
	r.changeTransaction(transactionID, &clone)
	r.updateTotalValue()
	return nil
}

// EditShare fixes one card's share of the transaction to value and marks
// it manually adjusted. Undoable; validation failures leave state
// unchanged.
func (r *Registry) EditShare(transactionID, cardID uuid.UUID, value float64) error {
	t, ok := r.transactions[transactionID]
	if !ok {
		return ErrTransactionNotFound
	}
	clone := t.Clone()
	if err := calculator.EditShare(&clone, cardID, value); err != nil {
		return err
	}
	r.history.Begin()
	defer r.history.End()
	r.changeTransaction(transactionID, &clone)
	r.updateTotalValue()
	return nil
}

// ResetShare clears the manual adjustment on one card's share and
// recomputes.
func (r *Registry) ResetShare(transactionID, cardID uuid.UUID) error {
	t, ok := r.transactions[transactionID]
	if !ok {
		return ErrTransactionNotFound
	}
	clone := t.Clone()
	if err := calculator.ResetShare(&clone, cardID); err != nil {
		return err
	}
	r.commitTransaction(clone)
	r.updateTotalValue()
	return nil
}
