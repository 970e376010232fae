package registry

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/fer0n/splitbill/internal/models"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Sum returns the card's subtotal: its share of every linked transaction,
// or the transaction's own value where no share exists, rounded to cents.
func (r *Registry) Sum(cardID uuid.UUID) float64 {
	i, ok := r.cardAt(cardID)
	if !ok {
		return 0
	}
	var sum float64
	for _, transactionID := range r.cards[i].TransactionIDs {
		if t, ok := r.Transaction(transactionID); ok {
			sum += t.ValueFor(cardID)
		}
	}
	return round2(sum)
}

// TotalOf sums the subtotals of the given cards.
func (r *Registry) TotalOf(cardIDs []uuid.UUID) float64 {
	var total float64
	for _, id := range cardIDs {
		total += r.Sum(id)
	}
	return round2(total)
}

// SortedTransactions returns the card's transactions in display order:
// top-to-bottom by bounding box for normal cards, list order for the total
// card, which keeps its derived layout of subtotals, divider and grand
// total.
func (r *Registry) SortedTransactions(cardID uuid.UUID) []models.Transaction {
	i, ok := r.cardAt(cardID)
	if !ok {
		return nil
	}
	ids := append([]uuid.UUID(nil), r.cards[i].TransactionIDs...)
	if r.cards[i].Type != models.CardTotal {
		minY := func(id uuid.UUID) float64 {
			if t, ok := r.transactions[id]; ok && t.BoundingBox != nil {
				return t.BoundingBox.MinY()
			}
			return 0
		}
		sort.SliceStable(ids, func(a, b int) bool { return minY(ids[a]) < minY(ids[b]) })
	}
	out := make([]models.Transaction, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.Transaction(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// updateTotalValue re-derives the total card's contents: one locked
// card-summary transaction per chosen normal card (keyed by the card's own
// id), then, while a designated total transaction is linked, the divider
// and the grand total. Entirely derived, never edited directly. Previously
// linked ids that fall out of the computed set are unlinked.
func (r *Registry) updateTotalValue() {
	i, ok := r.cardAt(r.totalCardID)
	if !ok || !r.cards[i].IsChosen {
		return
	}
	oldIDs := r.cards[i].TransactionIDs
	var ids []uuid.UUID

	for _, ci := range r.chosenNormalCards() {
		card := &r.cards[ci]
		sum := r.Sum(card.ID)
		if t, ok := r.transactions[card.ID]; ok {
			t.RawValue = sum
			r.transactions[card.ID] = t
		} else {
			summary := models.Transaction{
				ID:       card.ID,
				RawValue: sum,
				Type:     models.TransactionCardSummary,
				RawLabel: card.Name(),
				Locked:   true,
			}
			r.transactions[card.ID] = summary
		}
		ids = append(ids, card.ID)
	}

	if r.totalTransactionID != uuid.Nil && contains(oldIDs, r.totalTransactionID) {
		if _, ok := r.transactions[dividerID]; !ok {
			r.transactions[dividerID] = models.Transaction{
				ID:   dividerID,
				Type: models.TransactionDivider,
			}
		}
		ids = append(ids, dividerID, r.totalTransactionID)
	}

	for _, id := range oldIDs {
		if !contains(ids, id) {
			r.removeShareOnly(id, r.cards[i].ID)
		}
	}
	r.cards[i].TransactionIDs = ids
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
