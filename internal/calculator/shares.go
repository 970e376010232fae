package calculator

import (
	"sort"

	"github.com/google/uuid"

	"github.com/fer0n/splitbill/internal/models"
)

// AddShare inserts an unadjusted share for the card and recomputes. An
// initial value may be supplied; it is replaced by the next recompute
// unless marked adjusted first.
func AddShare(t *models.Transaction, cardID uuid.UUID, initial models.ShareValue) error {
	if t.Shares == nil {
		t.Shares = map[uuid.UUID]models.Share{}
	}
	t.Shares[cardID] = models.Share{CardID: cardID, Value: initial}
	return RefreshShares(t)
}

// RemoveShare deletes the card's share and recomputes the rest. A single
// surviving share loses its manual adjustment: it must carry the whole
// amount again, or the sum invariant would silently break.
func RemoveShare(t *models.Transaction, cardID uuid.UUID) error {
	delete(t.Shares, cardID)
	if len(t.Shares) == 1 {
		for id, s := range t.Shares {
			s.ManuallyAdjusted = false
			t.Shares[id] = s
		}
	}
	return RefreshShares(t)
}

// ResetShare clears the manual adjustment on the card's share and
// recomputes. A missing share is a no-op.
func ResetShare(t *models.Transaction, cardID uuid.UUID) error {
	s, ok := t.Shares[cardID]
	if !ok {
		return nil
	}
	s.ManuallyAdjusted = false
	t.Shares[cardID] = s
	return RefreshShares(t)
}

// EditShare fixes the card's share to value, marks it manually adjusted and
// recomputes the remaining shares. Fails with ErrShareForCardNotFound if
// the card holds no share, and with ErrLastShareCannotBeAdjustedManually if
// adjusting this share would leave a multi-share transaction without any
// auto-computed share to absorb the remainder.
func EditShare(t *models.Transaction, cardID uuid.UUID, value float64) error {
	s, ok := t.Shares[cardID]
	if !ok {
		return ErrShareForCardNotFound
	}
	if !s.ManuallyAdjusted && len(t.Shares) > 1 && countUnadjusted(t) == 1 {
		return ErrLastShareCannotBeAdjustedManually
	}
	s.Value = models.Amount(value)
	s.ManuallyAdjusted = true
	t.Shares[cardID] = s
	return RefreshShares(t)
}

// RefreshShares recomputes every unadjusted share: the amount left after
// subtracting all manually adjusted shares is split evenly across them.
// With no unadjusted share left there is nothing to distribute and the
// shares are left as they are.
//
// Split pieces are assigned in ascending card-id order. The ordering is
// arbitrary but deterministic, so recomputation never depends on map
// iteration order.
func RefreshShares(t *models.Transaction) error {
	remaining := t.Value()
	count := 0
	for _, s := range t.Shares {
		if s.ManuallyAdjusted {
			remaining -= s.Value.Float()
		} else {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	splits, err := SplitAmount(remaining, count)
	if err != nil {
		return err
	}
	for i, id := range unadjustedCardIDs(t) {
		s := t.Shares[id]
		s.Value = models.Amount(splits[i])
		t.Shares[id] = s
	}
	return nil
}

func countUnadjusted(t *models.Transaction) int {
	n := 0
	for _, s := range t.Shares {
		if !s.ManuallyAdjusted {
			n++
		}
	}
	return n
}

func unadjustedCardIDs(t *models.Transaction) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Shares))
	for id, s := range t.Shares {
		if !s.ManuallyAdjusted {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
