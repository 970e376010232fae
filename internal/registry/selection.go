package registry

import (
	"sort"

	"github.com/google/uuid"

	"github.com/fer0n/splitbill/internal/undo"
)

// ActiveCardIDs returns the ids of cards targeted for new links, in a
// stable order.
func (r *Registry) ActiveCardIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.activeCardIDs))
	for id := range r.activeCardIDs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		a, aok := r.cardAt(out[i])
		b, bok := r.cardAt(out[j])
		if aok && bok {
			return a < b
		}
		return aok
	})
	return out
}

// IsActiveCard reports whether the card is targeted for new links.
func (r *Registry) IsActiveCard(cardID uuid.UUID) bool {
	_, ok := r.activeCardIDs[cardID]
	return ok
}

// SetActiveCard marks or unmarks the card as a link target. Single-select
// mode clears every other active flag first; multi-select toggles
// independently. Deactivating the only active card is refused so link
// targets never silently vanish.
func (r *Registry) SetActiveCard(cardID uuid.UUID, active, multiple bool) {
	if len(r.activeCardIDs) == 1 && !active {
		return
	}
	if !multiple {
		r.setAllInactive()
	}
	i, ok := r.cardAt(cardID)
	if !ok {
		return
	}
	r.cards[i].IsActive = active
	if active {
		r.activeCardIDs[cardID] = struct{}{}
	} else {
		delete(r.activeCardIDs, cardID)
	}
}

func (r *Registry) setAllInactive() {
	for i := range r.cards {
		r.cards[i].IsActive = false
	}
	r.activeCardIDs = map[uuid.UUID]struct{}{}
}

func (r *Registry) setFirstChosenCardActive() {
	for i := range r.cards {
		if r.cards[i].IsChosen {
			r.SetActiveCard(r.cards[i].ID, true, false)
			return
		}
	}
}

// EnsureActiveCardExists promotes the first chosen card to active when
// nothing is active. Invariant: if any card is chosen, at least one chosen
// card is active after this call.
func (r *Registry) EnsureActiveCardExists() {
	if len(r.activeCardIDs) == 0 {
		r.setFirstChosenCardActive()
	}
}

// ToggleChosen flips the card's participation in the session.
func (r *Registry) ToggleChosen(cardID uuid.UUID) error {
	i, ok := r.cardAt(cardID)
	if !ok {
		return ErrCardNotFound
	}
	return r.SetCardChosen(cardID, !r.cards[i].IsChosen)
}

// SetCardChosen sets the card's participation. Unchoosing force-unlinks
// all its transactions and, if it was active, promotes the first remaining
// chosen card to active. The whole gesture is one undo group.
func (r *Registry) SetCardChosen(cardID uuid.UUID, chosen bool) error {
	i, ok := r.cardAt(cardID)
	if !ok {
		return ErrCardNotFound
	}
	r.history.Begin()
	defer r.history.End()

	wasChosen := r.cards[i].IsChosen
	r.cards[i].IsChosen = chosen
	if !chosen {
		if err := r.UnlinkAll(cardID); err != nil {
			r.cards[i].IsChosen = wasChosen
			return err
		}
		if r.IsActiveCard(cardID) {
			r.cards[i].IsActive = false
			delete(r.activeCardIDs, cardID)
			r.setFirstChosenCardActive()
		}
	} else {
		r.EnsureActiveCardExists()
	}
	r.history.Register(undo.Command{
		Op:     undo.OpSetChosen,
		CardID: cardID,
		Chosen: wasChosen,
	})
	r.updateTotalValue()
	return nil
}
