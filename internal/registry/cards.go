package registry

import (
	"github.com/google/uuid"

	"github.com/fer0n/splitbill/internal/models"
)

// AddCard creates a chosen card with the given name and the rarest color,
// inserts it at the front of the list and returns it.
func (r *Registry) AddCard(name string) models.Card {
	card := models.NewCard(name)
	card.Color = r.rarestColor()
	r.cards = append([]models.Card{card}, r.cards...)
	r.rebuildCardIndex()
	r.EnsureActiveCardExists()
	return card
}

// rarestColor picks the least used color key so new cards stay visually
// distinct.
func (r *Registry) rarestColor() models.ColorKey {
	counts := map[models.ColorKey]int{}
	for i := range r.cards {
		counts[r.cards[i].Color]++
	}
	rarest := models.ColorKeys[0]
	min := counts[rarest]
	for _, key := range models.ColorKeys {
		if counts[key] < min {
			rarest = key
			min = counts[key]
		}
	}
	return rarest
}

// RenameCard sets a normal card's display name.
func (r *Registry) RenameCard(cardID uuid.UUID, name string) error {
	i, ok := r.cardAt(cardID)
	if !ok {
		return ErrCardNotFound
	}
	if r.cards[i].Type == models.CardNormal {
		r.cards[i].RawName = name
	}
	return nil
}

// SetCardColor sets the card's color key.
func (r *Registry) SetCardColor(cardID uuid.UUID, color models.ColorKey) error {
	i, ok := r.cardAt(cardID)
	if !ok {
		return ErrCardNotFound
	}
	r.cards[i].Color = color
	return nil
}

// DeleteCard removes the card after unlinking all its transactions, then
// re-derives the total card and restores an active selection.
func (r *Registry) DeleteCard(cardID uuid.UUID) error {
	i, ok := r.cardAt(cardID)
	if !ok {
		return ErrCardNotFound
	}
	if err := r.UnlinkAll(cardID); err != nil {
		return err
	}
	if cardID == r.totalCardID {
		r.totalCardID = uuid.Nil
	}
	delete(r.activeCardIDs, cardID)
	r.cards = append(r.cards[:i], r.cards[i+1:]...)
	r.rebuildCardIndex()
	r.updateTotalValue()
	r.setFirstChosenCardActive()
	return nil
}
