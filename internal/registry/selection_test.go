package registry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fer0n/splitbill/internal/models"
)

func TestFirstChosenCardStartsActive(t *testing.T) {
	r, alice, bob, _ := newTestRegistry(t)
	assert.Equal(t, []uuid.UUID{alice.ID}, r.ActiveCardIDs())
	assert.True(t, r.IsActiveCard(alice.ID))
	assert.False(t, r.IsActiveCard(bob.ID))
}

func TestSetActiveCardSingleSelect(t *testing.T) {
	r, alice, bob, _ := newTestRegistry(t)

	r.SetActiveCard(bob.ID, true, false)
	assert.Equal(t, []uuid.UUID{bob.ID}, r.ActiveCardIDs())
	assert.False(t, r.IsActiveCard(alice.ID))
}

func TestSetActiveCardMultiSelect(t *testing.T) {
	r, alice, bob, _ := newTestRegistry(t)

	r.SetActiveCard(bob.ID, true, true)
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, r.ActiveCardIDs())
	// returned in card order
	assert.Equal(t, []uuid.UUID{alice.ID, bob.ID}, r.ActiveCardIDs())

	r.SetActiveCard(alice.ID, false, true)
	assert.Equal(t, []uuid.UUID{bob.ID}, r.ActiveCardIDs())
}

func TestDeactivatingLastActiveCardIsRefused(t *testing.T) {
	r, alice, _, _ := newTestRegistry(t)
	r.SetActiveCard(alice.ID, false, true)
	assert.Equal(t, []uuid.UUID{alice.ID}, r.ActiveCardIDs())
}

func TestLinkToActiveCards(t *testing.T) {
	r, alice, bob, tx := newTestRegistry(t)
	r.SetActiveCard(bob.ID, true, true)

	require.NoError(t, r.LinkToActiveCards(tx.ID))
	assert.Equal(t, 5.0, r.Sum(alice.ID))
	assert.Equal(t, 5.0, r.Sum(bob.ID))

	// one gesture, one undo step
	require.True(t, r.Undo())
	assert.Equal(t, 0.0, r.Sum(alice.ID))
	assert.Equal(t, 0.0, r.Sum(bob.ID))
	assert.False(t, r.CanUndo())
}

func TestUnchoosingCardForceUnlinks(t *testing.T) {
	r, alice, bob, tx := newTestRegistry(t)
	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))
	require.NoError(t, r.LinkTransaction(bob.ID, tx.ID))

	require.NoError(t, r.ToggleChosen(bob.ID))
	card, _ := r.Card(bob.ID)
	assert.False(t, card.IsChosen)
	assert.Empty(t, card.TransactionIDs)
	assert.Equal(t, 10.0, r.Sum(alice.ID), "share flows back to the remaining card")
}

func TestUnchoosingActiveCardPromotesAnother(t *testing.T) {
	r, alice, bob, _ := newTestRegistry(t)
	require.Equal(t, []uuid.UUID{alice.ID}, r.ActiveCardIDs())

	require.NoError(t, r.ToggleChosen(alice.ID))
	assert.Equal(t, []uuid.UUID{bob.ID}, r.ActiveCardIDs())
}

func TestUndoRestoresChosenAndLinks(t *testing.T) {
	r, alice, bob, tx := newTestRegistry(t)
	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))
	require.NoError(t, r.LinkTransaction(bob.ID, tx.ID))

	require.NoError(t, r.ToggleChosen(bob.ID))
	require.True(t, r.Undo())

	card, _ := r.Card(bob.ID)
	assert.True(t, card.IsChosen)
	assert.True(t, card.HasTransaction(tx.ID))
	assert.Equal(t, 5.0, r.Sum(bob.ID))
}

func TestToggleChosenUnknownCard(t *testing.T) {
	r, _, _, _ := newTestRegistry(t)
	assert.ErrorIs(t, r.ToggleChosen(uuid.New()), ErrCardNotFound)
}

func TestAddCard(t *testing.T) {
	r := New(nil, nil)
	card := r.AddCard("alice")
	assert.Equal(t, "alice", card.Name())
	assert.True(t, card.IsChosen)
	assert.Equal(t, []uuid.UUID{card.ID}, r.ActiveCardIDs(), "first card becomes active")

	second := r.AddCard("bob")
	cards := r.Cards()
	require.Len(t, cards, 2)
	assert.Equal(t, second.ID, cards[0].ID, "new cards insert at the front")
	assert.NotEqual(t, card.Color, second.Color, "colors spread across cards")
}

func TestRenameCard(t *testing.T) {
	r, alice, _, _ := newTestRegistry(t)
	require.NoError(t, r.RenameCard(alice.ID, "alicia"))
	card, _ := r.Card(alice.ID)
	assert.Equal(t, "alicia", card.Name())

	// the total card keeps its derived name
	total := r.TotalCard()
	require.NoError(t, r.RenameCard(total.ID, "nope"))
	card, _ = r.Card(total.ID)
	assert.Equal(t, "sum", card.Name())

	assert.ErrorIs(t, r.RenameCard(uuid.New(), "x"), ErrCardNotFound)
}

func TestSetCardColor(t *testing.T) {
	r, alice, _, _ := newTestRegistry(t)
	require.NoError(t, r.SetCardColor(alice.ID, models.ColorPurple))
	card, _ := r.Card(alice.ID)
	assert.Equal(t, models.ColorPurple, card.Color)
}

func TestDeleteCard(t *testing.T) {
	r, alice, bob, tx := newTestRegistry(t)
	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))
	require.NoError(t, r.LinkTransaction(bob.ID, tx.ID))

	require.NoError(t, r.DeleteCard(alice.ID))
	_, ok := r.Card(alice.ID)
	assert.False(t, ok)
	assert.Equal(t, 10.0, shareOf(t, r, tx.ID, bob.ID).Value.Float())
	assert.Equal(t, []uuid.UUID{bob.ID}, r.ActiveCardIDs(), "active selection survives the delete")

	assert.ErrorIs(t, r.DeleteCard(uuid.New()), ErrCardNotFound)
}

func TestTotalCardSingleton(t *testing.T) {
	r, _, _, _ := newTestRegistry(t)
	first := r.TotalCard()
	second := r.TotalCard()
	assert.Equal(t, first.ID, second.ID)

	count := 0
	for _, c := range r.Cards() {
		if c.Type == models.CardTotal {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
