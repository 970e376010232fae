package registry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fer0n/splitbill/internal/models"
)

func TestUndoRedoLink(t *testing.T) {
	r, alice, _, tx := newTestRegistry(t)
	assert.False(t, r.CanUndo())
	assert.False(t, r.Undo())

	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))
	require.True(t, r.CanUndo())

	require.True(t, r.Undo())
	card, _ := r.Card(alice.ID)
	assert.False(t, card.HasTransaction(tx.ID))
	assert.True(t, r.CanRedo())

	require.True(t, r.Redo())
	card, _ = r.Card(alice.ID)
	assert.True(t, card.HasTransaction(tx.ID))
	assert.Equal(t, 10.0, r.Sum(alice.ID))
	assert.False(t, r.CanRedo())
}

func TestUndoEditValueRestoresShares(t *testing.T) {
	r, alice, bob, tx := newTestRegistry(t)
	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))
	require.NoError(t, r.LinkTransaction(bob.ID, tx.ID))

	require.NoError(t, r.EditTransactionValue(tx.ID, 30.0, uuid.Nil))
	assert.Equal(t, 15.0, r.Sum(alice.ID))

	require.True(t, r.Undo())
	got, _ := r.Transaction(tx.ID)
	assert.Equal(t, 10.0, got.RawValue)
	assert.Equal(t, 5.0, r.Sum(alice.ID))
	assert.Equal(t, 5.0, r.Sum(bob.ID))
}

func TestUndoEditShare(t *testing.T) {
	r, alice, bob, tx := newTestRegistry(t)
	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))
	require.NoError(t, r.LinkTransaction(bob.ID, tx.ID))

	require.NoError(t, r.EditShare(tx.ID, alice.ID, 2.0))
	assert.Equal(t, 8.0, r.Sum(bob.ID))

	require.True(t, r.Undo())
	s := shareOf(t, r, tx.ID, alice.ID)
	assert.False(t, s.ManuallyAdjusted)
	assert.Equal(t, 5.0, s.Value.Float())
}

func TestUndoDeleteTransactionRestoresLinks(t *testing.T) {
	r, alice, bob, tx := newTestRegistry(t)
	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))
	require.NoError(t, r.LinkTransaction(bob.ID, tx.ID))

	require.NoError(t, r.DeleteTransaction(tx.ID))
	_, ok := r.Transaction(tx.ID)
	require.False(t, ok)

	require.True(t, r.Undo())
	got, ok := r.Transaction(tx.ID)
	require.True(t, ok)
	assert.Equal(t, 10.0, got.RawValue)
	for _, id := range []uuid.UUID{alice.ID, bob.ID} {
		card, _ := r.Card(id)
		assert.True(t, card.HasTransaction(tx.ID))
	}
	assert.Equal(t, 5.0, r.Sum(alice.ID))
	assert.Equal(t, 5.0, r.Sum(bob.ID))
}

func TestUndoCreateFreeformDeletesIt(t *testing.T) {
	r, _, _, _ := newTestRegistry(t)
	tx := r.CreateFreeform(3.0, "tip")

	require.True(t, r.Undo())
	_, ok := r.Transaction(tx.ID)
	assert.False(t, ok)

	require.True(t, r.Redo())
	got, ok := r.Transaction(tx.ID)
	require.True(t, ok)
	assert.Equal(t, 3.0, got.RawValue)
}

func TestNewMutationClearsRedo(t *testing.T) {
	r, alice, bob, tx := newTestRegistry(t)
	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))
	require.True(t, r.Undo())
	require.True(t, r.CanRedo())

	require.NoError(t, r.LinkTransaction(bob.ID, tx.ID))
	assert.False(t, r.CanRedo())
}

func TestSortedTransactions(t *testing.T) {
	top := models.NewTransaction(1.0, models.TransactionNormal)
	top.BoundingBox = &models.Rect{X: 0, Y: 10, Width: 100, Height: 20}
	bottom := models.NewTransaction(2.0, models.TransactionNormal)
	bottom.BoundingBox = &models.Rect{X: 0, Y: 200, Width: 100, Height: 20}

	alice := models.NewCard("alice")
	r := New([]models.Card{alice}, map[uuid.UUID]models.Transaction{
		top.ID:    top,
		bottom.ID: bottom,
	})
	// linked bottom-first; display order follows the receipt, not the
	// link order
	require.NoError(t, r.LinkTransaction(alice.ID, bottom.ID))
	require.NoError(t, r.LinkTransaction(alice.ID, top.ID))

	got := r.SortedTransactions(alice.ID)
	require.Len(t, got, 2)
	assert.Equal(t, top.ID, got[0].ID)
	assert.Equal(t, bottom.ID, got[1].ID)
}

func TestSortedTransactionsTotalCardKeepsLayout(t *testing.T) {
	r, alice, bob, tx := newTestRegistry(t)
	total := r.TotalCard()
	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))
	require.NoError(t, r.LinkTransaction(bob.ID, tx.ID))
	totalTx := models.NewTransaction(-10.0, models.TransactionNormal)
	r.AddTransaction(totalTx)
	require.NoError(t, r.LinkTransaction(total.ID, totalTx.ID))

	got := r.SortedTransactions(total.ID)
	require.Len(t, got, 4)
	assert.Equal(t, models.TransactionCardSummary, got[0].Type)
	assert.Equal(t, models.TransactionCardSummary, got[1].Type)
	assert.Equal(t, models.TransactionDivider, got[2].Type)
	assert.Equal(t, models.TransactionTotal, got[3].Type)
}

func TestStateSnapshotIsDeep(t *testing.T) {
	r, alice, _, tx := newTestRegistry(t)
	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))

	cards, transactions := r.State()
	require.NotEmpty(t, cards)
	cards[0].TransactionIDs = nil
	snap := transactions[tx.ID]
	snap.Shares[alice.ID] = models.Share{CardID: alice.ID, Value: models.Amount(99)}

	card, _ := r.Card(alice.ID)
	assert.True(t, card.HasTransaction(tx.ID), "snapshot mutation leaked into the registry")
	assert.Equal(t, 10.0, shareOf(t, r, tx.ID, alice.ID).Value.Float())
}

func TestTotalOf(t *testing.T) {
	r, alice, bob, tx := newTestRegistry(t)
	require.NoError(t, r.LinkTransaction(alice.ID, tx.ID))
	require.NoError(t, r.LinkTransaction(bob.ID, tx.ID))
	assert.Equal(t, 10.0, r.TotalOf([]uuid.UUID{alice.ID, bob.ID}))
}
