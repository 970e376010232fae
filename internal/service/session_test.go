package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fer0n/splitbill/internal/models"
	"github.com/fer0n/splitbill/internal/ocr"
	"github.com/fer0n/splitbill/internal/storage"
)

// memStore is an in-memory storage.Store that counts saves.
type memStore struct {
	mu      sync.Mutex
	state   *storage.State
	saves   int
	loadErr error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{state: &storage.State{}}
}

func (m *memStore) SaveState(_ context.Context, state *storage.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = state
	m.saves++
	return nil
}

func (m *memStore) LoadState(context.Context) (*storage.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.state, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memStore) savedState() *storage.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func newTestSession(t *testing.T, store *memStore, delay time.Duration) *Session {
	t.Helper()
	s, err := New(context.Background(), store, delay)
	require.NoError(t, err)
	return s
}

func TestNewLoadsPersistedState(t *testing.T) {
	store := newMemStore()
	alice := models.NewCard("alice")
	tx := models.NewTransaction(5.0, models.TransactionNormal)
	alice.AddTransactionID(tx.ID)
	store.state = &storage.State{
		Cards:        []models.Card{alice},
		Transactions: map[uuid.UUID]models.Transaction{tx.ID: tx},
	}

	s := newTestSession(t, store, time.Hour)
	cards := s.Cards()
	require.Len(t, cards, 1)
	assert.Equal(t, "alice", cards[0].Name())
	assert.Equal(t, 5.0, s.Sum(alice.ID))
}

func TestNewPropagatesLoadError(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("disk gone")
	_, err := New(context.Background(), store, time.Hour)
	assert.Error(t, err)
}

func TestMutationsDebounceIntoOneSave(t *testing.T) {
	store := newMemStore()
	s := newTestSession(t, store, 30*time.Millisecond)

	card := s.AddCard("alice")
	tx := s.CreateFreeform(10.0, "pizza")
	require.NoError(t, s.LinkTransaction(card.ID, tx.ID))
	assert.Equal(t, 0, store.saveCount(), "save should be debounced")

	require.Eventually(t, func() bool { return store.saveCount() == 1 },
		time.Second, 5*time.Millisecond)

	saved := store.savedState()
	require.Len(t, saved.Cards, 1)
	assert.True(t, saved.Cards[0].HasTransaction(tx.ID))
	assert.Contains(t, saved.Transactions, tx.ID)
}

func TestFailedMutationDoesNotSchedule(t *testing.T) {
	store := newMemStore()
	s := newTestSession(t, store, 20*time.Millisecond)

	assert.Error(t, s.DeleteTransaction(uuid.New()))
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, store.saveCount())
}

func TestFlush(t *testing.T) {
	store := newMemStore()
	s := newTestSession(t, store, time.Hour)

	s.AddCard("alice")
	assert.Equal(t, 0, store.saveCount())

	s.Flush()
	assert.Equal(t, 1, store.saveCount())
	require.Len(t, store.savedState().Cards, 1)
}

func TestRecognizeReplacesTransactions(t *testing.T) {
	store := newMemStore()
	s := newTestSession(t, store, time.Hour)
	old := s.CreateFreeform(1.0, "stale")

	detected := s.Recognize(RecognizeInput{
		Lines: []ocr.Line{
			{Text: "Pasta 11.90", Box: models.Rect{X: 0, Y: 0.6, Width: 1, Height: 0.02}},
			{Text: "Wasser 2,50", Box: models.Rect{X: 0, Y: 0.5, Width: 1, Height: 0.02}},
		},
		ImageWidth:  1000,
		ImageHeight: 1500,
		Format:      ocr.FormatJPEG,
	})
	require.Len(t, detected, 2)
	assert.Equal(t, 11.9, detected[0].RawValue)
	assert.Equal(t, 2.5, detected[1].RawValue)

	_, ok := s.Transaction(old.ID)
	assert.False(t, ok, "recognition replaces the old transaction set")
	assert.Len(t, s.Transactions(), 2)
}

func TestSessionCommandSurface(t *testing.T) {
	store := newMemStore()
	s := newTestSession(t, store, time.Hour)

	alice := s.AddCard("alice")
	bob := s.AddCard("bob")
	tx := s.CreateFreeform(10.0, "dinner")

	s.SetActiveCard(alice.ID, true, true)
	s.SetActiveCard(bob.ID, true, true)
	require.NoError(t, s.LinkToActiveCards(tx.ID))
	assert.Equal(t, 5.0, s.Sum(alice.ID))
	assert.Equal(t, 5.0, s.Sum(bob.ID))

	require.NoError(t, s.EditShare(tx.ID, alice.ID, 2.0))
	assert.Equal(t, 2.0, s.Sum(alice.ID))
	assert.Equal(t, 8.0, s.Sum(bob.ID))

	require.NoError(t, s.ResetShare(tx.ID, alice.ID))
	assert.Equal(t, 5.0, s.Sum(alice.ID))

	require.True(t, s.CanUndo())
	require.True(t, s.Undo())
	require.True(t, s.CanRedo())
	require.True(t, s.Redo())

	total := s.TotalCard()
	assert.Equal(t, "sum", total.Name())

	require.NoError(t, s.RenameCard(alice.ID, "alicia"))
	card, ok := s.Card(alice.ID)
	require.True(t, ok)
	assert.Equal(t, "alicia", card.Name())

	require.NoError(t, s.SetCardColor(alice.ID, models.ColorBlue))
	require.NoError(t, s.ToggleChosen(bob.ID))
	assert.Len(t, s.ChosenCards(), 2, "alice and the total card remain chosen")

	s.ClearAll()
	assert.False(t, s.CanUndo())
	assert.Equal(t, 0.0, s.Sum(alice.ID))
}
