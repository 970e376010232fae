// Package service ties the registry to storage and exposes the command
// surface the transport layer calls into.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fer0n/splitbill/internal/models"
	"github.com/fer0n/splitbill/internal/ocr"
	"github.com/fer0n/splitbill/internal/registry"
	"github.com/fer0n/splitbill/internal/storage"
)

// DefaultSaveDelay is how long after the last mutation the session is
// persisted. Each new mutation resets the timer; saves are not queued.
const DefaultSaveDelay = 3 * time.Second

// RecognizeInput carries one recognition pass: the text lines with
// normalized bounding boxes plus the image geometry they refer to.
type RecognizeInput struct {
	Lines       []ocr.Line
	ImageWidth  float64
	ImageHeight float64
	Format      ocr.Format
}

// Session serializes every registry mutation behind one mutex (the HTTP
// host runs handlers concurrently) and persists state with a debounced,
// fire-and-forget save.
type Session struct {
	mu        sync.Mutex
	reg       *registry.Registry
	store     storage.Store
	saveDelay time.Duration
	saveTimer *time.Timer
}

// New restores persisted state from the store and builds a session on it.
func New(ctx context.Context, store storage.Store, saveDelay time.Duration) (*Session, error) {
	state, err := store.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	if saveDelay <= 0 {
		saveDelay = DefaultSaveDelay
	}
	return &Session{
		reg:       registry.New(state.Cards, state.Transactions),
		store:     store,
		saveDelay: saveDelay,
	}, nil
}

// scheduleSave resets the debounce timer. Called with mu held.
func (s *Session) scheduleSave() {
	if s.saveTimer == nil {
		s.saveTimer = time.AfterFunc(s.saveDelay, s.persist)
		return
	}
	s.saveTimer.Reset(s.saveDelay)
}

// persist snapshots the registry under the lock and writes the snapshot
// outside it, so saving never blocks mutations. Last write wins.
func (s *Session) persist() {
	s.mu.Lock()
	cards, transactions := s.reg.State()
	s.mu.Unlock()

	state := &storage.State{Cards: cards, Transactions: transactions}
	if err := s.store.SaveState(context.Background(), state); err != nil {
		slog.Error("failed to persist session", "error", err)
		return
	}
	slog.Debug("session persisted", "cards", len(cards), "transactions", len(transactions))
}

// Flush cancels any pending debounce and persists immediately.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.mu.Unlock()
	s.persist()
}

// mutate runs fn under the lock and schedules a save when it succeeds.
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	s.scheduleSave()
	return nil
}

// Recognize extracts amounts from recognized text lines and replaces the
// current transaction set, as when a new receipt image arrives.
func (s *Session) Recognize(in RecognizeInput) []models.Transaction {
	detected := ocr.RecognizeAmounts(in.Lines, in.ImageWidth, in.ImageHeight, in.Format)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.ReplaceTransactions(detected)
	s.scheduleSave()
	slog.Info("transactions recognized", "lines", len(in.Lines), "amounts", len(detected))
	return detected
}

// LinkTransaction links the transaction to the card.
func (s *Session) LinkTransaction(cardID, transactionID uuid.UUID) error {
	return s.mutate(func() error { return s.reg.LinkTransaction(cardID, transactionID) })
}

// LinkToActiveCards links the transaction to every active card.
func (s *Session) LinkToActiveCards(transactionID uuid.UUID) error {
	return s.mutate(func() error { return s.reg.LinkToActiveCards(transactionID) })
}

// UnlinkTransaction removes the transaction from the card.
func (s *Session) UnlinkTransaction(transactionID, cardID uuid.UUID) error {
	return s.mutate(func() error { return s.reg.UnlinkTransaction(transactionID, cardID) })
}

// CreateFreeform adds a manually entered transaction.
func (s *Session) CreateFreeform(value float64, label string) models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.reg.CreateFreeform(value, label)
	s.scheduleSave()
	return t
}

// DeleteTransaction removes a transaction and all links to it.
func (s *Session) DeleteTransaction(transactionID uuid.UUID) error {
	return s.mutate(func() error { return s.reg.DeleteTransaction(transactionID) })
}

// EditTransactionValue changes a transaction's value, or one card's share
// of it when the transaction is shared and a card is given.
func (s *Session) EditTransactionValue(transactionID uuid.UUID, value float64, cardID uuid.UUID) error {
	return s.mutate(func() error { return s.reg.EditTransactionValue(transactionID, value, cardID) })
}

// EditShare fixes one card's share of a transaction.
func (s *Session) EditShare(transactionID, cardID uuid.UUID, value float64) error {
	return s.mutate(func() error { return s.reg.EditShare(transactionID, cardID, value) })
}

// ResetShare clears a manual adjustment.
func (s *Session) ResetShare(transactionID, cardID uuid.UUID) error {
	return s.mutate(func() error { return s.reg.ResetShare(transactionID, cardID) })
}

// AddCard creates a new chosen card.
func (s *Session) AddCard(name string) models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	card := s.reg.AddCard(name)
	s.scheduleSave()
	return card
}

// RenameCard sets a card's display name.
func (s *Session) RenameCard(cardID uuid.UUID, name string) error {
	return s.mutate(func() error { return s.reg.RenameCard(cardID, name) })
}

// SetCardColor sets a card's color key.
func (s *Session) SetCardColor(cardID uuid.UUID, color models.ColorKey) error {
	return s.mutate(func() error { return s.reg.SetCardColor(cardID, color) })
}

// DeleteCard removes a card after unlinking its transactions.
func (s *Session) DeleteCard(cardID uuid.UUID) error {
	return s.mutate(func() error { return s.reg.DeleteCard(cardID) })
}

// ToggleChosen flips a card's participation.
func (s *Session) ToggleChosen(cardID uuid.UUID) error {
	return s.mutate(func() error { return s.reg.ToggleChosen(cardID) })
}

// SetActiveCard marks or unmarks a card as a link target.
func (s *Session) SetActiveCard(cardID uuid.UUID, active, multiple bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.SetActiveCard(cardID, active, multiple)
}

// Undo reverts the most recent mutation group.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.reg.Undo()
	if ok {
		s.scheduleSave()
	}
	return ok
}

// Redo replays the most recently undone group.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.reg.Redo()
	if ok {
		s.scheduleSave()
	}
	return ok
}

// ClearAll unlinks everything and drops the undo history.
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.ClearAll()
	s.scheduleSave()
}

// Cards returns all cards in registry order.
func (s *Session) Cards() []models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Cards()
}

// ChosenCards returns the cards participating in this session.
func (s *Session) ChosenCards() []models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.ChosenCards()
}

// ActiveCardIDs returns the cards targeted for new links.
func (s *Session) ActiveCardIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.ActiveCardIDs()
}

// TotalCard returns the synthetic total card, creating it on first access.
func (s *Session) TotalCard() models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.TotalCard()
}

// Card returns one card by id.
func (s *Session) Card(cardID uuid.UUID) (models.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Card(cardID)
}

// Transaction returns one transaction by id.
func (s *Session) Transaction(transactionID uuid.UUID) (models.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Transaction(transactionID)
}

// Transactions returns every transaction.
func (s *Session) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Transactions()
}

// SortedTransactions returns a card's transactions in display order.
func (s *Session) SortedTransactions(cardID uuid.UUID) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.SortedTransactions(cardID)
}

// Sum returns a card's subtotal.
func (s *Session) Sum(cardID uuid.UUID) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Sum(cardID)
}

// CanUndo reports whether undo history exists.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.CanUndo()
}

// CanRedo reports whether redo history exists.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.CanRedo()
}
