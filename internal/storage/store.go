// Package storage provides abstractions for persistent session state.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/fer0n/splitbill/internal/models"
)

// State is the persisted shape of one splitting session: the ordered card
// list and the transaction map. Raw image bytes are owned by the app
// shell, not by this core.
type State struct {
	Cards        []models.Card
	Transactions map[uuid.UUID]models.Transaction
}

// Store defines the interface for session persistence. The abstraction
// allows swapping storage backends without changing the service layer.
type Store interface {
	// SaveState replaces the persisted session with the given state.
	// Last write wins; saves are whole-state.
	SaveState(ctx context.Context, state *State) error

	// LoadState retrieves the persisted session. A fresh database yields
	// an empty state, not an error.
	LoadState(ctx context.Context) (*State, error)

	// Close releases any resources held by the store.
	Close() error
}
