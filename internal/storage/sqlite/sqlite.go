// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/fer0n/splitbill/internal/models"
	"github.com/fer0n/splitbill/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path. It creates
// the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveState replaces the persisted session in one transaction.
func (s *SQLiteStore) SaveState(ctx context.Context, state *storage.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"shares", "card_transactions", "transactions", "cards"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for pos, card := range state.Cards {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO cards (id, name, is_chosen, card_type, color, position) VALUES (?, ?, ?, ?, ?, ?)",
			card.ID.String(), card.RawName, card.IsChosen, int(card.Type), int(card.Color), pos,
		)
		if err != nil {
			return fmt.Errorf("failed to insert card: %w", err)
		}
		for tpos, transactionID := range card.TransactionIDs {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO card_transactions (card_id, transaction_id, position) VALUES (?, ?, ?)",
				card.ID.String(), transactionID.String(), tpos,
			)
			if err != nil {
				return fmt.Errorf("failed to insert card transaction: %w", err)
			}
		}
	}

	for _, t := range state.Transactions {
		var label sql.NullString
		if t.RawLabel != "" {
			label = sql.NullString{String: t.RawLabel, Valid: true}
		}
		var boxX, boxY, boxW, boxH sql.NullFloat64
		if b := t.BoundingBox; b != nil {
			boxX = sql.NullFloat64{Float64: b.X, Valid: true}
			boxY = sql.NullFloat64{Float64: b.Y, Valid: true}
			boxW = sql.NullFloat64{Float64: b.Width, Valid: true}
			boxH = sql.NullFloat64{Float64: b.Height, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO transactions (id, raw_value, tx_type, label, locked, box_x, box_y, box_width, box_height)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID.String(), t.RawValue, int(t.Type), label, t.Locked, boxX, boxY, boxW, boxH,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		for _, share := range t.Shares {
			var value sql.NullFloat64
			if share.Value.IsSet() {
				value = sql.NullFloat64{Float64: share.Value.Float(), Valid: true}
			}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO shares (transaction_id, card_id, value, manually_adjusted, locked) VALUES (?, ?, ?, ?, ?)",
				t.ID.String(), share.CardID.String(), value, share.ManuallyAdjusted, share.Locked,
			)
			if err != nil {
				return fmt.Errorf("failed to insert share: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadState retrieves the full persisted session. Missing optional fields
// load as defaults.
func (s *SQLiteStore) LoadState(ctx context.Context) (*storage.State, error) {
	state := &storage.State{
		Transactions: map[uuid.UUID]models.Transaction{},
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, is_chosen, card_type, color FROM cards ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, name           string
			isChosen           bool
			cardType, colorKey int
		)
		if err := rows.Scan(&id, &name, &isChosen, &cardType, &colorKey); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cardID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse card id: %w", err)
		}
		state.Cards = append(state.Cards, models.Card{
			ID:       cardID,
			RawName:  name,
			IsChosen: isChosen,
			Type:     models.CardType(cardType),
			Color:    models.ColorKey(colorKey),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}

	if err := s.loadCardTransactions(ctx, state); err != nil {
		return nil, err
	}
	if err := s.loadTransactions(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *SQLiteStore) loadCardTransactions(ctx context.Context, state *storage.State) error {
	byCard := map[uuid.UUID][]uuid.UUID{}
	rows, err := s.db.QueryContext(ctx,
		"SELECT card_id, transaction_id FROM card_transactions ORDER BY card_id, position",
	)
	if err != nil {
		return fmt.Errorf("failed to get card transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cardID, transactionID string
		if err := rows.Scan(&cardID, &transactionID); err != nil {
			return fmt.Errorf("failed to scan card transaction: %w", err)
		}
		cid, err := uuid.Parse(cardID)
		if err != nil {
			return fmt.Errorf("failed to parse card id: %w", err)
		}
		tid, err := uuid.Parse(transactionID)
		if err != nil {
			return fmt.Errorf("failed to parse transaction id: %w", err)
		}
		byCard[cid] = append(byCard[cid], tid)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate card transactions: %w", err)
	}

	for i := range state.Cards {
		state.Cards[i].TransactionIDs = byCard[state.Cards[i].ID]
	}
	return nil
}

func (s *SQLiteStore) loadTransactions(ctx context.Context, state *storage.State) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, raw_value, tx_type, label, locked, box_x, box_y, box_width, box_height FROM transactions",
	)
	if err != nil {
		return fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id                     string
			rawValue               float64
			txType                 int
			label                  sql.NullString
			locked                 bool
			boxX, boxY, boxW, boxH sql.NullFloat64
		)
		if err := rows.Scan(&id, &rawValue, &txType, &label, &locked, &boxX, &boxY, &boxW, &boxH); err != nil {
			return fmt.Errorf("failed to scan transaction: %w", err)
		}
		tid, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("failed to parse transaction id: %w", err)
		}
		t := models.Transaction{
			ID:       tid,
			RawValue: rawValue,
			Type:     models.TransactionType(txType),
			RawLabel: label.String,
			Locked:   locked,
			Shares:   map[uuid.UUID]models.Share{},
		}
		if boxX.Valid && boxY.Valid && boxW.Valid && boxH.Valid {
			t.BoundingBox = &models.Rect{
				X: boxX.Float64, Y: boxY.Float64,
				Width: boxW.Float64, Height: boxH.Float64,
			}
		}
		state.Transactions[tid] = t
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return s.loadShares(ctx, state)
}

func (s *SQLiteStore) loadShares(ctx context.Context, state *storage.State) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT transaction_id, card_id, value, manually_adjusted, locked FROM shares",
	)
	if err != nil {
		return fmt.Errorf("failed to get shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			transactionID, cardID    string
			value                    sql.NullFloat64
			manuallyAdjusted, locked bool
		)
		if err := rows.Scan(&transactionID, &cardID, &value, &manuallyAdjusted, &locked); err != nil {
			return fmt.Errorf("failed to scan share: %w", err)
		}
		tid, err := uuid.Parse(transactionID)
		if err != nil {
			return fmt.Errorf("failed to parse transaction id: %w", err)
		}
		cid, err := uuid.Parse(cardID)
		if err != nil {
			return fmt.Errorf("failed to parse card id: %w", err)
		}
		t, ok := state.Transactions[tid]
		if !ok {
			continue // orphaned share, dropped on next save
		}
		share := models.Share{
			CardID:           cid,
			ManuallyAdjusted: manuallyAdjusted,
			Locked:           locked,
		}
		if value.Valid {
			share.Value = models.Amount(value.Float64)
		}
		t.Shares[cid] = share
		state.Transactions[tid] = t
	}
	return rows.Err()
}
