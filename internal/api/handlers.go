package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fer0n/splitbill/internal/auth"
	"github.com/fer0n/splitbill/internal/calculator"
	"github.com/fer0n/splitbill/internal/registry"
	"github.com/fer0n/splitbill/internal/service"
)

// Handler serves the session command surface.
type Handler struct {
	session *service.Session
	guard   *auth.Guard
}

// NewHandler creates the API handler.
func NewHandler(session *service.Session, guard *auth.Guard) *Handler {
	return &Handler{session: session, guard: guard}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondDomainError maps the error taxonomy onto status codes:
// allocation validation failures are 422 (expected, recoverable, state
// unchanged), unknown ids are 404, anything else is a 500.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calculator.ErrShareForCardNotFound),
		errors.Is(err, calculator.ErrLastShareCannotBeAdjustedManually),
		errors.Is(err, calculator.ErrNumberTooLarge),
		errors.Is(err, registry.ErrTransactionLocked):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, registry.ErrCardNotFound),
		errors.Is(err, registry.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// CreateSession exchanges the owner passphrase for a session token.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	token, err := h.guard.IssueToken(req.Passphrase)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid passphrase")
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Token: token})
}

// ListCards returns every card with its current subtotal.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards := h.session.Cards()
	out := make([]cardPayload, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardPayload(c, h.session.Sum(c.ID)))
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateCard adds a new named card.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	card := h.session.AddCard(req.Name)
	mutations.WithLabelValues("add_card").Inc()
	respondJSON(w, http.StatusCreated, toCardPayload(card, 0))
}

// GetTotalCard returns the synthetic total card, creating it on first
// access.
func (h *Handler) GetTotalCard(w http.ResponseWriter, r *http.Request) {
	card := h.session.TotalCard()
	respondJSON(w, http.StatusOK, toCardPayload(card, h.session.Sum(card.ID)))
}

// DeleteCard removes a card.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	if err := h.session.DeleteCard(cardID); err != nil {
		respondDomainError(w, err)
		return
	}
	mutations.WithLabelValues("delete_card").Inc()
	respondJSON(w, http.StatusNoContent, nil)
}

// RenameCard sets a card's display name.
func (h *Handler) RenameCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	var req renameCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.session.RenameCard(cardID, req.Name); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// SetCardColor sets a card's color key.
func (h *Handler) SetCardColor(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	var req setColorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.session.SetCardColor(cardID, colorKey(req.Color)); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ToggleChosen flips a card's participation.
func (h *Handler) ToggleChosen(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	if err := h.session.ToggleChosen(cardID); err != nil {
		respondDomainError(w, err)
		return
	}
	mutations.WithLabelValues("toggle_chosen").Inc()
	respondJSON(w, http.StatusNoContent, nil)
}

// SetActive marks or unmarks a card as a link target.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	var req setActiveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.session.SetActiveCard(cardID, req.Active, req.Multiple)
	respondJSON(w, http.StatusNoContent, nil)
}

// ListCardTransactions returns a card's transactions in display order.
func (h *Handler) ListCardTransactions(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toTransactionPayloads(h.session.SortedTransactions(cardID)))
}

// ListTransactions returns every transaction.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toTransactionPayloads(h.session.Transactions()))
}

// CreateTransaction adds a freeform transaction.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t := h.session.CreateFreeform(req.Value, req.Label)
	mutations.WithLabelValues("create_transaction").Inc()
	respondJSON(w, http.StatusCreated, toTransactionPayload(t))
}

// DeleteTransaction removes a transaction and all links to it.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := pathID(w, r, "transactionID")
	if !ok {
		return
	}
	if err := h.session.DeleteTransaction(transactionID); err != nil {
		respondDomainError(w, err)
		return
	}
	mutations.WithLabelValues("delete_transaction").Inc()
	respondJSON(w, http.StatusNoContent, nil)
}

// EditTransactionValue changes a transaction's value, or one card's share
// when the transaction is shared and card_id is set.
func (h *Handler) EditTransactionValue(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := pathID(w, r, "transactionID")
	if !ok {
		return
	}
	var req editValueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cardID := uuid.Nil
	if req.CardID != "" {
		parsed, err := uuid.Parse(req.CardID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid card_id")
			return
		}
		cardID = parsed
	}
	if err := h.session.EditTransactionValue(transactionID, req.Value, cardID); err != nil {
		respondDomainError(w, err)
		return
	}
	mutations.WithLabelValues("edit_value").Inc()
	respondJSON(w, http.StatusNoContent, nil)
}

// EditShare fixes one card's share of a transaction.
func (h *Handler) EditShare(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := pathID(w, r, "transactionID")
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	var req editShareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.session.EditShare(transactionID, cardID, req.Value); err != nil {
		respondDomainError(w, err)
		return
	}
	mutations.WithLabelValues("edit_share").Inc()
	respondJSON(w, http.StatusNoContent, nil)
}

// ResetShare clears a manual adjustment.
func (h *Handler) ResetShare(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := pathID(w, r, "transactionID")
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	if err := h.session.ResetShare(transactionID, cardID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Link links a transaction to a card.
func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	transactionID, ok := pathID(w, r, "transactionID")
	if !ok {
		return
	}
	if err := h.session.LinkTransaction(cardID, transactionID); err != nil {
		respondDomainError(w, err)
		return
	}
	mutations.WithLabelValues("link").Inc()
	respondJSON(w, http.StatusNoContent, nil)
}

// Unlink removes a transaction from a card.
func (h *Handler) Unlink(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}
	transactionID, ok := pathID(w, r, "transactionID")
	if !ok {
		return
	}
	if err := h.session.UnlinkTransaction(transactionID, cardID); err != nil {
		respondDomainError(w, err)
		return
	}
	mutations.WithLabelValues("unlink").Inc()
	respondJSON(w, http.StatusNoContent, nil)
}

// Recognize extracts amounts from recognized text lines and replaces the
// current transaction set.
func (h *Handler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req recognizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ImageWidth <= 0 || req.ImageHeight <= 0 {
		respondError(w, http.StatusBadRequest, "image dimensions are required")
		return
	}
	detected := h.session.Recognize(service.RecognizeInput{
		Lines:       toLines(req.Lines),
		ImageWidth:  req.ImageWidth,
		ImageHeight: req.ImageHeight,
		Format:      parseFormat(req.Format),
	})
	mutations.WithLabelValues("recognize").Inc()
	respondJSON(w, http.StatusOK, toTransactionPayloads(detected))
}

// Undo reverts the most recent mutation group.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	applied := h.session.Undo()
	mutations.WithLabelValues("undo").Inc()
	respondJSON(w, http.StatusOK, historyResponse{
		Applied: applied,
		CanUndo: h.session.CanUndo(),
		CanRedo: h.session.CanRedo(),
	})
}

// Redo replays the most recently undone group.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	applied := h.session.Redo()
	mutations.WithLabelValues("redo").Inc()
	respondJSON(w, http.StatusOK, historyResponse{
		Applied: applied,
		CanUndo: h.session.CanUndo(),
		CanRedo: h.session.CanRedo(),
	})
}

// Clear unlinks everything and drops the undo history.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.session.ClearAll()
	mutations.WithLabelValues("clear").Inc()
	respondJSON(w, http.StatusNoContent, nil)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
