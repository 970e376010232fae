package api

import (
	"github.com/fer0n/splitbill/internal/models"
	"github.com/fer0n/splitbill/internal/ocr"
)

type rectPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type sharePayload struct {
	CardID           string   `json:"card_id"`
	Value            *float64 `json:"value"`
	ManuallyAdjusted bool     `json:"manually_adjusted"`
	Locked           bool     `json:"locked"`
}

type transactionPayload struct {
	ID          string         `json:"id"`
	Value       float64        `json:"value"`
	Type        int            `json:"type"`
	Label       string         `json:"label,omitempty"`
	Locked      bool           `json:"locked"`
	BoundingBox *rectPayload   `json:"bounding_box,omitempty"`
	Shares      []sharePayload `json:"shares"`
}

type cardPayload struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	IsChosen       bool     `json:"is_chosen"`
	IsActive       bool     `json:"is_active"`
	Type           int      `json:"type"`
	Color          int      `json:"color"`
	Sum            float64  `json:"sum"`
	TransactionIDs []string `json:"transaction_ids"`
}

type createCardRequest struct {
	Name string `json:"name"`
}

type renameCardRequest struct {
	Name string `json:"name"`
}

type setColorRequest struct {
	Color int `json:"color"`
}

type setActiveRequest struct {
	Active   bool `json:"active"`
	Multiple bool `json:"multiple"`
}

type createTransactionRequest struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

type editValueRequest struct {
	Value  float64 `json:"value"`
	CardID string  `json:"card_id,omitempty"`
}

type editShareRequest struct {
	Value float64 `json:"value"`
}

type recognizeLine struct {
	Text string      `json:"text"`
	Box  rectPayload `json:"box"`
}

type recognizeRequest struct {
	ImageWidth  float64         `json:"image_width"`
	ImageHeight float64         `json:"image_height"`
	Format      string          `json:"format"`
	Lines       []recognizeLine `json:"lines"`
}

type sessionRequest struct {
	Passphrase string `json:"passphrase"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

type historyResponse struct {
	Applied bool `json:"applied"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toRectPayload(r *models.Rect) *rectPayload {
	if r == nil {
		return nil
	}
	return &rectPayload{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func toTransactionPayload(t models.Transaction) transactionPayload {
	shares := make([]sharePayload, 0, len(t.Shares))
	for _, s := range t.Shares {
		p := sharePayload{
			CardID:           s.CardID.String(),
			ManuallyAdjusted: s.ManuallyAdjusted,
			Locked:           s.Locked,
		}
		if s.Value.IsSet() {
			v := s.Value.Float()
			p.Value = &v
		}
		shares = append(shares, p)
	}
	return transactionPayload{
		ID:          t.ID.String(),
		Value:       t.Value(),
		Type:        int(t.Type),
		Label:       t.Label(),
		Locked:      t.Locked,
		BoundingBox: toRectPayload(t.BoundingBox),
		Shares:      shares,
	}
}

func toTransactionPayloads(ts []models.Transaction) []transactionPayload {
	out := make([]transactionPayload, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionPayload(t))
	}
	return out
}

func toCardPayload(c models.Card, sum float64) cardPayload {
	ids := make([]string, 0, len(c.TransactionIDs))
	for _, id := range c.TransactionIDs {
		ids = append(ids, id.String())
	}
	return cardPayload{
		ID:             c.ID.String(),
		Name:           c.Name(),
		IsChosen:       c.IsChosen,
		IsActive:       c.IsActive,
		Type:           int(c.Type),
		Color:          int(c.Color),
		Sum:            sum,
		TransactionIDs: ids,
	}
}

func colorKey(v int) models.ColorKey {
	key := models.ColorKey(v)
	for _, k := range models.ColorKeys {
		if k == key {
			return key
		}
	}
	return models.ColorNeutralGray
}

func parseFormat(s string) ocr.Format {
	if s == "heic" {
		return ocr.FormatHEIC
	}
	return ocr.FormatJPEG
}

func toLines(in []recognizeLine) []ocr.Line {
	out := make([]ocr.Line, 0, len(in))
	for _, l := range in {
		out = append(out, ocr.Line{
			Text: l.Text,
			Box:  models.Rect{X: l.Box.X, Y: l.Box.Y, Width: l.Box.Width, Height: l.Box.Height},
		})
	}
	return out
}
