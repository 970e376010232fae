// Package ocr turns recognized receipt text into candidate amounts.
//
// The pipeline is pure and stateless per call: a fuzzy scan finds numeric
// tokens, each token is classified as US ("1,234.56") or EU ("1.234,56")
// separator convention, cleaned and parsed, and its substring range is
// mapped back to a sub-rectangle of the line's bounding box. Ambiguous or
// oversized tokens are dropped silently; a bad token never fails the whole
// recognition pass.
package ocr

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fer0n/splitbill/internal/models"
)

// Format identifies the source image pipeline. The HEIC decode path
// reports bounding boxes with transposed axes; the correction is applied
// only for that format.
type Format int

const (
	FormatJPEG Format = iota
	FormatHEIC
)

// Line is one recognized text line with its bounding box in normalized
// image coordinates (0..1, origin bottom-left).
type Line struct {
	Text string
	Box  models.Rect
}

// Candidate is one detected amount and the normalized sub-rectangle of the
// line it occupies.
type Candidate struct {
	Value float64
	Box   models.Rect
}

var (
	// fuzzyNumber matches anything that could be a number in either
	// separator convention: optional minus, digit groups, separator runs
	// in blocks of three, optional fractional suffix.
	fuzzyNumber = regexp.MustCompile(`(?:- ?)?\d+(?:[,.]\d{3})*(?:[,.]\d+)?\b`)

	// usNumber: "," groups thousands, "." is the decimal point.
	usNumber = regexp.MustCompile(`^(- ?)?\d+(?:,\d{3})*\.?\d*$`)

	// euNumber: "." groups thousands, "," is the decimal point.
	euNumber = regexp.MustCompile(`^(- ?)?\d+(?:\.\d{3})*,?\d*$`)
)

// decimalPoint classifies a token's separator convention and returns its
// decimal point character. Tokens matching neither convention are
// ambiguous and rejected.
func decimalPoint(token string) (string, bool) {
	if usNumber.MatchString(token) {
		return ".", true
	}
	if euNumber.MatchString(token) {
		return ",", true
	}
	return "", false
}

// cleanNumber strips spaces and the thousands separator, normalizes the
// decimal point to "." and parses. Magnitudes beyond the integer range are
// rejected: they could not be converted to cents later without overflow.
func cleanNumber(token, point string) (float64, bool) {
	s := strings.ReplaceAll(token, " ", "")
	switch point {
	case ".":
		s = strings.ReplaceAll(s, ",", "")
	case ",":
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.Abs(v) > float64(math.MaxInt64) {
		return 0, false
	}
	return v, true
}

// ExtractAmounts scans one line and returns every parsable amount with the
// sub-rectangle of the line box its characters occupy. The horizontal
// split is proportional to rune position within the line.
func ExtractAmounts(line Line) []Candidate {
	var out []Candidate
	total := len([]rune(line.Text))
	if total == 0 {
		return nil
	}
	for _, loc := range fuzzyNumber.FindAllStringIndex(line.Text, -1) {
		token := line.Text[loc[0]:loc[1]]
		point, ok := decimalPoint(token)
		if !ok {
			continue
		}
		value, ok := cleanNumber(token, point)
		if !ok {
			continue
		}
		startFrac := float64(len([]rune(line.Text[:loc[0]]))) / float64(total)
		endFrac := float64(len([]rune(line.Text[:loc[1]]))) / float64(total)
		out = append(out, Candidate{
			Value: value,
			Box: models.Rect{
				X:      line.Box.X + line.Box.Width*startFrac,
				Y:      line.Box.Y,
				Width:  line.Box.Width * (endFrac - startFrac),
				Height: line.Box.Height,
			},
		})
	}
	return out
}

// transposeBox corrects a bounding box whose axes the HEIC decode path
// reported swapped. In normalized coordinates.
func transposeBox(r models.Rect) models.Rect {
	width, height := r.Height, r.Width
	return models.Rect{X: r.Y, Y: 1 - r.X - height, Width: width, Height: height}
}

// toPixelRect converts a normalized bottom-left-origin rectangle to pixel
// coordinates with a top-left origin, flipping the vertical axis.
func toPixelRect(r models.Rect, imageWidth, imageHeight float64) models.Rect {
	h := r.Height * imageHeight
	return models.Rect{
		X:      r.X * imageWidth,
		Y:      imageHeight - r.Y*imageHeight - h,
		Width:  r.Width * imageWidth,
		Height: h,
	}
}

// RecognizeAmounts runs the full pipeline over recognized lines and
// returns one normal transaction per detected amount, its bounding box in
// pixel coordinates.
func RecognizeAmounts(lines []Line, imageWidth, imageHeight float64, format Format) []models.Transaction {
	var out []models.Transaction
	for _, line := range lines {
		for _, c := range ExtractAmounts(line) {
			box := c.Box
			if format == FormatHEIC {
				box = transposeBox(box)
			}
			pixel := toPixelRect(box, imageWidth, imageHeight)
			t := models.NewTransaction(c.Value, models.TransactionNormal)
			t.BoundingBox = &pixel
			out = append(out, t)
		}
	}
	return out
}
