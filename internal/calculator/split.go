// Package calculator implements the share allocation engine: splitting one
// transaction's amount across its cards so the shares always sum back to
// the original amount to the cent.
package calculator

import (
	"errors"
	"math"
)

var (
	// ErrShareForCardNotFound is returned when an operation names a card
	// that holds no share on the transaction.
	ErrShareForCardNotFound = errors.New("no share for this card on the transaction")

	// ErrLastShareCannotBeAdjustedManually guards the remainder: at least
	// one share of a multi-share transaction must stay auto-computed so
	// leftover cents have somewhere to go.
	ErrLastShareCannotBeAdjustedManually = errors.New("the last auto-computed share cannot be adjusted manually")

	// ErrNumberTooLarge is returned when an amount does not fit the integer
	// cent range.
	ErrNumberTooLarge = errors.New("amount is too large to split")
)

// SplitAmount divides amount into numParts pieces that sum exactly back to
// round(amount*100)/100.
//
// The amount is converted to integer cents; each step takes the current
// remainder divided by the number of parts still to emit. The subtraction
// telescopes, so no cent is ever dropped, and any undistributable leftover
// cents land deterministically on the pieces emitted last. All arithmetic
// on the split itself is integer, so there is no floating-point drift.
// Works for negative amounts and amount == 0.
func SplitAmount(amount float64, numParts int) ([]float64, error) {
	if numParts <= 0 {
		return nil, nil
	}
	cents := math.Round(amount * 100)
	if math.Abs(cents) > float64(math.MaxInt64) {
		return nil, ErrNumberTooLarge
	}
	remainder := int64(cents) // anything past two decimals is discarded
	result := make([]float64, 0, numParts)
	for i := numParts; i > 0; i-- {
		piece := remainder / int64(i)
		remainder -= piece
		result = append(result, float64(piece)/100)
	}
	return result, nil
}
