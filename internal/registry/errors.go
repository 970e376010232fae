package registry

import "errors"

var (
	// ErrCardNotFound is returned when an operation names an unknown card.
	ErrCardNotFound = errors.New("card not found")

	// ErrTransactionNotFound is returned when an operation names an
	// unknown transaction.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTransactionLocked is returned when editing the value of a locked
	// transaction.
	ErrTransactionLocked = errors.New("transaction value is locked")
)
