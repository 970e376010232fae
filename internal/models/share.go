package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ShareValue is a monetary amount that may not have been computed yet.
// The zero value is "unset", which is distinct from an amount of 0.00:
// a freshly linked share has no value until the allocation engine runs.
type ShareValue struct {
	value float64
	set   bool
}

// Amount returns a set ShareValue holding v.
func Amount(v float64) ShareValue {
	return ShareValue{value: v, set: true}
}

// IsSet reports whether a value has been assigned.
func (s ShareValue) IsSet() bool { return s.set }

// Float returns the amount, or 0 if unset.
func (s ShareValue) Float() float64 { return s.value }

// MarshalJSON encodes an unset value as null, otherwise as a plain number.
func (s ShareValue) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON accepts null (unset) or a number.
func (s *ShareValue) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*s = ShareValue{}
	} else {
		*s = Amount(*v)
	}
	return nil
}

// Share is one card's portion of one transaction's value.
type Share struct {
	// CardID is the card this share belongs to.
	CardID uuid.UUID `json:"cardId"`

	// Value is this card's portion. Unset until the allocation engine has
	// computed it, or until the user sets it manually.
	Value ShareValue `json:"value"`

	// ManuallyAdjusted marks a value the user fixed explicitly. Adjusted
	// shares are never overwritten by the auto-split until reset.
	ManuallyAdjusted bool `json:"manuallyAdjusted,omitempty"`

	// Locked shares cannot be edited by the user.
	Locked bool `json:"locked,omitempty"`
}
