package core

import "errors"

// Order validation errors returned by the Order constructors.
var (
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidOrderType = errors.New("invalid order type")
)

// DefaultCutoffHour is the local wall-clock hour at which resting
// GoodForDay orders are pruned from the book.
const DefaultCutoffHour = 16
