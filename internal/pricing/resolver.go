// Package pricing derives a complete unit_price/quantity/total_price
// triple from a partial one. Create and update both run a sale through
// Resolve before anything is persisted.
package pricing

import (
	"errors"
	"math"
)

var (
	// ErrInsufficientFields is returned when fewer than two of the three
	// pricing fields are supplied.
	ErrInsufficientFields = errors.New("at least two of unit_price, quantity, total_price are required")

	// ErrZeroUnitPrice is returned when quantity would have to be derived
	// by dividing by a zero unit price.
	ErrZeroUnitPrice = errors.New("unit_price must be non-zero to derive quantity")

	// ErrZeroQuantity is returned when unit price would have to be derived
	// by dividing by a zero quantity.
	ErrZeroQuantity = errors.New("quantity must be non-zero to derive unit_price")
)

// Input carries the pricing fields of a sale write request. Nil means the
// field was not supplied.
type Input struct {
	UnitPrice  *float64
	Quantity   *int
	TotalPrice *float64
}

// Resolved is a fully populated pricing triple.
type Resolved struct {
	UnitPrice  float64
	Quantity   int
	TotalPrice float64
}

// variant classifies which field is missing from an Input. Computing it up
// front keeps the derivation switch exhaustive.
type variant int

const (
	insufficient variant = iota // fewer than two fields present
	needsTotal                  // unit_price + quantity given
	needsQuantity               // unit_price + total_price given
	needsUnitPrice              // quantity + total_price given
	allPresent
)

func classify(in Input) variant {
	provided := 0
	for _, ok := range []bool{in.UnitPrice != nil, in.Quantity != nil, in.TotalPrice != nil} {
		if ok {
			provided++
		}
	}
	switch {
	case provided < 2:
		return insufficient
	case provided == 3:
		return allPresent
	case in.TotalPrice == nil:
		return needsTotal
	case in.Quantity == nil:
		return needsQuantity
	default:
		return needsUnitPrice
	}
}

// Resolve fills in the missing pricing field, if any.
//
// Rules:
//   - total_price = unit_price * quantity
//   - quantity    = round(total_price / unit_price), half away from zero
//   - unit_price  = total_price / quantity
//   - all three present: passed through verbatim, no cross-check
//
// A zero divisor in either derivation is rejected rather than producing
// Inf/NaN, which would poison the analytics sums downstream.
//
// Pure function; the input is never mutated.
func Resolve(in Input) (Resolved, error) {
	switch classify(in) {
	case insufficient:
		return Resolved{}, ErrInsufficientFields

	case needsTotal:
		return Resolved{
			UnitPrice:  *in.UnitPrice,
			Quantity:   *in.Quantity,
			TotalPrice: *in.UnitPrice * float64(*in.Quantity),
		}, nil

	case needsQuantity:
		if *in.UnitPrice == 0 {
			return Resolved{}, ErrZeroUnitPrice
		}
		return Resolved{
			UnitPrice:  *in.UnitPrice,
			Quantity:   int(math.Round(*in.TotalPrice / *in.UnitPrice)),
			TotalPrice: *in.TotalPrice,
		}, nil

	case needsUnitPrice:
		if *in.Quantity == 0 {
			return Resolved{}, ErrZeroQuantity
		}
		return Resolved{
			UnitPrice:  *in.TotalPrice / float64(*in.Quantity),
			Quantity:   *in.Quantity,
			TotalPrice: *in.TotalPrice,
		}, nil

	default: // allPresent
		return Resolved{
			UnitPrice:  *in.UnitPrice,
			Quantity:   *in.Quantity,
			TotalPrice: *in.TotalPrice,
		}, nil
	}
}
