package domain

import (
	"strings"
	"time"
)

// roomCapacity maps a room type to the maximum occupants one room holds.
var roomCapacity = map[string]int{
	"single":     1,
	"single bed": 1,
	"double":     2,
	"double bed": 2,
	"suite":      4,
}

// Capacity resolves the occupant capacity for a room type. Matching is
// case-insensitive.
func Capacity(roomType string) (int, bool) {
	c, ok := roomCapacity[strings.ToLower(strings.TrimSpace(roomType))]
	return c, ok
}

type QuoteRequest struct {
	RoomType      string
	GuestCount    int
	CheckIn       time.Time
	CheckOut      time.Time
	PricePerNight int64 // major currency units

	// DefaultCapacity, when positive, is used for room types missing from
	// the capacity table. Zero means unknown types are rejected; callers
	// must choose one or the other.
	DefaultCapacity int
}

type PriceQuote struct {
	Nights        int
	RoomsRequired int
	TotalAmount   int64
}

// Quote computes nights, rooms required and the total amount for a stay.
// All arithmetic is integer, so totals are exact for integer inputs.
func Quote(req QuoteRequest) (PriceQuote, error) {
	if req.GuestCount < 1 {
		return PriceQuote{}, ErrInvalidGuestCount
	}

	capacity, ok := Capacity(req.RoomType)
	if !ok {
		if req.DefaultCapacity < 1 {
			return PriceQuote{}, ErrUnknownRoomType
		}
		capacity = req.DefaultCapacity
	}

	nights := int(req.CheckOut.Sub(req.CheckIn) / (24 * time.Hour))
	if nights < 1 {
		return PriceQuote{}, ErrInvalidDateRange
	}

	rooms := (req.GuestCount + capacity - 1) / capacity

	return PriceQuote{
		Nights:        nights,
		RoomsRequired: rooms,
		TotalAmount:   req.PricePerNight * int64(nights) * int64(rooms),
	}, nil
}
