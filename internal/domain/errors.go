package domain

import "github.com/cockroachdb/errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidDateRange  = errors.New("check-out must be after check-in")
	ErrInvalidGuestCount = errors.New("guest count must be positive")
	ErrUnknownRoomType   = errors.New("unknown room type")
	ErrUpstream          = errors.New("upstream failure")
)
