package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingPaid      BookingStatus = "Paid"
	BookingCancelled BookingStatus = "cancelled"
)

// bookingTransitions is the single source of truth for booking status
// changes. Paid and cancelled are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending: {BookingPaid, BookingCancelled},
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking carries snapshot copies of the room's display attributes taken at
// booking time. They are never re-read from the room document, so the booking
// stays stable even if the listing changes.
type Booking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        primitive.ObjectID `bson:"user_id"`
	RoomID        primitive.ObjectID `bson:"room_id"`
	HotelName     string             `bson:"hotel_name"`
	Address       string             `bson:"address"`
	Image         string             `bson:"image"`
	PricePerNight int64              `bson:"price_per_night"`
	GuestCount    int                `bson:"guest_count"`
	CheckIn       time.Time          `bson:"check_in"`
	CheckOut      time.Time          `bson:"check_out"`
	TotalAmount   int64              `bson:"total_amount"`
	Status        BookingStatus      `bson:"status"`
	CreatedAt     time.Time          `bson:"created_at"`
}

type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
}
