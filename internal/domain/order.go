package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
	OrderPaid    OrderStatus = "paid"
)

// Order is the local record of a payment attempt. GatewayOrderID lives in the
// gateway's own identifier namespace; BookingID ties the order to the booking
// it pays for and must match at confirmation time.
type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	GatewayOrderID   string             `bson:"gateway_order_id"`
	Amount           int64              `bson:"amount"` // minor currency units
	Currency         string             `bson:"currency"`
	RoomID           primitive.ObjectID `bson:"room_id"`
	UserID           primitive.ObjectID `bson:"user_id"`
	BookingID        primitive.ObjectID `bson:"booking_id"`
	Status           OrderStatus        `bson:"status"`
	GatewayPaymentID string             `bson:"gateway_payment_id,omitempty"`
	GatewaySignature string             `bson:"gateway_signature,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
	PaidAt           *time.Time         `bson:"paid_at,omitempty"`
}

// GatewayOrder is the descriptor the payment gateway returns when a remote
// order is opened. The client drives its checkout UI off the ID.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}
