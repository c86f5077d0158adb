package payments

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	mongoadapter "github.com/robertarktes/hotel-booking-backend/internal/adapters/mongo"
	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

type OrderStore interface {
	Create(ctx context.Context, order domain.Order) (primitive.ObjectID, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error)
	Confirm(ctx context.Context, gatewayOrderID, gatewayPaymentID, gatewaySignature string) (int64, error)
}

type BookingStore interface {
	GetForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.BookingStatus) error
}

type ReconStore interface {
	Insert(ctx context.Context, task mongoadapter.ReconTask) error
}

type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency string) (domain.GatewayOrder, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

// Service sequences the two-phase payment flow: local booking, remote gateway
// order, local order record, then the asynchronous confirmation that must
// leave both documents in a paid state.
type Service struct {
	orders   OrderStore
	bookings BookingStore
	recon    ReconStore
	gateway  Gateway
	pub      EventPublisher
	logger   observability.Logger
	currency string
}

func NewService(orders OrderStore, bookings BookingStore, recon ReconStore, gateway Gateway, pub EventPublisher, logger observability.Logger, currency string) *Service {
	return &Service{
		orders:   orders,
		bookings: bookings,
		recon:    recon,
		gateway:  gateway,
		pub:      pub,
		logger:   logger,
		currency: currency,
	}
}

// CreateOrder opens a gateway order for amountMajor and persists the local
// order record keyed by the returned gateway order id. A gateway failure
// fails the whole request; no local order is left half-created.
func (s *Service) CreateOrder(ctx context.Context, userID, roomID, bookingID primitive.ObjectID, amountMajor int64) (domain.GatewayOrder, error) {
	if amountMajor <= 0 {
		return domain.GatewayOrder{}, errors.Mark(errors.New("amount must be positive"), domain.ErrInvalidInput)
	}

	// The booking must exist and belong to the caller before money moves.
	booking, err := s.bookings.GetForUser(ctx, bookingID, userID)
	if err != nil {
		return domain.GatewayOrder{}, err
	}
	if booking.Status != domain.BookingPending {
		return domain.GatewayOrder{}, errors.Mark(
			errors.Newf("booking is %s, not payable", booking.Status), domain.ErrInvalidTransition)
	}

	amountMinor := amountMajor * 100

	gatewayOrder, err := s.gateway.CreateOrder(ctx, amountMinor, s.currency)
	if err != nil {
		return domain.GatewayOrder{}, err
	}

	_, err = s.orders.Create(ctx, domain.Order{
		GatewayOrderID: gatewayOrder.ID,
		Amount:         amountMinor,
		Currency:       s.currency,
		RoomID:         roomID,
		UserID:         userID,
		BookingID:      bookingID,
	})
	if err != nil {
		return domain.GatewayOrder{}, err
	}

	return gatewayOrder, nil
}

// Confirm reconciles a payment confirmation against the order and booking
// documents. The two writes share no transaction; a booking-side failure is
// recorded as a reconciliation task instead of diverging silently.
func (s *Service) Confirm(ctx context.Context, gatewayOrderID, gatewayPaymentID, gatewaySignature string, bookingID primitive.ObjectID) error {
	order, err := s.orders.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return err
	}
	if order.BookingID != bookingID {
		return errors.Mark(errors.New("booking does not match order"), domain.ErrUnauthorized)
	}
	if order.Status == domain.OrderPaid {
		// Duplicate confirmation; the first one already settled both sides.
		return nil
	}

	matched, err := s.orders.Confirm(ctx, gatewayOrderID, gatewayPaymentID, gatewaySignature)
	if err != nil {
		return err
	}
	if matched == 0 {
		// Lost the race to a concurrent confirmation of the same order.
		return nil
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingPending, domain.BookingPaid); err != nil {
		s.logger.WithError(err).
			WithField("gateway_order_id", gatewayOrderID).
			WithField("booking_id", bookingID.Hex()).
			Error("order paid but booking status update failed, recording reconciliation task")
		observability.ReconTasksRecorded.Inc()
		if reconErr := s.recon.Insert(ctx, mongoadapter.ReconTask{
			BookingID:      bookingID,
			GatewayOrderID: gatewayOrderID,
			Reason:         err.Error(),
		}); reconErr != nil {
			s.logger.WithError(reconErr).Error("failed to record reconciliation task")
		}
		// The payment itself succeeded; the reconciler settles the booking.
		return nil
	}

	observability.PaymentsConfirmed.Inc()

	payload, _ := json.Marshal(map[string]interface{}{
		"gateway_order_id": gatewayOrderID,
		"booking_id":       bookingID.Hex(),
	})
	msg := amqp.Publishing{
		MessageId:   uuid.New().String(),
		ContentType: "application/json",
		Body:        payload,
	}
	if err := s.pub.Publish(ctx, "payment.confirmed", msg); err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID.Hex()).Warn("failed to publish payment.confirmed")
	}

	return nil
}
