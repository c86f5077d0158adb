package booking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	mongoadapter "github.com/robertarktes/hotel-booking-backend/internal/adapters/mongo"
	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

type BookingStore interface {
	Create(ctx context.Context, booking domain.Booking) (primitive.ObjectID, error)
	GetForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.BookingStatus) error
}

type RoomCatalog interface {
	Get(ctx context.Context, id primitive.ObjectID) (*mongoadapter.RoomDoc, error)
}

type UserStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

// CreatedEvent is published on booking creation and drives the confirmation
// email worker. Losing it never rolls back the booking.
type CreatedEvent struct {
	BookingID string `json:"booking_id"`
	ToEmail   string `json:"to_email"`
	Name      string `json:"name"`
	HotelName string `json:"hotel_name"`
	Address   string `json:"address"`
	CheckIn   string `json:"check_in"`
	Amount    int64  `json:"amount"`
}

type Service struct {
	bookings BookingStore
	rooms    RoomCatalog
	users    UserStore
	pub      EventPublisher
	logger   observability.Logger
}

func NewService(bookings BookingStore, rooms RoomCatalog, users UserStore, pub EventPublisher, logger observability.Logger) *Service {
	return &Service{
		bookings: bookings,
		rooms:    rooms,
		users:    users,
		pub:      pub,
		logger:   logger,
	}
}

// CreateRequest carries the booking input. The display snapshot fields are
// optional; empty ones are filled from the room document. The total is always
// recomputed server-side, never taken from the client.
type CreateRequest struct {
	RoomID     string
	CheckIn    string
	CheckOut   string
	GuestCount int
	HotelName  string
	Address    string
	Image      string
}

func (s *Service) Create(ctx context.Context, userID primitive.ObjectID, req CreateRequest) (primitive.ObjectID, error) {
	roomID, err := primitive.ObjectIDFromHex(req.RoomID)
	if err != nil {
		return primitive.NilObjectID, errors.Mark(errors.New("missing or invalid room id"), domain.ErrInvalidInput)
	}
	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		return primitive.NilObjectID, errors.Mark(errors.New("invalid check-in date, want YYYY-MM-DD"), domain.ErrInvalidInput)
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		return primitive.NilObjectID, errors.Mark(errors.New("invalid check-out date, want YYYY-MM-DD"), domain.ErrInvalidInput)
	}

	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return primitive.NilObjectID, err
	}

	quote, err := domain.Quote(domain.QuoteRequest{
		RoomType:      room.RoomType,
		GuestCount:    req.GuestCount,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		PricePerNight: room.PricePerNight,
	})
	if err != nil {
		return primitive.NilObjectID, err
	}

	booking := domain.Booking{
		UserID:        userID,
		RoomID:        roomID,
		HotelName:     fallback(req.HotelName, room.HotelName),
		Address:       fallback(req.Address, room.StreetAddress),
		Image:         fallback(req.Image, firstImage(room)),
		PricePerNight: room.PricePerNight,
		GuestCount:    req.GuestCount,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		TotalAmount:   quote.TotalAmount,
		Status:        domain.BookingPending,
	}

	id, err := s.bookings.Create(ctx, booking)
	if err != nil {
		return primitive.NilObjectID, err
	}
	observability.BookingsCreated.Inc()

	s.publishCreated(ctx, id, userID, booking)

	return id, nil
}

// publishCreated emits the notification event. Best-effort: any failure is
// logged and the booking stands.
func (s *Service) publishCreated(ctx context.Context, id, userID primitive.ObjectID, booking domain.Booking) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", id.Hex()).Warn("skipping booking notification, user lookup failed")
		return
	}

	payload, _ := json.Marshal(CreatedEvent{
		BookingID: id.Hex(),
		ToEmail:   user.Email,
		Name:      user.Name,
		HotelName: booking.HotelName,
		Address:   booking.Address,
		CheckIn:   booking.CheckIn.Format(dateLayout),
		Amount:    booking.TotalAmount,
	})
	msg := amqp.Publishing{
		MessageId:   uuid.New().String(),
		ContentType: "application/json",
		Body:        payload,
	}
	if err := s.pub.Publish(ctx, "booking.created", msg); err != nil {
		s.logger.WithError(err).WithField("booking_id", id.Hex()).Warn("failed to publish booking.created")
	}
}

// View is the serialized shape of a booking in list responses.
type View struct {
	ID            string `json:"_id"`
	RoomID        string `json:"room_id"`
	GuestCount    int    `json:"guest_count"`
	PricePerNight int64  `json:"pricePerNight"`
	Image         string `json:"image"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	TotalAmount   int64  `json:"total_amount"`
	CreatedAt     string `json:"created_at"`
	Status        string `json:"status"`
}

func (s *Service) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]View, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, View{
			ID:            b.ID.Hex(),
			RoomID:        b.RoomID.Hex(),
			GuestCount:    b.GuestCount,
			PricePerNight: b.PricePerNight,
			Image:         b.Image,
			Name:          b.HotelName,
			Address:       b.Address,
			CheckIn:       b.CheckIn.Format(dateLayout),
			CheckOut:      b.CheckOut.Format(dateLayout),
			TotalAmount:   b.TotalAmount,
			CreatedAt:     b.CreatedAt.Format(timestampLayout),
			Status:        string(b.Status),
		})
	}
	return views, nil
}

// Cancel rejects cancelling a paid booking; cancelling an already cancelled
// one is a no-op.
func (s *Service) Cancel(ctx context.Context, userID, bookingID primitive.ObjectID) error {
	booking, err := s.bookings.GetForUser(ctx, bookingID, userID)
	if err != nil {
		return err
	}

	switch booking.Status {
	case domain.BookingCancelled:
		return nil
	case domain.BookingPaid:
		return errors.Mark(errors.New("booking already paid"), domain.ErrInvalidTransition)
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingPending, domain.BookingCancelled); err != nil {
		return err
	}
	observability.BookingsCancelled.Inc()

	payload, _ := json.Marshal(map[string]interface{}{"booking_id": bookingID.Hex()})
	msg := amqp.Publishing{
		MessageId:   uuid.New().String(),
		ContentType: "application/json",
		Body:        payload,
	}
	if err := s.pub.Publish(ctx, "booking.cancelled", msg); err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID.Hex()).Warn("failed to publish booking.cancelled")
	}

	return nil
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func firstImage(room *mongoadapter.RoomDoc) string {
	if len(room.Images) > 0 {
		return room.Images[0]
	}
	return ""
}
