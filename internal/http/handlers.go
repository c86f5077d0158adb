package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	mongoadapter "github.com/robertarktes/hotel-booking-backend/internal/adapters/mongo"
	"github.com/robertarktes/hotel-booking-backend/internal/booking"
	"github.com/robertarktes/hotel-booking-backend/internal/chat"
	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
	"github.com/robertarktes/hotel-booking-backend/internal/payments"
)

var validate = validator.New()

type Handlers struct {
	bookings *booking.Service
	payments *payments.Service
	chat     *chat.Service
	bookRepo *mongoadapter.BookingRepository
	userRepo *mongoadapter.UserRepository
	logger   observability.Logger
}

func NewHandlers(bookings *booking.Service, paymentsSvc *payments.Service, chatSvc *chat.Service, bookRepo *mongoadapter.BookingRepository, userRepo *mongoadapter.UserRepository, logger observability.Logger) *Handlers {
	return &Handlers{
		bookings: bookings,
		payments: paymentsSvc,
		chat:     chatSvc,
		bookRepo: bookRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidGuestCount),
		errors.Is(err, domain.ErrUnknownRoomType):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUpstream):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream service failed"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomType        string `json:"room_type" validate:"required"`
		GuestCount      int    `json:"guest_count" validate:"required,min=1"`
		CheckIn         string `json:"check_in" validate:"required"`
		CheckOut        string `json:"check_out" validate:"required"`
		PricePerNight   int64  `json:"price_per_night" validate:"required,min=1"`
		DefaultCapacity int    `json:"default_capacity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	checkIn, err := time.Parse("2006-01-02", req.CheckIn)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid check-in date, want YYYY-MM-DD"})
		return
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOut)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid check-out date, want YYYY-MM-DD"})
		return
	}

	quote, err := domain.Quote(domain.QuoteRequest{
		RoomType:        req.RoomType,
		GuestCount:      req.GuestCount,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		PricePerNight:   req.PricePerNight,
		DefaultCapacity: req.DefaultCapacity,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"nights":         quote.Nights,
		"rooms_required": quote.RoomsRequired,
		"total_amount":   quote.TotalAmount,
	})
}

func (h *Handlers) BookRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req struct {
		RoomID     string `json:"room_id" validate:"required"`
		CheckIn    string `json:"check_in" validate:"required"`
		CheckOut   string `json:"check_out" validate:"required"`
		GuestCount int    `json:"guest_count" validate:"required,min=1"`
		Name       string `json:"name"`
		Address    string `json:"address"`
		Image      string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	id, err := h.bookings.Create(r.Context(), userID, booking.CreateRequest{
		RoomID:     req.RoomID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		GuestCount: req.GuestCount,
		HotelName:  req.Name,
		Address:    req.Address,
		Image:      req.Image,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":    "Room booked successfully",
		"booking_id": id.Hex(),
	})
}

func (h *Handlers) GetBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	views, err := h.bookings.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Bookings retrieved successfully",
		"bookings": views,
	})
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	bookingID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking id"})
		return
	}

	if err := h.bookings.Cancel(r.Context(), userID, bookingID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Booking cancelled successfully"})
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req struct {
		Amount    int64  `json:"amount" validate:"required,min=1"`
		RoomID    string `json:"room_id" validate:"required"`
		BookingID string `json:"booking_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	roomID, err := primitive.ObjectIDFromHex(req.RoomID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid room id"})
		return
	}
	bookingID, err := primitive.ObjectIDFromHex(req.BookingID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking id"})
		return
	}

	order, err := h.payments.CreateOrder(r.Context(), userID, roomID, bookingID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// ConfirmBooking is the gateway redirect target; no user identity on it.
func (h *Handlers) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
		GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
		GatewaySignature string `json:"razorpay_signature" validate:"required"`
		BookingID        string `json:"booking_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bookingID, err := primitive.ObjectIDFromHex(req.BookingID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking id"})
		return
	}

	err = h.payments.Confirm(r.Context(), req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature, bookingID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Booking confirmed and payment recorded"})
}

func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req struct {
		Message string `json:"message" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, h.chat.Handle(r.Context(), userID, req.Message))
}

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	var (
		summary  mongoadapter.BookingSummary
		bookings []domain.Booking
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		summary, err = h.bookRepo.Summary(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = h.bookRepo.ListAll(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, err)
		return
	}

	userIDs := make([]primitive.ObjectID, 0, len(bookings))
	for _, b := range bookings {
		userIDs = append(userIDs, b.UserID)
	}
	users, err := h.userRepo.GetMany(r.Context(), userIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	rows := make([]map[string]interface{}, 0, len(bookings))
	for _, b := range bookings {
		userName := "Unknown"
		if u, ok := users[b.UserID]; ok {
			userName = u.Name
		}
		rows = append(rows, map[string]interface{}{
			"user_name":      userName,
			"hotel_name":     b.HotelName,
			"amount":         b.TotalAmount,
			"payment_status": string(b.Status),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": map[string]interface{}{
			"total_bookings": summary.TotalBookings,
			"total_amount":   summary.TotalAmount,
		},
		"bookings": rows,
	})
}

func (h *Handlers) BookingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.bookRepo.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_bookings": summary.TotalBookings,
		"total_amount":   summary.TotalAmount,
	})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
