package payments

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	mongoadapter "github.com/robertarktes/hotel-booking-backend/internal/adapters/mongo"
	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

type fakeOrderStore struct {
	orders map[string]domain.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]domain.Order)}
}

func (f *fakeOrderStore) Create(ctx context.Context, order domain.Order) (primitive.ObjectID, error) {
	order.ID = primitive.NewObjectID()
	order.Status = domain.OrderCreated
	f.orders[order.GatewayOrderID] = order
	return order.ID, nil
}

func (f *fakeOrderStore) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	o, ok := f.orders[gatewayOrderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (f *fakeOrderStore) Confirm(ctx context.Context, gatewayOrderID, gatewayPaymentID, gatewaySignature string) (int64, error) {
	o, ok := f.orders[gatewayOrderID]
	if !ok || o.Status != domain.OrderCreated {
		return 0, nil
	}
	o.Status = domain.OrderPaid
	o.GatewayPaymentID = gatewayPaymentID
	o.GatewaySignature = gatewaySignature
	f.orders[gatewayOrderID] = o
	return 1, nil
}

type fakeBookingStore struct {
	bookings map[primitive.ObjectID]domain.Booking
}

func (f *fakeBookingStore) GetForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok || b.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBookingStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.BookingStatus) error {
	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return domain.ErrNotFound
	}
	b.Status = to
	f.bookings[id] = b
	return nil
}

type fakeReconStore struct {
	tasks []mongoadapter.ReconTask
}

func (f *fakeReconStore) Insert(ctx context.Context, task mongoadapter.ReconTask) error {
	f.tasks = append(f.tasks, task)
	return nil
}

type fakeGateway struct {
	calls int
	err   error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency string) (domain.GatewayOrder, error) {
	f.calls++
	if f.err != nil {
		return domain.GatewayOrder{}, f.err
	}
	return domain.GatewayOrder{
		ID:       fmt.Sprintf("order_test%03d", f.calls),
		Amount:   amountMinor,
		Currency: currency,
		Status:   "created",
	}, nil
}

type fakePublisher struct {
	published []string
}

func (f *fakePublisher) Publish(ctx context.Context, key string, msg amqp.Publishing) error {
	f.published = append(f.published, key)
	return nil
}

type fixture struct {
	svc       *Service
	orders    *fakeOrderStore
	bookings  *fakeBookingStore
	recon     *fakeReconStore
	gateway   *fakeGateway
	pub       *fakePublisher
	userID    primitive.ObjectID
	roomID    primitive.ObjectID
	bookingID primitive.ObjectID
}

func newFixture(status domain.BookingStatus) *fixture {
	userID := primitive.NewObjectID()
	roomID := primitive.NewObjectID()
	bookingID := primitive.NewObjectID()

	bookings := &fakeBookingStore{bookings: map[primitive.ObjectID]domain.Booking{
		bookingID: {ID: bookingID, UserID: userID, RoomID: roomID, Status: status},
	}}
	orders := newFakeOrderStore()
	recon := &fakeReconStore{}
	gateway := &fakeGateway{}
	pub := &fakePublisher{}

	return &fixture{
		svc:       NewService(orders, bookings, recon, gateway, pub, observability.NewLogger(), "INR"),
		orders:    orders,
		bookings:  bookings,
		recon:     recon,
		gateway:   gateway,
		pub:       pub,
		userID:    userID,
		roomID:    roomID,
		bookingID: bookingID,
	}
}

func TestCreateOrder_ConvertsToMinorUnits(t *testing.T) {
	f := newFixture(domain.BookingPending)

	got, err := f.svc.CreateOrder(context.Background(), f.userID, f.roomID, f.bookingID, 12000)
	require.NoError(t, err)

	assert.Equal(t, int64(1200000), got.Amount)
	assert.Equal(t, "INR", got.Currency)

	stored := f.orders.orders[got.ID]
	assert.Equal(t, int64(1200000), stored.Amount)
	assert.Equal(t, f.bookingID, stored.BookingID)
	assert.Equal(t, domain.OrderCreated, stored.Status)
}

func TestCreateOrder_Rejections(t *testing.T) {
	t.Run("non-positive amount", func(t *testing.T) {
		f := newFixture(domain.BookingPending)
		_, err := f.svc.CreateOrder(context.Background(), f.userID, f.roomID, f.bookingID, 0)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		assert.Zero(t, f.gateway.calls)
	})

	t.Run("booking not owned by caller", func(t *testing.T) {
		f := newFixture(domain.BookingPending)
		_, err := f.svc.CreateOrder(context.Background(), primitive.NewObjectID(), f.roomID, f.bookingID, 100)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
		assert.Zero(t, f.gateway.calls)
	})

	t.Run("booking already paid", func(t *testing.T) {
		f := newFixture(domain.BookingPaid)
		_, err := f.svc.CreateOrder(context.Background(), f.userID, f.roomID, f.bookingID, 100)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "got %v", err)
		assert.Zero(t, f.gateway.calls)
	})
}

func TestCreateOrder_GatewayFailureLeavesNoLocalOrder(t *testing.T) {
	f := newFixture(domain.BookingPending)
	f.gateway.err = errors.Mark(errors.New("gateway timeout"), domain.ErrUpstream)

	_, err := f.svc.CreateOrder(context.Background(), f.userID, f.roomID, f.bookingID, 100)
	assert.True(t, errors.Is(err, domain.ErrUpstream), "got %v", err)
	assert.Empty(t, f.orders.orders)
}

func TestConfirm_HappyPath(t *testing.T) {
	f := newFixture(domain.BookingPending)

	got, err := f.svc.CreateOrder(context.Background(), f.userID, f.roomID, f.bookingID, 12000)
	require.NoError(t, err)

	err = f.svc.Confirm(context.Background(), got.ID, "pay_abc", "sig_abc", f.bookingID)
	require.NoError(t, err)

	order := f.orders.orders[got.ID]
	assert.Equal(t, domain.OrderPaid, order.Status)
	assert.Equal(t, "pay_abc", order.GatewayPaymentID)
	assert.Equal(t, domain.BookingPaid, f.bookings.bookings[f.bookingID].Status)
	assert.Contains(t, f.pub.published, "payment.confirmed")
	assert.Empty(t, f.recon.tasks)
}

func TestConfirm_UnknownOrder(t *testing.T) {
	f := newFixture(domain.BookingPending)

	err := f.svc.Confirm(context.Background(), "order_missing", "pay_abc", "sig_abc", f.bookingID)
	assert.True(t, errors.Is(err, domain.ErrOrderNotFound), "got %v", err)
	assert.Equal(t, domain.BookingPending, f.bookings.bookings[f.bookingID].Status)
}

func TestConfirm_BookingMismatch(t *testing.T) {
	f := newFixture(domain.BookingPending)

	got, err := f.svc.CreateOrder(context.Background(), f.userID, f.roomID, f.bookingID, 100)
	require.NoError(t, err)

	err = f.svc.Confirm(context.Background(), got.ID, "pay_abc", "sig_abc", primitive.NewObjectID())
	assert.True(t, errors.Is(err, domain.ErrUnauthorized), "got %v", err)

	assert.Equal(t, domain.OrderCreated, f.orders.orders[got.ID].Status)
	assert.Equal(t, domain.BookingPending, f.bookings.bookings[f.bookingID].Status)
}

func TestConfirm_DuplicateIsNoOp(t *testing.T) {
	f := newFixture(domain.BookingPending)

	got, err := f.svc.CreateOrder(context.Background(), f.userID, f.roomID, f.bookingID, 100)
	require.NoError(t, err)

	require.NoError(t, f.svc.Confirm(context.Background(), got.ID, "pay_abc", "sig_abc", f.bookingID))
	require.NoError(t, f.svc.Confirm(context.Background(), got.ID, "pay_other", "sig_other", f.bookingID))

	// First confirmation's payment id stands.
	assert.Equal(t, "pay_abc", f.orders.orders[got.ID].GatewayPaymentID)
	assert.Len(t, f.pub.published, 1)
}

func TestConfirm_BookingUpdateFailureRecordsReconTask(t *testing.T) {
	f := newFixture(domain.BookingPending)

	got, err := f.svc.CreateOrder(context.Background(), f.userID, f.roomID, f.bookingID, 100)
	require.NoError(t, err)

	// Booking flips to cancelled between order creation and confirmation, so
	// the pending->Paid CAS write fails.
	b := f.bookings.bookings[f.bookingID]
	b.Status = domain.BookingCancelled
	f.bookings.bookings[f.bookingID] = b

	err = f.svc.Confirm(context.Background(), got.ID, "pay_abc", "sig_abc", f.bookingID)
	require.NoError(t, err)

	// The order side is settled; the divergence is parked as a recon task.
	assert.Equal(t, domain.OrderPaid, f.orders.orders[got.ID].Status)
	require.Len(t, f.recon.tasks, 1)
	assert.Equal(t, f.bookingID, f.recon.tasks[0].BookingID)
	assert.Equal(t, got.ID, f.recon.tasks[0].GatewayOrderID)
	assert.NotContains(t, f.pub.published, "payment.confirmed")
}
