package booking

import (
	"context"
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

type fakeBookingStore struct {
	bookings map[primitive.ObjectID]domain.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[primitive.ObjectID]domain.Booking)}
}

func (f *fakeBookingStore) Create(ctx context.Context, booking domain.Booking) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	booking.ID = id
	f.bookings[id] = booking
	return id, nil
}

func (f *fakeBookingStore) GetForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok || b.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBookingStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
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

type fakeRoomCatalog struct {
	rooms map[primitive.ObjectID]mongoadapter.RoomDoc
}

func (f *fakeRoomCatalog) Get(ctx context.Context, id primitive.ObjectID) (*mongoadapter.RoomDoc, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

type fakeUserStore struct {
	users map[primitive.ObjectID]domain.User
}

func (f *fakeUserStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, key string, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, key)
	return nil
}

func newTestService() (*Service, *fakeBookingStore, *fakeRoomCatalog, *fakePublisher, primitive.ObjectID, primitive.ObjectID) {
	store := newFakeBookingStore()
	userID := primitive.NewObjectID()
	roomID := primitive.NewObjectID()
	rooms := &fakeRoomCatalog{rooms: map[primitive.ObjectID]mongoadapter.RoomDoc{
		roomID: {
			ID:            roomID,
			HotelName:     "Sea View Inn",
			StreetAddress: "12 Beach Road",
			RoomType:      "Double Bed",
			PricePerNight: 2000,
			Images:        []string{"https://img.example/room.jpg"},
		},
	}}
	users := &fakeUserStore{users: map[primitive.ObjectID]domain.User{
		userID: {ID: userID, Name: "Asha", Email: "asha@example.com"},
	}}
	pub := &fakePublisher{}
	svc := NewService(store, rooms, users, pub, observability.NewLogger())
	return svc, store, rooms, pub, userID, roomID
}

func TestCreate_RecomputesTotalServerSide(t *testing.T) {
	svc, store, _, pub, userID, roomID := newTestService()

	id, err := svc.Create(context.Background(), userID, CreateRequest{
		RoomID:     roomID.Hex(),
		CheckIn:    "2024-01-01",
		CheckOut:   "2024-01-04",
		GuestCount: 3,
	})
	require.NoError(t, err)

	b := store.bookings[id]
	assert.Equal(t, domain.BookingPending, b.Status)
	// 3 nights, 2 double rooms for 3 guests, 2000 per night.
	assert.Equal(t, int64(12000), b.TotalAmount)
	assert.Equal(t, int64(2000), b.PricePerNight)
	assert.Equal(t, []string{"booking.created"}, pub.published)
}

func TestCreate_SnapshotsRoomFields(t *testing.T) {
	svc, store, _, _, userID, roomID := newTestService()

	id, err := svc.Create(context.Background(), userID, CreateRequest{
		RoomID:     roomID.Hex(),
		CheckIn:    "2024-01-01",
		CheckOut:   "2024-01-02",
		GuestCount: 2,
	})
	require.NoError(t, err)

	b := store.bookings[id]
	assert.Equal(t, "Sea View Inn", b.HotelName)
	assert.Equal(t, "12 Beach Road", b.Address)
	assert.Equal(t, "https://img.example/room.jpg", b.Image)
}

func TestCreate_ClientSnapshotOverridesKept(t *testing.T) {
	svc, store, _, _, userID, roomID := newTestService()

	id, err := svc.Create(context.Background(), userID, CreateRequest{
		RoomID:     roomID.Hex(),
		CheckIn:    "2024-01-01",
		CheckOut:   "2024-01-02",
		GuestCount: 2,
		HotelName:  "Sea View Inn (Deluxe Wing)",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sea View Inn (Deluxe Wing)", store.bookings[id].HotelName)
}

func TestCreate_InvalidInput(t *testing.T) {
	svc, _, _, _, userID, roomID := newTestService()

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{
			name:    "bad room id",
			req:     CreateRequest{RoomID: "nope", CheckIn: "2024-01-01", CheckOut: "2024-01-02", GuestCount: 1},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "bad check-in format",
			req:     CreateRequest{RoomID: roomID.Hex(), CheckIn: "01/02/2024", CheckOut: "2024-01-02", GuestCount: 1},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "check-out before check-in",
			req:     CreateRequest{RoomID: roomID.Hex(), CheckIn: "2024-01-05", CheckOut: "2024-01-02", GuestCount: 1},
			wantErr: domain.ErrInvalidDateRange,
		},
		{
			name:    "zero guests",
			req:     CreateRequest{RoomID: roomID.Hex(), CheckIn: "2024-01-01", CheckOut: "2024-01-02", GuestCount: 0},
			wantErr: domain.ErrInvalidGuestCount,
		},
		{
			name:    "unknown room",
			req:     CreateRequest{RoomID: primitive.NewObjectID().Hex(), CheckIn: "2024-01-01", CheckOut: "2024-01-02", GuestCount: 1},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), userID, tt.req)
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}
}

func TestCreate_PublishFailureDoesNotFailBooking(t *testing.T) {
	svc, store, _, pub, userID, roomID := newTestService()
	pub.err = errors.New("rabbit down")

	id, err := svc.Create(context.Background(), userID, CreateRequest{
		RoomID:     roomID.Hex(),
		CheckIn:    "2024-01-01",
		CheckOut:   "2024-01-02",
		GuestCount: 1,
	})
	require.NoError(t, err)
	assert.Contains(t, store.bookings, id)
}

func TestCancel(t *testing.T) {
	svc, store, _, pub, userID, roomID := newTestService()

	mk := func(status domain.BookingStatus) primitive.ObjectID {
		id := primitive.NewObjectID()
		store.bookings[id] = domain.Booking{ID: id, UserID: userID, RoomID: roomID, Status: status}
		return id
	}

	t.Run("pending is cancelled", func(t *testing.T) {
		id := mk(domain.BookingPending)
		require.NoError(t, svc.Cancel(context.Background(), userID, id))
		assert.Equal(t, domain.BookingCancelled, store.bookings[id].Status)
		assert.Contains(t, pub.published, "booking.cancelled")
	})

	t.Run("paid is rejected", func(t *testing.T) {
		id := mk(domain.BookingPaid)
		err := svc.Cancel(context.Background(), userID, id)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "got %v", err)
		assert.Equal(t, domain.BookingPaid, store.bookings[id].Status)
	})

	t.Run("cancelled is a no-op", func(t *testing.T) {
		id := mk(domain.BookingCancelled)
		require.NoError(t, svc.Cancel(context.Background(), userID, id))
		assert.Equal(t, domain.BookingCancelled, store.bookings[id].Status)
	})

	t.Run("foreign booking looks missing", func(t *testing.T) {
		id := mk(domain.BookingPending)
		err := svc.Cancel(context.Background(), primitive.NewObjectID(), id)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
		assert.Equal(t, domain.BookingPending, store.bookings[id].Status)
	})
}

func TestListForUser_Formatting(t *testing.T) {
	svc, store, _, _, userID, roomID := newTestService()

	id, err := svc.Create(context.Background(), userID, CreateRequest{
		RoomID:     roomID.Hex(),
		CheckIn:    "2024-01-01",
		CheckOut:   "2024-01-04",
		GuestCount: 3,
	})
	require.NoError(t, err)
	b := store.bookings[id]

	views, err := svc.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, views, 1)

	v := views[0]
	assert.Equal(t, id.Hex(), v.ID)
	assert.Equal(t, "2024-01-01", v.CheckIn)
	assert.Equal(t, "2024-01-04", v.CheckOut)
	assert.Equal(t, b.CreatedAt.Format("2006-01-02 15:04:05"), v.CreatedAt)
	assert.Equal(t, "pending", v.Status)
	assert.Equal(t, int64(12000), v.TotalAmount)
}
