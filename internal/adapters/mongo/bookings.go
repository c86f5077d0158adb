package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

type BookingRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewBookingRepository(db *mongo.Database, logger observability.Logger) *BookingRepository {
	return &BookingRepository{
		coll:   db.Collection("bookings"),
		logger: logger,
	}
}

func (r *BookingRepository) Create(ctx context.Context, booking domain.Booking) (primitive.ObjectID, error) {
	booking.CreatedAt = time.Now().UTC()
	res, err := r.coll.InsertOne(ctx, booking)
	if err != nil {
		r.logger.WithError(err).Error("failed to insert booking")
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (r *BookingRepository) Get(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	var booking domain.Booking
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("failed to get booking")
		return nil, err
	}
	return &booking, nil
}

// GetForUser loads a booking only when it belongs to the given user, so the
// caller cannot tell a foreign booking apart from a missing one.
func (r *BookingRepository) GetForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Booking, error) {
	var booking domain.Booking
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("failed to get booking for user")
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Booking, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		r.logger.WithError(err).Error("failed to list bookings")
		return nil, err
	}
	var bookings []domain.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatus flips a booking's status only when the current status matches
// the expected prior state. Returns domain.ErrNotFound when nothing matched,
// which covers both a missing booking and a lost compare-and-swap.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.BookingStatus) error {
	if !from.CanTransition(to) {
		return errors.Mark(errors.Newf("booking %s: %s -> %s", id.Hex(), from, to), domain.ErrInvalidTransition)
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		r.logger.WithError(err).Error("failed to update booking status")
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type BookingSummary struct {
	TotalBookings int64 `bson:"total_bookings"`
	TotalAmount   int64 `bson:"total_amount"`
}

func (r *BookingRepository) Summary(ctx context.Context) (BookingSummary, error) {
	cur, err := r.coll.Aggregate(ctx, bson.A{
		bson.M{"$group": bson.M{
			"_id":            nil,
			"total_bookings": bson.M{"$sum": 1},
			"total_amount":   bson.M{"$sum": "$total_amount"},
		}},
	})
	if err != nil {
		r.logger.WithError(err).Error("failed to aggregate booking summary")
		return BookingSummary{}, err
	}
	var results []BookingSummary
	if err := cur.All(ctx, &results); err != nil {
		return BookingSummary{}, err
	}
	if len(results) == 0 {
		return BookingSummary{}, nil
	}
	return results[0], nil
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	cur, err := r.coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{
			"user_id":      1,
			"hotel_name":   1,
			"total_amount": 1,
			"status":       1,
		}))
	if err != nil {
		r.logger.WithError(err).Error("failed to list all bookings")
		return nil, err
	}
	var bookings []domain.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
