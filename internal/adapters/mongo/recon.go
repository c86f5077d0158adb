package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

// ReconTask records a paid order whose booking-side status write did not land.
// The reconciler retries these until resolved; nothing diverges silently.
type ReconTask struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	BookingID      primitive.ObjectID `bson:"booking_id"`
	GatewayOrderID string             `bson:"gateway_order_id"`
	Reason         string             `bson:"reason"`
	Status         string             `bson:"status"` // NEW, RESOLVED, FAILED
	Attempts       int                `bson:"attempts"`
	CreatedAt      time.Time          `bson:"created_at"`
	ResolvedAt     *time.Time         `bson:"resolved_at,omitempty"`
}

const (
	ReconNew      = "NEW"
	ReconResolved = "RESOLVED"
	ReconFailed   = "FAILED"
)

type ReconRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewReconRepository(db *mongo.Database, logger observability.Logger) *ReconRepository {
	return &ReconRepository{
		coll:   db.Collection("recon_tasks"),
		logger: logger,
	}
}

func (r *ReconRepository) Insert(ctx context.Context, task ReconTask) error {
	task.Status = ReconNew
	task.CreatedAt = time.Now().UTC()
	_, err := r.coll.InsertOne(ctx, task)
	if err != nil {
		r.logger.WithError(err).Error("failed to insert recon task")
		return err
	}
	return nil
}

func (r *ReconRepository) GetPending(ctx context.Context, limit int64) ([]ReconTask, error) {
	cur, err := r.coll.Find(ctx, bson.M{"status": ReconNew},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(limit))
	if err != nil {
		r.logger.WithError(err).Error("failed to list pending recon tasks")
		return nil, err
	}
	var tasks []ReconTask
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *ReconRepository) MarkResolved(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": ReconResolved, "resolved_at": now}},
	)
	return err
}

func (r *ReconRepository) RecordAttempt(ctx context.Context, id primitive.ObjectID, maxAttempts int) error {
	res := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var task ReconTask
	if err := res.Decode(&task); err != nil {
		return err
	}
	if task.Attempts >= maxAttempts {
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"status": ReconFailed}},
		)
		return err
	}
	return nil
}
