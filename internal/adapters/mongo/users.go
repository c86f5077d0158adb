package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

// UserRepository is the read side of the user collection. Account creation
// and authentication live in a separate service.
type UserRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewUserRepository(db *mongo.Database, logger observability.Logger) *UserRepository {
	return &UserRepository{
		coll:   db.Collection("users"),
		logger: logger,
	}
}

func (r *UserRepository) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("failed to get user")
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		r.logger.WithError(err).Error("failed to get users")
		return nil, err
	}
	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
