package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

type OrderRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewOrderRepository(db *mongo.Database, logger observability.Logger) *OrderRepository {
	return &OrderRepository{
		coll:   db.Collection("orders"),
		logger: logger,
	}
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (primitive.ObjectID, error) {
	order.Status = domain.OrderCreated
	order.CreatedAt = time.Now().UTC()
	res, err := r.coll.InsertOne(ctx, order)
	if err != nil {
		r.logger.WithError(err).Error("failed to insert order")
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (r *OrderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.coll.FindOne(ctx, bson.M{"gateway_order_id": gatewayOrderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("failed to get order")
		return nil, err
	}
	return &order, nil
}

// Confirm moves an order created -> paid and records the gateway payment
// fields. Returns the matched count; zero means no created order carries that
// gateway order id (missing, or already paid by a concurrent confirmation).
func (r *OrderRepository) Confirm(ctx context.Context, gatewayOrderID, gatewayPaymentID, gatewaySignature string) (int64, error) {
	now := time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"gateway_order_id": gatewayOrderID, "status": domain.OrderCreated},
		bson.M{"$set": bson.M{
			"status":             domain.OrderPaid,
			"gateway_payment_id": gatewayPaymentID,
			"gateway_signature":  gatewaySignature,
			"paid_at":            now,
		}},
	)
	if err != nil {
		r.logger.WithError(err).Error("failed to confirm order")
		return 0, err
	}
	return res.MatchedCount, nil
}
