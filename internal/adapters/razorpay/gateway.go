package razorpay

import (
	"context"

	"github.com/cockroachdb/errors"
	razorpay "github.com/razorpay/razorpay-go"

	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

// Gateway opens remote payment orders with Razorpay. Amounts are minor
// currency units, capture mode is always automatic.
type Gateway struct {
	client *razorpay.Client
	logger observability.Logger
}

func NewGateway(keyID, keySecret string, logger observability.Logger) *Gateway {
	return &Gateway{
		client: razorpay.NewClient(keyID, keySecret),
		logger: logger,
	}
}

func (g *Gateway) CreateOrder(ctx context.Context, amountMinor int64, currency string) (domain.GatewayOrder, error) {
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":          amountMinor,
		"currency":        currency,
		"payment_capture": 1,
	}, nil)
	if err != nil {
		g.logger.WithError(err).Error("razorpay order create failed")
		return domain.GatewayOrder{}, errors.Mark(errors.Wrap(err, "razorpay order create"), domain.ErrUpstream)
	}

	order := domain.GatewayOrder{Currency: currency, Amount: amountMinor}
	id, ok := body["id"].(string)
	if !ok || id == "" {
		return domain.GatewayOrder{}, errors.Mark(errors.New("razorpay response missing order id"), domain.ErrUpstream)
	}
	order.ID = id
	if status, ok := body["status"].(string); ok {
		order.Status = status
	}
	if amount, ok := body["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	return order, nil
}
