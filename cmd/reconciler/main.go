package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoadapter "github.com/robertarktes/hotel-booking-backend/internal/adapters/mongo"
	"github.com/robertarktes/hotel-booking-backend/internal/adapters/rabbit"
	"github.com/robertarktes/hotel-booking-backend/internal/config"
	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

const maxAttempts = 5

// The reconciler repairs the gap the confirmation flow can leave behind: a
// paid order whose booking-side status write failed. It retries the booking
// update until the pair converges.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDB)

	bookingRepo := mongoadapter.NewBookingRepository(db, logger)
	reconRepo := mongoadapter.NewReconRepository(db, logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	rabbitPub, err := rabbit.NewPublisher(conn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	worker := NewReconWorker(bookingRepo, reconRepo, rabbitPub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx, cfg.ReconcileInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown reconciler")
}

type ReconWorker struct {
	bookings  *mongoadapter.BookingRepository
	recon     *mongoadapter.ReconRepository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewReconWorker(bookings *mongoadapter.BookingRepository, recon *mongoadapter.ReconRepository, rabbitPub *rabbit.Publisher, logger observability.Logger) *ReconWorker {
	return &ReconWorker{bookings: bookings, recon: recon, rabbitPub: rabbitPub, logger: logger}
}

func (w *ReconWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tasks, err := w.recon.GetPending(ctx, 10)
			if err != nil {
				w.logger.WithError(err).Error("failed to load pending reconciliation tasks")
				continue
			}
			for _, task := range tasks {
				if err := w.process(ctx, task); err != nil {
					w.logger.WithError(err).
						WithField("booking_id", task.BookingID.Hex()).
						Error("failed to reconcile booking")
				}
			}
		}
	}
}

func (w *ReconWorker) process(ctx context.Context, task mongoadapter.ReconTask) error {
	err := w.bookings.UpdateStatus(ctx, task.BookingID, domain.BookingPending, domain.BookingPaid)
	if err == nil {
		if err := w.recon.MarkResolved(ctx, task.ID); err != nil {
			return err
		}
		payload, _ := json.Marshal(map[string]interface{}{
			"booking_id":       task.BookingID.Hex(),
			"gateway_order_id": task.GatewayOrderID,
		})
		msg := amqp.Publishing{
			MessageId:   uuid.New().String(),
			ContentType: "application/json",
			Body:        payload,
		}
		if pubErr := w.rabbitPub.Publish(ctx, "booking.reconciled", msg); pubErr != nil {
			w.logger.WithError(pubErr).Warn("failed to publish booking.reconciled")
		}
		return nil
	}

	// Check current state before counting the attempt: the booking may have
	// been repaired out of band, or be unrepairable (e.g. cancelled while the
	// payment was in flight).
	current, getErr := w.bookings.Get(ctx, task.BookingID)
	if getErr == nil && current.Status == domain.BookingPaid {
		return w.recon.MarkResolved(ctx, task.ID)
	}

	return w.recon.RecordAttempt(ctx, task.ID, maxAttempts)
}
