package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/robertarktes/hotel-booking-backend/internal/adapters/rabbit"
	"github.com/robertarktes/hotel-booking-backend/internal/booking"
	"github.com/robertarktes/hotel-booking-backend/internal/config"
	"github.com/robertarktes/hotel-booking-backend/internal/notify"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

// The notifier drains booking.created events and sends confirmation emails.
// Email is best-effort by design: a failed send is logged and the message
// requeued once, never bounced back into the booking flow.
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

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, "notify.q", "booking.created")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx, "notifier-"+uuid.New().String())
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	worker := NewMailWorker(mailer, logger)
	go worker.Run(ctx, deliveries)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown notifier")
}

type MailWorker struct {
	mailer *notify.Mailer
	logger observability.Logger
}

func NewMailWorker(mailer *notify.Mailer, logger observability.Logger) *MailWorker {
	return &MailWorker{mailer: mailer, logger: logger}
}

func (w *MailWorker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.handle(d)
		}
	}
}

func (w *MailWorker) handle(d amqp.Delivery) {
	var event booking.CreatedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.logger.WithError(err).Error("dropping malformed booking.created event")
		d.Nack(false, false)
		return
	}

	err := w.mailer.SendBookingConfirmation(notify.Confirmation{
		ToEmail:   event.ToEmail,
		Name:      event.Name,
		BookingID: event.BookingID,
		HotelName: event.HotelName,
		Address:   event.Address,
		CheckIn:   event.CheckIn,
		Amount:    event.Amount,
	})
	if err != nil {
		// One redelivery; after that the event is dropped for good.
		d.Nack(false, !d.Redelivered)
		return
	}
	d.Ack(false)
}
