package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoadapter "github.com/robertarktes/hotel-booking-backend/internal/adapters/mongo"
	"github.com/robertarktes/hotel-booking-backend/internal/adapters/rabbit"
	razorpayadapter "github.com/robertarktes/hotel-booking-backend/internal/adapters/razorpay"
	redisadapter "github.com/robertarktes/hotel-booking-backend/internal/adapters/redis"
	"github.com/robertarktes/hotel-booking-backend/internal/booking"
	"github.com/robertarktes/hotel-booking-backend/internal/chat"
	"github.com/robertarktes/hotel-booking-backend/internal/config"
	httphandler "github.com/robertarktes/hotel-booking-backend/internal/http"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
	"github.com/robertarktes/hotel-booking-backend/internal/payments"
	"github.com/robertarktes/hotel-booking-backend/internal/rateLimit"
)

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
	orderRepo := mongoadapter.NewOrderRepository(db, logger)
	roomCatalog := mongoadapter.NewRoomCatalog(db, logger)
	userRepo := mongoadapter.NewUserRepository(db, logger)
	reconRepo := mongoadapter.NewReconRepository(db, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)
	rl := rateLimit.NewRateLimiter(redisCache)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer rabbitConn.Close()
	rabbitPub, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	gateway := razorpayadapter.NewGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, logger)
	parser := chat.NewGeminiParser(cfg.GeminiAPIKey, cfg.GeminiModel, logger)

	bookingSvc := booking.NewService(bookingRepo, roomCatalog, userRepo, rabbitPub, logger)
	paymentsSvc := payments.NewService(orderRepo, bookingRepo, reconRepo, gateway, rabbitPub, logger, cfg.Currency)
	chatSvc := chat.NewService(parser, roomCatalog, bookingSvc, redisCache, logger)

	handlers := httphandler.NewHandlers(bookingSvc, paymentsSvc, chatSvc, bookingRepo, userRepo, logger)
	r := httphandler.SetupRouter(handlers, logger, rl)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
