package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	MongoURI  string
	MongoDB   string
	RedisAddr string
	RabbitURL string

	RazorpayKeyID     string
	RazorpayKeySecret string
	Currency          string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	GeminiAPIKey string
	GeminiModel  string

	ReconcileInterval time.Duration
	OTLPEndpoint      string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "hbb"
	}

	currency := os.Getenv("CURRENCY")
	if currency == "" {
		currency = "INR"
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-pro"
	}

	smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if smtpPort == 0 {
		smtpPort = 587
	}

	reconcileInterval, _ := time.ParseDuration(os.Getenv("RECONCILE_INTERVAL"))
	if reconcileInterval == 0 {
		reconcileInterval = time.Minute
	}

	return &Config{
		HTTPAddr:          httpAddr,
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           mongoDB,
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RabbitURL:         os.Getenv("RABBIT_URL"),
		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		Currency:          currency,
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          smtpPort,
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
		MailFrom:          os.Getenv("MAIL_FROM"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       model,
		ReconcileInterval: reconcileInterval,
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
