package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbb_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hbb_bookings_created_total",
			Help: "Total bookings created",
		},
	)

	BookingsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hbb_bookings_cancelled_total",
			Help: "Total bookings cancelled",
		},
	)

	PaymentsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hbb_payments_confirmed_total",
			Help: "Total payment confirmations applied",
		},
	)

	ReconTasksRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hbb_recon_tasks_recorded_total",
			Help: "Total reconciliation tasks recorded after partial confirmation failures",
		},
	)

	MailSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hbb_mail_send_failures_total",
			Help: "Total booking confirmation emails that failed to send",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hbb_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
