package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LeadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_leads_total",
			Help: "Total number of lead lifecycle events",
		},
		[]string{"event"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_reservations_total",
			Help: "Total number of deposit reservation outcomes",
		},
		[]string{"outcome"},
	)

	RechargesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_deposit_recharges_total",
			Help: "Total number of deposit recharges",
		},
	)

	DepositAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leadflow_deposit_available_centimes",
			Help: "Currently available deposit balance in centimes",
		},
		[]string{"deposit_id"},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_deposit_alerts_total",
			Help: "Total number of low-balance alerts queued",
		},
		[]string{"tier"},
	)

	PayoutAccrualsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_payout_accruals_total",
			Help: "Total number of influencer payout accrual events emitted",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_notifications_total",
			Help: "Total number of notifications processed",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadflow_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordLead(event string) {
	LeadsTotal.WithLabelValues(event).Inc()
}

func RecordReservation(outcome string) {
	ReservationsTotal.WithLabelValues(outcome).Inc()
}

func RecordRecharge() {
	RechargesTotal.Inc()
}

func SetDepositAvailable(depositID string, centimes int64) {
	DepositAvailable.WithLabelValues(depositID).Set(float64(centimes))
}

func RecordAlert(tier string) {
	AlertsTotal.WithLabelValues(tier).Inc()
}

func RecordPayoutAccrual() {
	PayoutAccrualsTotal.Inc()
}

func RecordNotification(notificationType, status string) {
	NotificationsTotal.WithLabelValues(notificationType, status).Inc()
}

func SetNotificationQueueLength(length int64) {
	NotificationQueueLength.Set(float64(length))
}
