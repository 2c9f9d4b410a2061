package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsTotal) }

// kind: audit|proof|approval|grant; status: sent|error
var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Operator channel and user notifications by kind and delivery status.",
	},
	[]string{"kind", "status"},
)

func IncNotification(kind, status string) {
	notificationsTotal.WithLabelValues(label(kind), label(status)).Inc()
}
