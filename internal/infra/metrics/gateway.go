package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		gatewayTokenGrantsTotal,
		gatewayRequestDuration,
	)
}

var (
	gatewayTokenGrantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_token_grants_total",
			Help: "Access token grant requests by result (ok/fail).",
		},
		[]string{"gateway", "result"},
	)

	gatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Latency of payment gateway calls in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"gateway", "op", "result"},
	)
)

func IncTokenGrant(gateway, result string) {
	gatewayTokenGrantsTotal.WithLabelValues(label(gateway), label(result)).Inc()
}

func ObserveGatewayRequest(gateway, op, result string, seconds float64) {
	gatewayRequestDuration.WithLabelValues(label(gateway), label(op), label(result)).Observe(seconds)
}
