package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		purchasesTotal,
		revenueTotal,
		verificationsTotal,
		ledgerRejectionsTotal,
	)
}

var (
	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_purchases_total",
			Help: "Granted course purchases by payment method.",
		},
		[]string{"method"}, // bkash|nagad|manual
	)

	revenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "course_revenue_taka_total",
			Help: "Sum of catalog prices of granted purchases, in taka.",
		},
	)

	// result: verified|failed|error
	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trx_verifications_total",
			Help: "Transaction reference verifications by result.",
		},
		[]string{"result"},
	)

	// reason: duplicate|in_flight
	ledgerRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trx_ledger_rejections_total",
			Help: "Transaction references rejected by the ledger before verification.",
		},
		[]string{"reason"},
	)
)

func IncPurchase(method string, price int64) {
	purchasesTotal.WithLabelValues(label(method)).Inc()
	revenueTotal.Add(float64(price))
}

func IncVerification(result string) {
	verificationsTotal.WithLabelValues(label(result)).Inc()
}

func IncLedgerRejection(reason string) {
	ledgerRejectionsTotal.WithLabelValues(label(reason)).Inc()
}
