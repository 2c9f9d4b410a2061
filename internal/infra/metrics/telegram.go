package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		usersSeenTotal,
		telegramCommandsReceivedTotal,
		telegramCallbacksReceivedTotal,
		telegramRateLimitTriggeredTotal,
		adminCommandTotal,
	)
}

var (
	usersSeenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_seen_total",
			Help: "Total number of distinct users that started a session.",
		},
	)

	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming messages and commands from users.",
		},
		[]string{"command"},
	)

	telegramCallbacksReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_callbacks_received_total",
			Help: "Counts inline button presses by action.",
		},
		[]string{"action"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	adminCommandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_command_total",
			Help: "Tracks attempts to use admin commands.",
		},
		[]string{"command", "status"}, // status: authorized|unauthorized
	)
)

func IncUsersSeen() {
	usersSeenTotal.Inc()
}

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(label(command)).Inc()
}

func IncTelegramCallback(action string) {
	telegramCallbacksReceivedTotal.WithLabelValues(label(action)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncAdminCommand(command, status string) {
	adminCommandTotal.WithLabelValues(label(command), label(status)).Inc()
}
