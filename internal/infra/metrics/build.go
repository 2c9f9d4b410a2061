package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(botBuildInfo, botStartTime) }

var (
	botBuildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "course_bot_build_info",
			Help: "Build metadata of the running bot. Always 1.",
		},
		[]string{"version", "commit", "goversion"},
	)

	botStartTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "course_bot_start_time_seconds",
			Help: "Unix time the bot process started serving.",
		},
	)
)

// SetBuildInfo publishes the ldflags-injected version and marks the start time.
func SetBuildInfo(version, commit string) {
	botBuildInfo.WithLabelValues(label(version), label(commit), runtime.Version()).Set(1)
	botStartTime.SetToCurrentTime()
}
