package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Each metrics file queues its collectors from init; none are exported until
// MustRegister runs.
var (
	pending    []prometheus.Collector
	registered sync.Once
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister exports the queued collectors to reg. Only the first call has
// an effect, so main and tests may both call it.
func MustRegister(reg prometheus.Registerer) {
	registered.Do(func() {
		reg.MustRegister(pending...)
	})
}

// label lowercases a label value. Blank values collapse to "unknown".
func label(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}
