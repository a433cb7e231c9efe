package streak

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds counters for streak activity. A nil *Metrics records nothing.
type Metrics struct {
	activity *prometheus.CounterVec
	sessions prometheus.Gauge
}

// Label values for the result of RecordActivity.
const (
	resultAnonymous = "anonymous"
	resultFailed    = "failed"
)

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		activity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streaks",
			Name:      "activity_recorded_total",
			Help:      "Total number of activity recordings by result.",
		}, []string{"result"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "streaks",
			Name:      "sessions_active",
			Help:      "Number of per-user engines held in memory.",
		}),
	}

	if reg != nil {
		if err := reg.Register(m.activity); err != nil {
			return nil, err
		}
		if err := reg.Register(m.sessions); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) recordActivity(result string) {
	if m == nil {
		return
	}
	m.activity.WithLabelValues(result).Inc()
}

func (m *Metrics) setSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
