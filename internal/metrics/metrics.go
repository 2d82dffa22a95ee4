// Package metrics exposes Prometheus collectors for group engine activity.
// Counters are driven off the engine event stream, so the metrics can never
// disagree with the persisted event log.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mmynk/tanda/internal/models"
)

var (
	GroupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tanda_groups_created_total",
		Help: "Number of savings groups created.",
	})

	ActiveGroups = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tanda_groups_active",
		Help: "Number of groups currently in ACTIVE status.",
	})

	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanda_engine_events_total",
		Help: "Engine state transitions by event type.",
	}, []string{"type"})

	ValueMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanda_value_moved_total",
		Help: "Token value moved by transition type, in smallest units.",
	}, []string{"type"})
)

// Record updates the collectors for a batch of drained engine events.
func Record(events []models.Event) {
	for _, e := range events {
		Events.WithLabelValues(string(e.Type)).Inc()
		if e.Amount > 0 {
			ValueMoved.WithLabelValues(string(e.Type)).Add(float64(e.Amount))
		}
		switch e.Type {
		case models.EventGroupActivated:
			ActiveGroups.Inc()
		case models.EventGroupCompleted:
			ActiveGroups.Dec()
		}
	}
}
