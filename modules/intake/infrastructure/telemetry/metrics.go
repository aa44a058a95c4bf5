// Package telemetry turns controller events into Prometheus metrics and audit log lines.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iota-uz/intake/modules/intake/services"
	"github.com/iota-uz/intake/pkg/eventbus"
)

type Metrics struct {
	sectionsOpened *prometheus.CounterVec
	saveSeconds    *prometheus.HistogramVec
	savesUnsettled *prometheus.CounterVec
	halts          *prometheus.CounterVec
	finished       *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sectionsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "sections_opened_total",
			Help:      "Sections opened by the wizard.",
		}, []string{"section"}),
		saveSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "intake",
			Name:      "save_confirm_seconds",
			Help:      "Time from a field save to the confirmed still_needed refresh.",
			Buckets:   []float64{0.25, 0.5, 0.75, 1, 2, 5, 10},
		}, []string{"section", "complete"}),
		savesUnsettled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "save_unresolved_total",
			Help:      "Saves that never settled before the poll ceiling.",
		}, []string{"section"}),
		halts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "halted_total",
			Help:      "Wizards halted by a section or backend error.",
		}, []string{"reason"}),
		finished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "finished_total",
			Help:      "Wizards that reached the end of the page.",
		}, []string{"outcome"}),
	}
}

// Subscribe registers the metric handlers on bus.
func (m *Metrics) Subscribe(bus eventbus.EventBus) {
	bus.Subscribe(m.onSectionOpened)
	bus.Subscribe(m.onSaveConfirmed)
	bus.Subscribe(m.onSaveUnresolved)
	bus.Subscribe(m.onHalted)
	bus.Subscribe(m.onFinished)
}

func (m *Metrics) onSectionOpened(e *services.SectionOpenedEvent) {
	m.sectionsOpened.WithLabelValues(e.SectionID).Inc()
}

func (m *Metrics) onSaveConfirmed(e *services.SaveConfirmedEvent) {
	complete := "false"
	if e.Complete {
		complete = "true"
	}
	m.saveSeconds.WithLabelValues(e.SectionID, complete).Observe(e.Elapsed.Seconds())
}

func (m *Metrics) onSaveUnresolved(e *services.SaveUnresolvedEvent) {
	m.savesUnsettled.WithLabelValues(e.SectionID).Inc()
}

func (m *Metrics) onHalted(e *services.HaltedEvent) {
	m.halts.WithLabelValues(e.Reason).Inc()
}

func (m *Metrics) onFinished(e *services.FinishedEvent) {
	outcome := "completion_ui"
	if e.Reloaded {
		outcome = "reload"
	}
	m.finished.WithLabelValues(outcome).Inc()
}
