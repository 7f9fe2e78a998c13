package expr

import (
	"github.com/brimdata/openrec/rerr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts operator evaluations.  A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	rows   *prometheus.CounterVec
	errors *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)
	return &Metrics{
		rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openrec_rows_total",
				Help: "Number of rows evaluated by an operator.",
			},
			[]string{"op"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openrec_row_errors_total",
				Help: "Number of rows an operator failed on.",
			},
			[]string{"op", "kind"},
		),
	}
}

func (m *Metrics) Row(op string) {
	if m != nil {
		m.rows.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) Error(op string, err error) {
	if m != nil {
		m.errors.WithLabelValues(op, rerr.KindOf(err).Name()).Inc()
	}
}
