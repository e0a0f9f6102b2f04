package accounts

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics counts account operations by outcome. A nil *Metrics is a no-op.
type Metrics struct {
	operations *prometheus.CounterVec
}

// NewMetrics registers the account counters with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounts",
			Name:      "operations_total",
			Help:      "Account operations partitioned by operation and outcome.",
		}, []string{"operation", "outcome", "code"}),
	}

	if reg != nil {
		if err := reg.Register(m.operations); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Observe counts one operation; err selects the outcome and text code
func (m *Metrics) Observe(operation string, err error) {
	if m == nil || m.operations == nil {
		return
	}

	outcome := OutcomeSuccess
	code := ""
	if err != nil {
		outcome = OutcomeFailure
		code = TextCode(err)
		if code == "" {
			code = "UNKNOWN"
		}
	}

	m.operations.WithLabelValues(operation, outcome, code).Inc()
}

// Counter exposes the underlying vector
func (m *Metrics) Counter() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.operations
}
