package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// CheckoutMetrics counts saga step outcomes, compensations and payment checks.
type CheckoutMetrics struct {
	steps         *prometheus.CounterVec
	compensations *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on reg. A nil registerer
// yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "step_total",
		Help:      "Checkout saga step executions by outcome.",
	}, []string{"step", "outcome"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "compensation_total",
		Help:      "Checkout undo actions by outcome.",
	}, []string{"step", "outcome"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "verification_total",
		Help:      "Payment session verifications by reported result.",
	}, []string{"result"})
	reg.MustRegister(steps, compensations, verifications)
	return &CheckoutMetrics{
		steps:         steps,
		compensations: compensations,
		verifications: verifications,
	}
}

func (m *CheckoutMetrics) ObserveStep(step, outcome string) {
	if m == nil || m.steps == nil {
		return
	}
	m.steps.WithLabelValues(normalizeLabel(step), normalizeLabel(outcome)).Inc()
}

func (m *CheckoutMetrics) ObserveCompensation(step, outcome string) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(normalizeLabel(step), normalizeLabel(outcome)).Inc()
}

// ObserveVerification records the gateway-reported result (paid, unpaid, error).
func (m *CheckoutMetrics) ObserveVerification(result string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(result)).Inc()
}
