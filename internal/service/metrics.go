package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts orchestration outcomes that are reported out of band rather
// than to the caller: billing failures after a successful persist and event
// publish failures. Both feed reconciliation, not request handling.
type Metrics struct {
	BillingFailures prometheus.Counter
	PublishFailures prometheus.Counter
}

// NewMetrics creates and registers the orchestrator counters.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		BillingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patient_billing_failures_total",
			Help: "Billing provisioning calls that failed after the patient row was persisted.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patient_event_publish_failures_total",
			Help: "Patient-created events that could not be published to the stream.",
		}),
	}

	if err := reg.Register(m.BillingFailures); err != nil {
		return nil, err
	}
	if err := reg.Register(m.PublishFailures); err != nil {
		return nil, err
	}
	return m, nil
}

// Increment helpers are nil-safe so the service works without metrics wired.

func (m *Metrics) billingFailure() {
	if m != nil {
		m.BillingFailures.Inc()
	}
}

func (m *Metrics) publishFailure() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}
