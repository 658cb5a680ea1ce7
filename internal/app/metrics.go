package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes recorded by contact_submissions_total.
const (
	OutcomeAccepted   = "accepted"
	OutcomeInvalid    = "invalid"
	OutcomeUnverified = "unverified"
	OutcomeFailed     = "failed"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics holds the contact pipeline counters.
type Metrics struct {
	Submissions   *prometheus.CounterVec
	SinkWrites    *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

// NewMetrics creates the contact counters and registers them with reg.
// A nil registerer leaves the counters unregistered, which is useful in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submissions by outcome.",
		}, []string{"outcome"}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_sink_writes_total",
			Help: "Inquiry writes per sink by result.",
		}, []string{"sink", "result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_notifications_total",
			Help: "Notifications sent by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.Submissions, m.SinkWrites, m.Notifications)
	}

	return m
}

func resultLabel(err error) string {
	if err != nil {
		return resultFailure
	}

	return resultSuccess
}
