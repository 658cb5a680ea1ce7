package http

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brianfending/contact-service/internal/adapters/http/middleware"
)

// PanicCounter returns a hook that counts recovered handler panics in
// http_handler_panics_total. A nil registerer leaves the counter unregistered.
func PanicCounter(reg prometheus.Registerer) (middleware.PanicHook, prometheus.Counter) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_handler_panics_total",
		Help: "Handler panics recovered by the HTTP server.",
	})

	if reg != nil {
		reg.MustRegister(counter)
	}

	return func(context.Context, any, []byte) { counter.Inc() }, counter
}
