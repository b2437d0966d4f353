// Package metrics collects and exposes Prometheus counters for the site's
// user-visible actions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts the actions that matter for the funnel: waitlist signups,
// OTP round-trips, and credit-consuming search activity.
type Collector struct {
	registry *prometheus.Registry

	waitlistSignups prometheus.Counter
	otpRequests     prometheus.Counter
	logins          *prometheus.CounterVec
	searches        *prometheus.CounterVec
	exports         prometheus.Counter
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		waitlistSignups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_waitlist_signups_total",
			Help: "Waitlist emails accepted by the landing page.",
		}),
		otpRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_otp_requests_total",
			Help: "One-time passcode emails requested.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coastal_logins_total",
			Help: "OTP verification attempts by outcome.",
		}, []string{"outcome"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coastal_searches_total",
			Help: "Property searches by kind (structured, ai).",
		}, []string{"kind"}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_exports_total",
			Help: "CSV exports requested.",
		}),
	}
	registry.MustRegister(c.waitlistSignups, c.otpRequests, c.logins, c.searches, c.exports)
	return c
}

func (c *Collector) RecordWaitlistSignup()      { c.waitlistSignups.Inc() }
func (c *Collector) RecordOTPRequest()          { c.otpRequests.Inc() }
func (c *Collector) RecordLogin(outcome string) { c.logins.WithLabelValues(outcome).Inc() }
func (c *Collector) RecordSearch(kind string)   { c.searches.WithLabelValues(kind).Inc() }
func (c *Collector) RecordExport()              { c.exports.Inc() }

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
