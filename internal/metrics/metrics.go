package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gi8lino/tilecarto/internal/carto"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels of tilecarto_resolutions_total.
const (
	OutcomeOK                 = "ok"
	OutcomeMissingCredentials = "missing_credentials"
	OutcomeUnsupportedScheme  = "unsupported_scheme"
	OutcomeInvalidDescriptor  = "invalid_descriptor"
	OutcomeConfigLoad         = "config_load"
	OutcomeRemoteRejected     = "remote_rejected"
	OutcomeRemoteUnavailable  = "remote_unavailable"
	OutcomeUnexpectedResponse = "unexpected_response"
	OutcomeTransport          = "transport"
	OutcomeError              = "error"
)

// Metrics records resolutions and upstream requests.
// It implements carto.Observer and fetcher.Observer.
type Metrics struct {
	gatherer    prometheus.Gatherer
	resolutions *prometheus.CounterVec
	upstream    *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tilecarto_resolutions_total",
			Help: "Connection string resolutions by scheme and outcome.",
		}, []string{"scheme", "outcome"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tilecarto_upstream_request_duration_seconds",
			Help:    "Duration of named-map API requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}
	reg.MustRegister(m.resolutions, m.upstream)
	return m
}

// ObserveResolution implements carto.Observer.
func (m *Metrics) ObserveResolution(mode carto.Mode, err error) {
	m.resolutions.WithLabelValues(mode.String(), Outcome(err)).Inc()
}

// ObserveRequest implements fetcher.Observer. A zero status means no response.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.upstream.WithLabelValues(method, code).Observe(d.Seconds())
}

// Handler exposes the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Outcome maps a resolution error to its label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, carto.ErrMissingCredentials):
		return OutcomeMissingCredentials
	case errors.Is(err, carto.ErrUnsupportedScheme):
		return OutcomeUnsupportedScheme
	case errors.Is(err, carto.ErrInvalidDescriptor):
		return OutcomeInvalidDescriptor
	case errors.Is(err, carto.ErrConfigLoad):
		return OutcomeConfigLoad
	case errors.Is(err, carto.ErrRemoteRejected):
		return OutcomeRemoteRejected
	case errors.Is(err, carto.ErrRemoteUnavailable):
		return OutcomeRemoteUnavailable
	case errors.Is(err, carto.ErrUnexpectedResponse):
		return OutcomeUnexpectedResponse
	case errors.Is(err, carto.ErrTransport):
		return OutcomeTransport
	default:
		return OutcomeError
	}
}
