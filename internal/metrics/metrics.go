// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the API updates. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheLookupsTotal     *prometheus.CounterVec
	CacheInvalidations    prometheus.Counter
	AuthzDecisionsTotal   *prometheus.CounterVec
	ArtistTransitionTotal *prometheus.CounterVec
	RoleGrantFailures     prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "music_permission_cache_lookups_total",
				Help: "Permission resolution cache lookups by result",
			},
			[]string{"result"},
		),
		CacheInvalidations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "music_permission_cache_invalidations_total",
				Help: "Permission resolution cache invalidations",
			},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "music_authz_decisions_total",
				Help: "Authorization gate decisions",
			},
			[]string{"decision"},
		),
		ArtistTransitionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "music_artist_transitions_total",
				Help: "Artist status transitions by target status",
			},
			[]string{"to"},
		),
		RoleGrantFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "music_artist_role_grant_failures_total",
				Help: "Role grants skipped or failed after an artist was accepted",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.CacheLookupsTotal,
		m.CacheInvalidations,
		m.AuthzDecisionsTotal,
		m.ArtistTransitionTotal,
		m.RoleGrantFailures,
	)
	return m
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheLookupsTotal.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) CacheInvalidated() {
	if m != nil {
		m.CacheInvalidations.Inc()
	}
}

func (m *Metrics) AuthzDecision(allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.AuthzDecisionsTotal.WithLabelValues("allow").Inc()
	} else {
		m.AuthzDecisionsTotal.WithLabelValues("deny").Inc()
	}
}

func (m *Metrics) ArtistTransition(to string) {
	if m != nil {
		m.ArtistTransitionTotal.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) RoleGrantFailed() {
	if m != nil {
		m.RoleGrantFailures.Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
