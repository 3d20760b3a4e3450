// Package metrics exposes Prometheus collectors for the recipe store and the
// catalog fetch.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recipebox/store"
)

type Metrics struct {
	registry  *prometheus.Registry
	recipes   prometheus.Gauge
	mutations *prometheus.CounterVec
	fetches   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recipes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "recipebox",
			Name:      "recipes",
			Help:      "Number of recipes currently held in the store.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipebox",
			Name:      "store_mutations_total",
			Help:      "Store mutations by operation.",
		}, []string{"op"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipebox",
			Name:      "fetches_total",
			Help:      "Recipe list fetches by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.recipes, m.mutations, m.fetches)
	return m
}

// Observe keeps the collectors in step with st until the returned function is called.
func (m *Metrics) Observe(st *store.Store) (stop func()) {
	m.recipes.Set(float64(st.Len()))
	return st.Subscribe(func(ev store.Event) {
		m.recipes.Set(float64(len(ev.Recipes)))
		m.mutations.WithLabelValues(string(ev.Op)).Inc()
	})
}

// FetchDone records a fetch outcome. It matches catalog.WithFetchObserver.
func (m *Metrics) FetchDone(err error) {
	if err != nil {
		m.fetches.WithLabelValues("failure").Inc()
		return
	}
	m.fetches.WithLabelValues("success").Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
