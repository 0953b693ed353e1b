// Package metrics exposes simulation progress as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moransim"

// Trial outcomes recorded by ObserveTrial.
const (
	OutcomeCompleted = "completed"
	OutcomeStopped   = "stopped"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)

// Metrics owns a private registry so several simulations can run in one
// process. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	cycles      prometheus.Counter
	steps       prometheus.Counter
	trials      *prometheus.CounterVec
	meanFitness prometheus.Gauge
	timeClock   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Death/division cycles executed.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Discrete time steps executed.",
		}),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_total",
			Help:      "Trials finished, by outcome.",
		}, []string{"outcome"}),
		meanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_fitness",
			Help:      "Mean fitness after the most recent step.",
		}),
		timeClock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "time_clock",
			Help:      "Continuous time clock after the most recent step.",
		}),
	}
	m.registry.MustRegister(
		m.cycles, m.steps, m.trials, m.meanFitness, m.timeClock,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveStep(cycles int, meanFitness, timeClock float64) {
	if m == nil {
		return
	}
	m.cycles.Add(float64(cycles))
	m.steps.Inc()
	m.meanFitness.Set(meanFitness)
	m.timeClock.Set(timeClock)
}

func (m *Metrics) ObserveTrial(outcome string) {
	if m == nil {
		return
	}
	m.trials.WithLabelValues(outcome).Inc()
}
