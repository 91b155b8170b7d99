// Package metrics constructs the metrics the application will track and
// exposes them for prometheus.
package metrics

import (
	"math/big"
	"net/http"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chain is the view of the node the chain gauges are read from.
type Chain interface {
	RetrieveLatestBlock() database.Block
	RetrieveDifficulty() uint32
	RetrieveAccumulatedDifficulty() *big.Int
	QueryMempoolLength() int
}

// Metrics holds the set of metrics the node tracks in its own registry.
type Metrics struct {
	registry *prometheus.Registry
	requests prometheus.Counter
	errors   prometheus.Counter
	panics   prometheus.Counter
}

// New constructs the metrics and registers the chain gauges that read from
// the specified chain on every scrape.
func New(chain Chain) *Metrics {
	reg := prometheus.NewRegistry()

	m := Metrics{
		registry: reg,
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "node_http_requests_total",
			Help: "Number of requests handled by the node.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "node_http_errors_total",
			Help: "Number of requests that ended in an error.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "node_http_panics_total",
			Help: "Number of requests that ended in a panic.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.errors,
		m.panics,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "node_chain_height",
			Help: "Index of the latest block.",
		}, func() float64 {
			return float64(chain.RetrieveLatestBlock().Header.Index)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "node_chain_difficulty",
			Help: "Difficulty required for the next block.",
		}, func() float64 {
			return float64(chain.RetrieveDifficulty())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "node_chain_accumulated_difficulty",
			Help: "Sum of 2^difficulty over the chain.",
		}, func() float64 {
			f, _ := new(big.Float).SetInt(chain.RetrieveAccumulatedDifficulty()).Float64()
			return f
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "node_mempool_transactions",
			Help: "Number of transactions waiting in the mempool.",
		}, func() float64 {
			return float64(chain.QueryMempoolLength())
		}),
	)

	return &m
}

// AddRequests increments the request count by 1.
func (m *Metrics) AddRequests() {
	m.requests.Inc()
}

// AddErrors increments the error count by 1.
func (m *Metrics) AddErrors() {
	m.errors.Inc()
}

// AddPanics increments the panic count by 1.
func (m *Metrics) AddPanics() {
	m.panics.Inc()
}

// Handler returns the handler serving the metrics in the prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gather returns the current value of the gauges and counters by name.
func (m *Metrics) Gather() (map[string]float64, error) {
	mfs, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64)
	for _, mf := range mfs {
		if len(mf.GetMetric()) != 1 {
			continue
		}

		metric := mf.GetMetric()[0]
		switch {
		case metric.GetGauge() != nil:
			values[mf.GetName()] = metric.GetGauge().GetValue()
		case metric.GetCounter() != nil:
			values[mf.GetName()] = metric.GetCounter().GetValue()
		}
	}

	return values, nil
}
