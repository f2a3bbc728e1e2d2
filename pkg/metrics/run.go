// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package metrics

import (
	"context"
	"math/big"

	"github.com/lendr-finance/lendr-deployer/pkg/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "lendr_deployer"

// RunMetrics collects the counters of a single deployment run on its own registry.
// A nil *RunMetrics is valid and records nothing.
type RunMetrics struct {
	network  string
	registry *prometheus.Registry

	transactions *prometheus.CounterVec
	gasUsed      prometheus.Counter
	retries      prometheus.Counter
	steps        *prometheus.CounterVec
	cost         prometheus.Gauge
}

func NewRunMetrics(network string) *RunMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &RunMetrics{
		network:  network,
		registry: registry,
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions sent and confirmed, by kind",
		}, []string{"kind"}),
		gasUsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gas_used_total",
			Help:      "Gas used by confirmed transactions",
		}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Failed attempts that were retried",
		}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Run steps by outcome",
		}, []string{"outcome"}),
		cost: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_cost_ether",
			Help:      "Deployer balance spent by the run",
		}),
	}
}

func (m *RunMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *RunMetrics) TxConfirmed(kind string, gasUsed uint64) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(kind).Inc()
	m.gasUsed.Add(float64(gasUsed))
}

func (m *RunMetrics) Retried() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// Steps accounts every result of a run
func (m *RunMetrics) Steps(results *models.StepResults) {
	if m == nil || results == nil {
		return
	}
	for _, r := range results.GetResults() {
		m.steps.WithLabelValues(r.Outcome.String()).Inc()
	}
}

func (m *RunMetrics) SetCost(wei *big.Int) {
	if m == nil || wei == nil {
		return
	}
	ether, _ := new(big.Rat).SetFrac(wei, big.NewInt(1e18)).Float64()
	m.cost.Set(ether)
}

// Push sends the run metrics to a prometheus push gateway
func (m *RunMetrics) Push(ctx context.Context, gatewayURL string) error {
	if m == nil || gatewayURL == "" {
		return nil
	}
	return push.New(gatewayURL, namespace).
		Gatherer(m.registry).
		Grouping("network", m.network).
		PushContext(ctx)
}

// WriteTextfile dumps the run metrics in the node exporter textfile format
func (m *RunMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
