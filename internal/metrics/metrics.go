// Package metrics exposes Prometheus metrics for backtest runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusPanicked = "panicked"
	StatusSkipped  = "skipped"
)

// Metrics holds the run counters. A nil *Metrics records nothing.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	RunsInFlight    prometheus.Gauge
	TradesSimulated prometheus.Counter
	Liquidations    prometheus.Counter
	BarsSimulated   prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the metrics with reg. A nil reg uses a fresh registry.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "perpbt"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Backtest runs by strategy and status",
		}, []string{"strategy", "status"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "run_duration_seconds",
			Help:      "Wall time of one backtest run",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"strategy"}),
		RunsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_in_flight",
			Help:      "Runs currently executing",
		}),
		TradesSimulated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Trades produced by completed runs",
		}),
		Liquidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "liquidations_total",
			Help:      "Trades that ended in liquidation",
		}),
		BarsSimulated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "bars_simulated_total",
			Help:      "Bars walked by the equity simulator",
		}),
		gatherer: reg,
	}
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(strategy, status string, d time.Duration, bars, trades, liquidations int) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(strategy, status).Inc()
	m.RunDuration.WithLabelValues(strategy).Observe(d.Seconds())
	m.BarsSimulated.Add(float64(bars))
	m.TradesSimulated.Add(float64(trades))
	m.Liquidations.Add(float64(liquidations))
}

func (m *Metrics) Started() {
	if m != nil {
		m.RunsInFlight.Inc()
	}
}

func (m *Metrics) Finished() {
	if m != nil {
		m.RunsInFlight.Dec()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
