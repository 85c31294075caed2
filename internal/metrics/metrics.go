// Package metrics exposes Prometheus counters for the scan engine.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
)

var (
	// candidatesTotal counts checked candidates by strategy and outcome
	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keyscan_candidates_total",
		Help: "Total candidates checked by strategy and outcome",
	}, []string{"strategy", "outcome"})

	// filterRejectionsTotal counts hex filter rejections by rule
	filterRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keyscan_filter_rejections_total",
		Help: "Total candidates rejected by the hex pattern filter, by rule",
	}, []string{"rule"})

	// checkpointSavesTotal counts checkpoint writes by result
	checkpointSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keyscan_checkpoint_saves_total",
		Help: "Total checkpoint saves by result",
	}, []string{"result"})

	// checkpointSaveDuration tracks checkpoint write latency
	checkpointSaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "keyscan_checkpoint_save_duration_seconds",
		Help:    "Checkpoint save duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	})

	// activeShards tracks shards currently being scanned
	activeShards = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "keyscan_active_shards",
		Help: "Number of shards currently being scanned",
	})
)

// ObserveCheck records the outcome of one candidate.
func ObserveCheck(strategy keyscan.Strategy, res keyscan.CheckResult) {
	candidatesTotal.WithLabelValues(string(strategy), res.Outcome.String()).Inc()
	if res.Outcome == keyscan.OutcomeFiltered {
		filterRejectionsTotal.WithLabelValues(res.Rule.String()).Inc()
	}
}

// ObserveCheckpoint records one checkpoint save.
func ObserveCheckpoint(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	checkpointSavesTotal.WithLabelValues(result).Inc()
	checkpointSaveDuration.Observe(d.Seconds())
}

// ShardStarted increments the active shard gauge; the returned func undoes it.
func ShardStarted() func() {
	activeShards.Inc()
	return activeShards.Dec
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}
