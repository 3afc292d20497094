package internal

import (
	"context"
	"time"

	"analytics-service/internal/adapters/metrics"
	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/port"
	"analytics-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

// periodicJob - maintenance task run on a ticker
type periodicJob struct {
	name     string
	interval time.Duration
	runNow   bool
	run      func(ctx context.Context) error
}

// runPeriodic blocks until ctx is cancelled. Errors are logged, the next
// tick retries.
func runPeriodic(ctx context.Context, logger port.LoggerPort, job periodicJob) {
	jobLogger := logger.WithFields(port.Fields{"job": job.name, "interval": job.interval.String()})

	tick := func() {
		runLogger := jobLogger.WithFields(port.Fields{"trace_id": uuid.New().String()})
		runCtx := contextkeys.ContextWithLogger(ctx, runLogger)

		start := time.Now()
		if err := job.run(runCtx); err != nil {
			runLogger.Error("Job run failed", err, nil)
			return
		}
		runLogger.Debug("Job run finished", port.Fields{"duration_ms": time.Since(start).Milliseconds()})
	}

	if job.runNow {
		tick()
	}

	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	jobLogger.Info("Job scheduled", nil)
	for {
		select {
		case <-ctx.Done():
			jobLogger.Info("Job stopped", nil)
			return
		case <-ticker.C:
			tick()
		}
	}
}

func marketRefreshJob(uc usecases_port.RefreshMarketAggregatesUseCase, interval time.Duration) periodicJob {
	return periodicJob{
		name:     "market_refresh",
		interval: interval,
		runNow:   true,
		run: func(ctx context.Context) error {
			groups, err := uc.Execute(ctx)
			if err != nil {
				return err
			}
			metrics.MarketAggregateGroups.Set(float64(groups))
			return nil
		},
	}
}

func staleSweepJob(uc usecases_port.DeactivateStaleListingsUseCase, interval time.Duration) periodicJob {
	return periodicJob{
		name:     "stale_sweep",
		interval: interval,
		run: func(ctx context.Context) error {
			n, err := uc.Execute(ctx)
			if err != nil {
				return err
			}
			metrics.StaleListingsDeactivated.Add(float64(n))
			return nil
		},
	}
}
