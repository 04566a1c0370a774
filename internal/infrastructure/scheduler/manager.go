// Package scheduler runs the agent's periodic jobs on gocron v2.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager owns one gocron scheduler for all agent jobs.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a scheduler in the business timezone.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// ========================================
// Payment Sweep (configured interval, start immediately)
// ========================================

// RegisterPaymentSweep runs job every interval. A run that is still going
// when the next tick fires delays that tick instead of overlapping it, and
// each run is cut off after timeout.
func (m *SchedulerManager) RegisterPaymentSweep(job BatchJob, interval, timeout time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("payment sweep interval must be positive, got %s", interval)
	}
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			m.runPaymentSweep(ctx, job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("payment", "sweep"),
		gocron.WithName("payment-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered payment sweep", "interval", interval, "timeout", timeout)
	return nil
}

func (m *SchedulerManager) runPaymentSweep(ctx context.Context, job BatchJob) {
	m.logger.Debugw("payment sweep started")

	startTime := biztime.NowUTC()
	processed, err := job.Execute(ctx)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			m.logger.Warnw("payment sweep timed out",
				"error", err,
				"duration", time.Since(startTime),
			)
			return
		}
		m.logger.Errorw("payment sweep failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if processed > 0 {
		m.logger.Infow("payment sweep completed",
			"processed", processed,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("no due payments",
			"duration", time.Since(startTime),
		)
	}
}

// ========================================
// Scheduler Lifecycle Methods
// ========================================

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
