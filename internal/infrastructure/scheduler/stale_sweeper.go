package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/domain/shared"
)

// StaleSweeperConfig holds configuration for the stale task sweeper
type StaleSweeperConfig struct {
	// Interval is how often the sweeper scans for stuck tasks
	Interval time.Duration
	// StaleTimeout is how long a task may sit in processing before it is
	// considered orphaned
	StaleTimeout time.Duration
}

// DefaultStaleSweeperConfig returns default configuration
func DefaultStaleSweeperConfig() StaleSweeperConfig {
	return StaleSweeperConfig{
		Interval:     time.Minute,
		StaleTimeout: 10 * time.Minute,
	}
}

// StaleSweeper returns tasks orphaned in processing back to a runnable
// state. A task ends up orphaned when the host crashed between Start and
// the final Save, leaving the row claiming to be in flight forever.
type StaleSweeper struct {
	tasks     importer.TaskRepository
	events    shared.EventPublisher
	logger    *zap.Logger
	config    StaleSweeperConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewStaleSweeper creates a new stale sweeper
func NewStaleSweeper(tasks importer.TaskRepository, events shared.EventPublisher, logger *zap.Logger, config StaleSweeperConfig) *StaleSweeper {
	return &StaleSweeper{
		tasks:  tasks,
		events: events,
		logger: logger,
		config: config,
	}
}

// Start starts the stale sweeper
func (s *StaleSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Stale task sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("stale_timeout", s.config.StaleTimeout),
	)
	return nil
}

// Stop gracefully stops the sweeper
func (s *StaleSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Stale task sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Stale task sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *StaleSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep pass and returns how many tasks it recovered
func (s *StaleSweeper) SweepOnce(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-s.config.StaleTimeout)

	stale, err := s.tasks.FindStaleProcessing(ctx, cutoff)
	if err != nil {
		s.logger.Error("Stale task scan failed", zap.Error(err))
		return 0
	}

	recovered := 0
	for _, task := range stale {
		if err := task.MarkStale(); err != nil {
			// Already moved on by someone else between scan and sweep.
			continue
		}
		if err := s.tasks.Save(ctx, task); err != nil {
			s.logger.Error("Failed to save swept task",
				zap.String("task_id", task.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := s.events.Publish(ctx, importer.NewTaskStatusChangedEvent(task)); err != nil {
			s.logger.Warn("Failed to publish sweep event",
				zap.String("task_id", task.ID.String()),
				zap.Error(err),
			)
		}
		recovered++

		s.logger.Warn("Recovered stale import task",
			zap.String("task_id", task.ID.String()),
			zap.String("owner_id", task.OwnerID.String()),
			zap.String("task_type", task.TaskType.String()),
		)
	}

	if recovered > 0 {
		s.logger.Info("Stale sweep pass finished", zap.Int("recovered", recovered))
	}
	return recovered
}
