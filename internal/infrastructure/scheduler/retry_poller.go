package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	importapp "github.com/frontdesk/backend/internal/application/importer"
)

// RetryPollerConfig holds configuration for the retry poller
type RetryPollerConfig struct {
	// Enabled determines if the poller is active
	Enabled bool
	// Interval is how often the poller scans for runnable tasks
	Interval time.Duration
}

// DefaultRetryPollerConfig returns default configuration
func DefaultRetryPollerConfig() RetryPollerConfig {
	return RetryPollerConfig{
		Enabled:  true,
		Interval: 15 * time.Second,
	}
}

// RetryPoller periodically drives pending and retrying import tasks through
// the orchestrator. It is what turns a scheduled retry into an actual
// attempt when no API call comes in to trigger one.
type RetryPoller struct {
	orchestrator *importapp.Orchestrator
	logger       *zap.Logger
	config       RetryPollerConfig
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.Mutex
	isRunning    bool
}

// NewRetryPoller creates a new retry poller
func NewRetryPoller(orchestrator *importapp.Orchestrator, logger *zap.Logger, config RetryPollerConfig) *RetryPoller {
	return &RetryPoller{
		orchestrator: orchestrator,
		logger:       logger,
		config:       config,
	}
}

// Start starts the retry poller
func (p *RetryPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	if !p.config.Enabled {
		p.mu.Unlock()
		p.logger.Info("Import retry poller is disabled")
		return nil
	}
	p.isRunning = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("Import retry poller started",
		zap.Duration("interval", p.config.Interval),
	)
	return nil
}

// Stop gracefully stops the poller
func (p *RetryPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Import retry poller stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Import retry poller stop timed out")
		return ctx.Err()
	}
}

func (p *RetryPoller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs a single scan-and-execute pass over all runnable tasks
func (p *RetryPoller) PollOnce(ctx context.Context) {
	summary, err := p.orchestrator.RunAllPending(ctx, nil)
	if err != nil {
		p.logger.Error("Import poll pass failed", zap.Error(err))
		return
	}
	if summary.Total > 0 {
		p.logger.Info("Import poll pass finished",
			zap.Int("total", summary.Total),
			zap.Int("completed", summary.Completed),
			zap.Int("failed", summary.Failed),
		)
	}
}
