package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SignatureSyncer refreshes the signature status of people waiting for SEI
type SignatureSyncer interface {
	SyncPending(ctx context.Context, batch int) (int, error)
}

// TokenPurger removes authentication tokens that can no longer be redeemed
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SignatureSyncSchedulerConfig holds configuration for the signature sync scheduler
type SignatureSyncSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval between two runs
	Interval time.Duration

	// BatchSize is the maximum number of people refreshed per run
	BatchSize int

	// JobTimeout is the maximum time for one run
	JobTimeout time.Duration
}

// DefaultSignatureSyncSchedulerConfig returns default configuration
func DefaultSignatureSyncSchedulerConfig() SignatureSyncSchedulerConfig {
	return SignatureSyncSchedulerConfig{
		Enabled:    true,
		Interval:   15 * time.Minute,
		BatchSize:  50,
		JobTimeout: 5 * time.Minute,
	}
}

// SignatureSyncScheduler periodically pulls the signature status of pending
// requests from SEI and purges expired authentication tokens
type SignatureSyncScheduler struct {
	syncer    SignatureSyncer
	purger    TokenPurger
	logger    *zap.Logger
	config    SignatureSyncSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSignatureSyncScheduler creates a new scheduler. purger may be nil.
func NewSignatureSyncScheduler(
	syncer SignatureSyncer,
	purger TokenPurger,
	logger *zap.Logger,
	config SignatureSyncSchedulerConfig,
) *SignatureSyncScheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSignatureSyncSchedulerConfig().Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSignatureSyncSchedulerConfig().BatchSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultSignatureSyncSchedulerConfig().JobTimeout
	}
	return &SignatureSyncScheduler{
		syncer: syncer,
		purger: purger,
		logger: logger,
		config: config,
	}
}

// Start starts the scheduler loop
func (s *SignatureSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Signature sync scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Signature sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *SignatureSyncScheduler) Stop(ctx context.Context) error {
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
		s.logger.Info("Signature sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Signature sync scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *SignatureSyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *SignatureSyncScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single synchronization run bounded by JobTimeout
func (s *SignatureSyncScheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	start := time.Now()
	changed, err := s.syncer.SyncPending(ctx, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Signature sync failed", zap.Error(err), zap.Int("changed", changed))
	} else {
		s.logger.Info("Signature sync completed",
			zap.Int("changed", changed),
			zap.Duration("duration", time.Since(start)),
		)
	}

	if s.purger == nil {
		return
	}
	purged, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to purge expired tokens", zap.Error(err))
		return
	}
	if purged > 0 {
		s.logger.Info("Expired tokens purged", zap.Int64("count", purged))
	}
}
