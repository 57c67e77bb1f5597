package service

import (
	"context"
	"sync"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/rs/zerolog"
)

// RetentionWorker is a background worker that periodically purges
// soft-deleted budgets, goals, and transactions once they age past the
// retention window.
type RetentionWorker struct {
	budgetRepo      domain.BudgetRepository
	goalRepo        domain.GoalRepository
	transactionRepo domain.TransactionRepository
	logger          zerolog.Logger
	interval        time.Duration
	retention       time.Duration
	stopCh          chan struct{}
	doneCh          chan struct{}
	mu              sync.Mutex
	running         bool
}

// RetentionWorkerConfig holds configuration for the retention worker
type RetentionWorkerConfig struct {
	Interval  time.Duration // How often to run a purge pass
	Retention time.Duration // How long soft-deleted records are kept
}

// DefaultRetentionWorkerConfig returns sensible defaults
func DefaultRetentionWorkerConfig() RetentionWorkerConfig {
	return RetentionWorkerConfig{
		Interval:  24 * time.Hour,
		Retention: 30 * 24 * time.Hour,
	}
}

// NewRetentionWorker creates a new retention worker
func NewRetentionWorker(
	budgetRepo domain.BudgetRepository,
	goalRepo domain.GoalRepository,
	transactionRepo domain.TransactionRepository,
	logger zerolog.Logger,
	config RetentionWorkerConfig,
) *RetentionWorker {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.Retention <= 0 {
		config.Retention = 30 * 24 * time.Hour
	}

	return &RetentionWorker{
		budgetRepo:      budgetRepo,
		goalRepo:        goalRepo,
		transactionRepo: transactionRepo,
		logger:          logger.With().Str("component", "retention_worker").Logger(),
		interval:        config.Interval,
		retention:       config.Retention,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start begins the background purge loop
func (w *RetentionWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Dur("retention", w.retention).
		Msg("Starting retention worker")

	go w.run(ctx)
}

// Stop gracefully stops the retention worker
func (w *RetentionWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping retention worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Retention worker stopped")
}

func (w *RetentionWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Run immediately on startup
	w.purge()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.setStopped()
			return
		case <-w.stopCh:
			w.setStopped()
			return
		case <-ticker.C:
			w.purge()
		}
	}
}

func (w *RetentionWorker) setStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// purge hard-deletes everything soft-deleted before the retention cutoff.
func (w *RetentionWorker) purge() {
	cutoff := time.Now().Add(-w.retention)

	budgets, err := w.budgetRepo.PurgeDeletedBefore(cutoff)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to purge budgets")
	}
	goals, err := w.goalRepo.PurgeDeletedBefore(cutoff)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to purge goals")
	}
	transactions, err := w.transactionRepo.PurgeDeletedBefore(cutoff)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to purge transactions")
	}

	if budgets+goals+transactions > 0 {
		w.logger.Info().
			Int64("budgets", budgets).
			Int64("goals", goals).
			Int64("transactions", transactions).
			Time("cutoff", cutoff).
			Msg("Purged soft-deleted records")
	}
}
