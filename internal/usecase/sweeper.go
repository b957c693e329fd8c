package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/ranktrackhq/billing-service/pkg/errors"
	"go.uber.org/zap"

	domainErrors "github.com/ranktrackhq/billing-service/internal/domain/errors"
	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"github.com/ranktrackhq/billing-service/internal/domain/repository"
)

const (
	// DefaultSweepInterval is how often the scheduled sweep fires.
	DefaultSweepInterval = time.Hour
	// DefaultMaxPendingAge is how long a transaction may stay pending
	// before the sweep cancels it.
	DefaultMaxPendingAge = 24 * time.Hour
)

// SweepResult aggregates one sweep execution for observability.
type SweepResult struct {
	TotalFound   int           `json:"total_found"`
	SuccessCount int           `json:"success_count"`
	ErrorCount   int           `json:"error_count"`
	Duration     time.Duration `json:"duration"`
}

// ExpirySweeper cancels transactions stuck in pending past a deadline.
// The scheduled trigger and the operator-facing manual trigger share the
// same Sweep method, so there is no divergent "manual" code path.
type ExpirySweeper struct {
	txRepo        repository.TransactionRepository
	notifier      Notifier
	logger        *zap.Logger
	interval      time.Duration
	maxPendingAge time.Duration

	running  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewExpirySweeper creates a new expiry sweeper instance
func NewExpirySweeper(
	txRepo repository.TransactionRepository,
	notifier Notifier,
	interval time.Duration,
	maxPendingAge time.Duration,
	logger *zap.Logger,
) *ExpirySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if maxPendingAge <= 0 {
		maxPendingAge = DefaultMaxPendingAge
	}
	return &ExpirySweeper{
		txRepo:        txRepo,
		notifier:      notifier,
		logger:        logger,
		interval:      interval,
		maxPendingAge: maxPendingAge,
		stop:          make(chan struct{}),
	}
}

// Start launches the recurring sweep in a background goroutine.
func (s *ExpirySweeper) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("Expiry sweeper started",
			zap.Duration("interval", s.interval),
			zap.Duration("max_pending_age", s.maxPendingAge))

		for {
			select {
			case <-ticker.C:
				result, err := s.Sweep(context.Background())
				if err != nil {
					if apperrors.Is(err, domainErrors.ErrSweepAlreadyRunning) {
						s.logger.Debug("Skipping sweep tick, previous sweep still running")
						continue
					}
					s.logger.Error("Expiry sweep failed", zap.Error(err))
					continue
				}
				if result.TotalFound > 0 {
					s.logger.Info("Expiry sweep completed",
						zap.Int("total_found", result.TotalFound),
						zap.Int("success_count", result.SuccessCount),
						zap.Int("error_count", result.ErrorCount),
						zap.Duration("duration", result.Duration))
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop shuts the recurring sweep down and waits for it to finish.
func (s *ExpirySweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	s.logger.Info("Expiry sweeper stopped")
}

// Sweep runs one expiry pass. Each stale transaction is processed
// independently: one failure never aborts the batch. An overlapping
// invocation is skipped with ErrSweepAlreadyRunning rather than queued.
func (s *ExpirySweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, domainErrors.ErrSweepAlreadyRunning
	}
	defer s.running.Store(false)

	started := time.Now()
	cutoff := started.Add(-s.maxPendingAge)

	stale, err := s.txRepo.ListStalePending(ctx, cutoff)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query stale pending transactions")
	}

	result := &SweepResult{TotalFound: len(stale)}

	for _, tx := range stale {
		hoursPending := started.Sub(tx.CreatedAt).Hours()

		entry := &model.TransactionHistory{
			ActionType: model.ActionAutoExpire,
			ActorType:  model.ActorTypeSystem,
			Notes:      fmt.Sprintf("auto-cancelled after %.1f hours pending", hoursPending),
			Metadata:   model.JSONB{"hours_pending": hoursPending},
		}

		ok, err := s.txRepo.TryTransition(ctx, tx.ID,
			model.TransactionStatusPending, model.TransactionStatusCancelled,
			nil, entry)
		if err != nil {
			result.ErrorCount++
			s.logger.Error("Failed to cancel stale transaction",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("order_id", tx.OrderID),
				zap.Error(err))
			continue
		}

		result.SuccessCount++

		if !ok {
			// Another writer resolved this transaction first; nothing
			// left to do for it.
			s.logger.Debug("Stale transaction already transitioned",
				zap.String("transaction_id", tx.ID.String()))
			continue
		}

		s.notifier.OrderExpired(ctx, tx, hoursPending)
	}

	result.Duration = time.Since(started)
	return result, nil
}
