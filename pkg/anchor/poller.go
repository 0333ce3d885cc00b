package anchor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

const PollerLockKey = "iot-anchor:poller:signum"

// Locker lets one replica sweep per tick.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}

type SweepResult struct {
	Checked   int
	Confirmed int
	Pending   int
	Failed    int
	// Skipped is set when another replica holds the sweep lock.
	Skipped bool
}

// Poller re-checks PENDING signum uploads on a fixed interval.
type Poller struct {
	Anchor    *Anchor
	Interval  time.Duration
	BatchSize int
	Workers   int
	Locker    Locker
	LockTTL   time.Duration

	cursorMu sync.Mutex
	cursor   *models.PendingCursor
}

// Run sweeps once immediately and then every Interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryPoller)
	logger.Info("Confirmation poller started",
		zap.Duration("interval", p.Interval),
		zap.Int("batch_size", p.BatchSize),
		zap.Int("workers", p.Workers),
	)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		if _, err := p.Sweep(ctx); err != nil {
			// sleep even on errors so a broken store does not spin
			logger.Error("Sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("Confirmation poller stopped")
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) Sweep(ctx context.Context) (SweepResult, error) {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryPoller)
	var result SweepResult

	if p.Locker != nil {
		unlock, ok, err := p.Locker.TryLock(ctx, PollerLockKey, p.lockTTL())
		if err != nil {
			p.Anchor.Metrics.ObserveSweep("lock_error")
			return result, errors.Wrap(err, "acquire poller lock")
		}
		if !ok {
			logger.Debug("Another replica is sweeping, skipping")
			p.Anchor.Metrics.ObserveSweep("skipped")
			result.Skipped = true
			return result, nil
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Failed to release poller lock", zap.Error(err))
			}
		}()
	}

	pending, err := p.nextPage(ctx)
	if err != nil {
		p.Anchor.Metrics.ObserveSweep("store_error")
		return result, errors.Wrap(err, "list pending uploads")
	}
	if len(pending) == 0 {
		p.Anchor.Metrics.ObserveSweep("empty")
		return result, nil
	}

	jobs := make(chan models.UploadedMessage)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	workers := min(p.workers(), len(pending))
	for _i := 0; _i < workers; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range jobs {
				outcome := p.check(ctx, &msg)
				mu.Lock()
				result.Checked++
				switch outcome {
				case outcomeConfirmed:
					result.Confirmed++
				case outcomePending:
					result.Pending++
				default:
					result.Failed++
				}
				mu.Unlock()
			}
		}()
	}

	for _, msg := range pending {
		select {
		case jobs <- msg:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	logger.Info("Sweep finished",
		zap.Int("checked", result.Checked),
		zap.Int("confirmed", result.Confirmed),
		zap.Int("pending", result.Pending),
		zap.Int("failed", result.Failed),
	)
	p.Anchor.Metrics.ObserveSweep("ok")
	return result, ctx.Err()
}

// nextPage walks the pending set in (sent_at, id) order across sweeps, so
// records that stay pending forever cannot hide newer ones behind a full batch.
func (p *Poller) nextPage(ctx context.Context) ([]models.UploadedMessage, error) {
	p.cursorMu.Lock()
	defer p.cursorMu.Unlock()

	limit := p.batchSize()
	pending, err := p.Anchor.Upload.ListPending(ctx, models.ChainSignum, p.cursor, limit)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 && p.cursor != nil {
		p.cursor = nil
		if pending, err = p.Anchor.Upload.ListPending(ctx, models.ChainSignum, nil, limit); err != nil {
			return nil, err
		}
	}

	if len(pending) < limit {
		p.cursor = nil
	} else {
		last := pending[len(pending)-1]
		p.cursor = &models.PendingCursor{SentAt: last.SentAt, ID: last.ID}
	}
	return pending, nil
}

type checkOutcome int

const (
	outcomeConfirmed checkOutcome = iota
	outcomePending
	outcomeFailed
)

// check never mutates a record unless the ledger reports inclusion.
func (p *Poller) check(ctx context.Context, msg *models.UploadedMessage) checkOutcome {
	logger := common.GetCategoryLogger(common.LoggerNameAnchorCore, common.LoggerCategoryPoller)

	_, err := p.Anchor.confirm(ctx, msg)
	switch {
	case err == nil:
		return outcomeConfirmed
	case errors.Is(err, ErrNotYetIncluded):
		return outcomePending
	default:
		logger.Warn("Confirmation check failed, will retry next sweep",
			zap.String("tx_id", msg.TxID),
			zap.Error(err),
		)
		return outcomeFailed
	}
}

func (p *Poller) batchSize() int {
	if p.BatchSize > 0 {
		return p.BatchSize
	}
	return 50
}

func (p *Poller) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return 1
}

func (p *Poller) lockTTL() time.Duration {
	if p.LockTTL > 0 {
		return p.LockTTL
	}
	if p.Interval > 0 {
		return p.Interval
	}
	return time.Minute
}
