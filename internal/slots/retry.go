package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// RetryingStore retries failed queries with exponential backoff. Unsupported
// queries and context cancellation are returned immediately.
type RetryingStore struct {
	inner       Store
	maxAttempts int
	baseDelay   time.Duration
	logger      *logging.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewRetryingStore(inner Store, maxAttempts int, baseDelay time.Duration, logger *logging.Logger) *RetryingStore {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RetryingStore{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

func (r *RetryingStore) Query(ctx context.Context, collection string, filters []Filter, orderBy *OrderBy, limit int) ([]Slot, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		out, err := r.inner.Query(ctx, collection, filters, orderBy, limit)
		if err == nil {
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrUnsupportedQuery) {
			return nil, err
		}
		lastErr = err
		if attempt == r.maxAttempts-1 {
			break
		}
		r.logger.WithContext(ctx).Warn("slot store retry",
			"collection", collection,
			"attempt", attempt+1,
			"error", err,
		)
		if err := r.sleep(ctx, r.baseDelay*time.Duration(1<<attempt)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("slots: query failed after %d attempts: %w", r.maxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
