package postgresadapter

import (
	"context"
	"errors"
	"net"
	"time"

	domainerrors "quorum/contexts/poll-core/poll-engine/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	retryAttempts    = 3
	retryBaseBackoff = 75 * time.Millisecond
)

// withRetry re-runs op on transient failures (connection drops, serialization
// aborts) with a doubling backoff. Domain errors and permanent database
// errors pass straight through; exhausting the attempts surfaces as
// ErrStorageUnavailable so callers see one storage-outage sentinel.
func (r *Repository) withRetry(ctx context.Context, event string, op func() error, attrs ...any) error {
	backoff := retryBaseBackoff
	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
		if attempt == retryAttempts {
			break
		}
		r.logger.Warn("poll repository retrying transient failure",
			append([]any{
				"event", event + "_retry",
				"module", "poll-core/poll-engine",
				"layer", "adapter",
				"attempt", attempt,
				"error", err.Error(),
			}, attrs...)...,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	r.logError(event+"_unavailable", lastErr, attrs...)
	return domainerrors.ErrStorageUnavailable
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "57P03", "53300":
			return true
		}
		// Class 08: connection exceptions.
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08"
	}
	return false
}
