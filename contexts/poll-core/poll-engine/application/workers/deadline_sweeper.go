package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "quorum/contexts/poll-core/poll-engine/application"
	"quorum/contexts/poll-core/poll-engine/application/commands"
	domainerrors "quorum/contexts/poll-core/poll-engine/domain/errors"
	"quorum/contexts/poll-core/poll-engine/ports"
)

// DeadlineSweeper closes active polls whose deadline has passed. It funnels
// into the same close use case the admin path uses, so a sweep racing a
// manual close is a no-op on the losing side. Overdue polls are recomputed
// from persisted deadlines on every run, which makes the sweeper safe across
// restarts and overlapping invocations.
type DeadlineSweeper struct {
	Polls  ports.PollRepository
	Closer commands.PollUseCase
	Clock  ports.Clock
	Logger *slog.Logger
}

func (s DeadlineSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	overdue, err := s.Polls.ListOverduePolls(ctx, now)
	if err != nil {
		logger.Error("deadline sweep list failed",
			"event", "poll_deadline_sweep_list_failed",
			"module", "poll-core/poll-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(overdue) == 0 {
		return nil
	}

	closed := 0
	for _, poll := range overdue {
		result, err := s.Closer.ClosePoll(ctx, poll.PollID)
		if err != nil {
			// A poll cancelled between the listing and the close attempt is
			// not a sweep failure.
			if errors.Is(err, domainerrors.ErrPollNotActive) {
				continue
			}
			logger.Error("deadline sweep close failed",
				"event", "poll_deadline_sweep_close_failed",
				"module", "poll-core/poll-engine",
				"layer", "worker",
				"poll_id", poll.PollID,
				"error", err.Error(),
			)
			return err
		}
		if !result.AlreadyClosed {
			closed++
		}
	}

	logger.Info("deadline sweep completed",
		"event", "poll_deadline_sweep_completed",
		"module", "poll-core/poll-engine",
		"layer", "worker",
		"overdue_count", len(overdue),
		"closed_count", closed,
	)
	return nil
}
