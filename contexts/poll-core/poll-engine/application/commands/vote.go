package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	application "quorum/contexts/poll-core/poll-engine/application"
	"quorum/contexts/poll-core/poll-engine/domain/entities"
	domainerrors "quorum/contexts/poll-core/poll-engine/domain/errors"
)

type SubmitVoteCommand struct {
	PollID         string
	VoterID        string
	ChosenOrdinals []int
}

// SubmitVoteResult distinguishes a first ballot from an overwrite of the
// voter's earlier ballot on the same poll.
type SubmitVoteResult struct {
	Vote     entities.VoteRecord
	Replaced bool
}

// SubmitVote records or replaces the voter's single ballot for an active
// poll. The ledger write is conditional on the poll state, so a vote racing a
// close transition lands only if it reaches storage before the close wins.
func (uc PollUseCase) SubmitVote(ctx context.Context, cmd SubmitVoteCommand) (SubmitVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	pollID := strings.TrimSpace(cmd.PollID)
	voterID := strings.TrimSpace(cmd.VoterID)
	logger.Info("vote submit processing started",
		"event", "poll_vote_started",
		"module", "poll-core/poll-engine",
		"layer", "application",
		"poll_id", pollID,
		"voter_id", voterID,
	)
	if pollID == "" || voterID == "" {
		return SubmitVoteResult{}, domainerrors.ErrInvalidPollInput
	}

	poll, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return SubmitVoteResult{}, err
	}
	ordinals, err := normalizeSelection(poll, cmd.ChosenOrdinals)
	if err != nil {
		logger.Warn("vote submit validation failed",
			"event", "poll_vote_validation_failed",
			"module", "poll-core/poll-engine",
			"layer", "application",
			"poll_id", pollID,
			"voter_id", voterID,
			"error", err.Error(),
		)
		return SubmitVoteResult{}, err
	}
	// Fast pre-check for a friendly rejection; the conditional write below is
	// the authoritative guard against the close race.
	if poll.State != entities.PollStateActive {
		return SubmitVoteResult{}, fmt.Errorf("%w: poll is %s", domainerrors.ErrPollNotActive, poll.State)
	}

	now := uc.now()
	vote := entities.VoteRecord{
		PollID:         pollID,
		VoterID:        voterID,
		ChosenOrdinals: ordinals,
		SubmittedAt:    now,
		UpdatedAt:      now,
	}
	replaced, err := uc.Ledger.UpsertVote(ctx, vote)
	if err != nil {
		logger.Warn("vote submit rejected",
			"event", "poll_vote_rejected",
			"module", "poll-core/poll-engine",
			"layer", "application",
			"poll_id", pollID,
			"voter_id", voterID,
			"error", err.Error(),
		)
		return SubmitVoteResult{}, err
	}

	if err := uc.appendPollEvent(ctx, "", "vote.recorded", poll, now, map[string]any{
		"voter_id": voterID,
		"replaced": replaced,
	}); err != nil {
		return SubmitVoteResult{}, err
	}

	logger.Info("vote recorded",
		"event", "poll_vote_recorded",
		"module", "poll-core/poll-engine",
		"layer", "application",
		"poll_id", pollID,
		"voter_id", voterID,
		"replaced", replaced,
	)
	return SubmitVoteResult{Vote: vote, Replaced: replaced}, nil
}

// normalizeSelection deduplicates and orders the chosen ordinals and enforces
// range and max-selections bounds.
func normalizeSelection(poll entities.PollInstance, chosen []int) ([]int, error) {
	if len(chosen) == 0 {
		return nil, domainerrors.ErrInvalidOptionSelection
	}
	seen := make(map[int]struct{}, len(chosen))
	ordinals := make([]int, 0, len(chosen))
	for _, ordinal := range chosen {
		if !poll.ValidOrdinal(ordinal) {
			return nil, domainerrors.ErrInvalidOptionSelection
		}
		if _, dup := seen[ordinal]; dup {
			continue
		}
		seen[ordinal] = struct{}{}
		ordinals = append(ordinals, ordinal)
	}
	if len(ordinals) > poll.MaxSelections {
		return nil, domainerrors.ErrInvalidOptionSelection
	}
	sort.Ints(ordinals)
	return ordinals, nil
}
