package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "quorum/contexts/poll-core/poll-engine/application"
	"quorum/contexts/poll-core/poll-engine/application/scoring"
	"quorum/contexts/poll-core/poll-engine/domain/entities"
	domainerrors "quorum/contexts/poll-core/poll-engine/domain/errors"
	"quorum/contexts/poll-core/poll-engine/ports"
)

// CreatePollCommand is the write-model input for poll creation. Correct
// answers are option labels; they are resolved to ordinals against the
// supplied option list.
type CreatePollCommand struct {
	GuildID              string
	PollType             string
	CreatorID            string
	Question             string
	Options              []string
	MaxSelections        int
	Duration             time.Duration
	ShowVotesWhileActive bool
	CorrectAnswers       []string
}

type ClosePollResult struct {
	Poll entities.PollInstance
	// Tally is the frozen per-ordinal count. The ledger stops accepting votes
	// at the closed transition, so replays recompute the same numbers.
	Tally         map[int]int
	Voters        int
	AlreadyClosed bool
}

type RevealPollResult struct {
	Poll            entities.PollInstance
	Results         []entities.ScoringResult
	AlreadyRevealed bool
	// Scored reports whether this call performed the scoring pass. At most one
	// call per poll ever does, across retries and restarts.
	Scored bool
}

// PollUseCase orchestrates the poll lifecycle. Every transition is a
// compare-and-swap on the stored state: exactly one concurrent caller wins
// each edge and performs its side effects, losers observe the post-transition
// state and report success without re-triggering anything.
type PollUseCase struct {
	Polls                ports.PollRepository
	Ledger               ports.VoteLedger
	Tenants              ports.TenantDirectory
	Scores               ports.Scorekeeper
	Outbox               ports.OutboxWriter
	Clock                ports.Clock
	IDGen                ports.IDGenerator
	DefaultScoringPolicy entities.ScoringPolicy
	Logger               *slog.Logger
}

// CreatePoll validates the tenant, instantiates the poll, and promotes it to
// active in a single conditional insert, so no standalone draft is ever
// observable and the one-active-poll-per-tenant invariant cannot be raced.
func (uc PollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (entities.PollInstance, error) {
	logger := application.ResolveLogger(uc.Logger)
	guildID := strings.TrimSpace(cmd.GuildID)
	pollType := strings.TrimSpace(cmd.PollType)
	logger.Info("poll create processing started",
		"event", "poll_create_started",
		"module", "poll-core/poll-engine",
		"layer", "application",
		"guild_id", guildID,
		"poll_type", pollType,
		"creator_id", strings.TrimSpace(cmd.CreatorID),
	)

	options, err := normalizeOptions(cmd.Options)
	if err != nil {
		logger.Warn("poll create validation failed",
			"event", "poll_create_validation_failed",
			"module", "poll-core/poll-engine",
			"layer", "application",
			"guild_id", guildID,
			"poll_type", pollType,
			"error", err.Error(),
		)
		return entities.PollInstance{}, err
	}
	if guildID == "" || pollType == "" ||
		strings.TrimSpace(cmd.CreatorID) == "" ||
		strings.TrimSpace(cmd.Question) == "" ||
		cmd.MaxSelections < 1 || cmd.MaxSelections > len(options) ||
		cmd.Duration <= 0 {
		logger.Warn("poll create validation failed",
			"event", "poll_create_validation_failed",
			"module", "poll-core/poll-engine",
			"layer", "application",
			"guild_id", guildID,
			"poll_type", pollType,
		)
		return entities.PollInstance{}, domainerrors.ErrInvalidPollInput
	}

	if _, found, err := uc.Tenants.GetTenant(ctx, guildID, pollType); err != nil {
		return entities.PollInstance{}, err
	} else if !found {
		return entities.PollInstance{}, domainerrors.ErrUnknownTenant
	}

	correctOrdinals, err := resolveAnswerKey(options, cmd.CorrectAnswers)
	if err != nil {
		return entities.PollInstance{}, err
	}

	pollID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.PollInstance{}, err
	}
	now := uc.now()
	poll := entities.PollInstance{
		PollID:               pollID,
		GuildID:              guildID,
		PollType:             pollType,
		CreatorID:            strings.TrimSpace(cmd.CreatorID),
		Question:             strings.TrimSpace(cmd.Question),
		Options:              options,
		MaxSelections:        cmd.MaxSelections,
		ShowVotesWhileActive: cmd.ShowVotesWhileActive,
		State:                entities.PollStateActive,
		CorrectOptions:       correctOrdinals,
		CreatedAt:            now,
		Deadline:             now.Add(cmd.Duration),
		UpdatedAt:            now,
	}
	if err := uc.Polls.CreateActivePoll(ctx, poll); err != nil {
		logger.Warn("poll create rejected",
			"event", "poll_create_rejected",
			"module", "poll-core/poll-engine",
			"layer", "application",
			"guild_id", guildID,
			"poll_type", pollType,
			"error", err.Error(),
		)
		return entities.PollInstance{}, err
	}

	if err := uc.appendPollEvent(ctx, lifecycleEventID(poll.PollID, "poll.created"), "poll.created", poll, now, map[string]any{
		"question":       poll.Question,
		"option_count":   len(poll.Options),
		"max_selections": poll.MaxSelections,
		"deadline":       poll.Deadline.Format(time.RFC3339),
	}); err != nil {
		return entities.PollInstance{}, err
	}

	logger.Info("poll created",
		"event", "poll_created",
		"module", "poll-core/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"guild_id", guildID,
		"poll_type", pollType,
		"deadline", poll.Deadline.Format(time.RFC3339),
	)
	return poll, nil
}

// ClosePoll moves an active poll to closed. The operation is idempotent:
// closing a poll that already left active through close or reveal is a no-op
// success, which lets the admin path and the deadline sweeper race safely.
func (uc PollUseCase) ClosePoll(ctx context.Context, pollID string) (ClosePollResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return ClosePollResult{}, domainerrors.ErrInvalidPollInput
	}

	poll, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return ClosePollResult{}, err
	}

	now := uc.now()
	won, err := uc.Polls.TransitionState(ctx, ports.StateTransition{
		PollID: pollID,
		From:   entities.PollStateActive,
		To:     entities.PollStateClosed,
		At:     now,
	})
	if err != nil {
		return ClosePollResult{}, err
	}
	if !won {
		// Lost the swap or the poll had already moved on. Re-read to decide
		// whether the race was the benign duplicate-close case.
		poll, err = uc.Polls.GetPoll(ctx, pollID)
		if err != nil {
			return ClosePollResult{}, err
		}
		switch poll.State {
		case entities.PollStateClosed, entities.PollStateRevealed, entities.PollStateArchived:
			tally, err := uc.Ledger.TallyVotes(ctx, pollID)
			if err != nil {
				return ClosePollResult{}, err
			}
			// Re-append under the same event ID. If the first close already
			// emitted, the append is a no-op; if it failed between the state
			// flip and the emit, this replay repairs the missing event.
			eventPoll := poll
			eventPoll.State = entities.PollStateClosed
			if err := uc.appendPollEvent(ctx, lifecycleEventID(pollID, "poll.closed"), "poll.closed", eventPoll, now, map[string]any{
				"tally":       tally.Counts,
				"voter_count": tally.Voters,
			}); err != nil {
				return ClosePollResult{}, err
			}
			logger.Info("poll close replayed",
				"event", "poll_close_replayed",
				"module", "poll-core/poll-engine",
				"layer", "application",
				"poll_id", pollID,
				"state", string(poll.State),
			)
			return ClosePollResult{Poll: poll, Tally: tally.Counts, Voters: tally.Voters, AlreadyClosed: true}, nil
		default:
			return ClosePollResult{}, domainerrors.ErrPollNotActive
		}
	}

	poll.State = entities.PollStateClosed
	poll.UpdatedAt = now

	// Winner side effects: the ledger is frozen by the state flip itself, so
	// this tally is the final one.
	tally, err := uc.Ledger.TallyVotes(ctx, pollID)
	if err != nil {
		return ClosePollResult{}, err
	}
	if err := uc.appendPollEvent(ctx, lifecycleEventID(pollID, "poll.closed"), "poll.closed", poll, now, map[string]any{
		"tally":       tally.Counts,
		"voter_count": tally.Voters,
	}); err != nil {
		return ClosePollResult{}, err
	}

	logger.Info("poll closed",
		"event", "poll_closed",
		"module", "poll-core/poll-engine",
		"layer", "application",
		"poll_id", pollID,
		"guild_id", poll.GuildID,
		"poll_type", poll.PollType,
		"voter_count", tally.Voters,
	)
	return ClosePollResult{Poll: poll, Tally: tally.Counts, Voters: tally.Voters}, nil
}

// RevealPoll moves a closed poll to revealed and performs the scoring pass
// exactly once. The revealed transition is CAS-guarded like close; the scoring
// pass is additionally fenced by the per-poll scored marker so a reveal retry
// after a crash between the state flip and scoring still completes scoring,
// and never applies it twice.
func (uc PollUseCase) RevealPoll(ctx context.Context, pollID string, correctAnswers []string) (RevealPollResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return RevealPollResult{}, domainerrors.ErrInvalidPollInput
	}

	poll, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return RevealPollResult{}, err
	}

	now := uc.now()
	alreadyRevealed := poll.State == entities.PollStateRevealed || poll.State == entities.PollStateArchived
	if !alreadyRevealed {
		if poll.State != entities.PollStateClosed {
			return RevealPollResult{}, domainerrors.ErrPollNotClosed
		}

		var answerKey []int
		if len(correctAnswers) > 0 {
			answerKey, err = resolveAnswerKey(poll.Options, correctAnswers)
			if err != nil {
				return RevealPollResult{}, err
			}
		} else if !poll.HasAnswerKey() {
			return RevealPollResult{}, domainerrors.ErrNoAnswerKeyConfigured
		}

		won, err := uc.Polls.TransitionState(ctx, ports.StateTransition{
			PollID:    pollID,
			From:      entities.PollStateClosed,
			To:        entities.PollStateRevealed,
			AnswerKey: answerKey,
			At:        now,
		})
		if err != nil {
			return RevealPollResult{}, err
		}
		if won {
			poll.State = entities.PollStateRevealed
			poll.UpdatedAt = now
			if len(answerKey) > 0 {
				poll.CorrectOptions = answerKey
			}
		} else {
			poll, err = uc.Polls.GetPoll(ctx, pollID)
			if err != nil {
				return RevealPollResult{}, err
			}
			if poll.State != entities.PollStateRevealed && poll.State != entities.PollStateArchived {
				return RevealPollResult{}, domainerrors.ErrConflict
			}
			alreadyRevealed = true
		}
	}

	scored, results, err := uc.scoreRevealedPoll(ctx, poll, now)
	if err != nil {
		return RevealPollResult{}, err
	}

	if scored {
		logger.Info("poll revealed",
			"event", "poll_revealed",
			"module", "poll-core/poll-engine",
			"layer", "application",
			"poll_id", pollID,
			"guild_id", poll.GuildID,
			"poll_type", poll.PollType,
			"scored_count", len(results),
		)
	} else {
		logger.Info("poll reveal replayed",
			"event", "poll_reveal_replayed",
			"module", "poll-core/poll-engine",
			"layer", "application",
			"poll_id", pollID,
		)
	}
	return RevealPollResult{
		Poll:            poll,
		Results:         results,
		AlreadyRevealed: alreadyRevealed,
		Scored:          scored,
	}, nil
}

// CancelPoll retires an active poll without scoring, freeing the tenant's
// active slot. Cancelling an already-cancelled poll is a no-op success.
func (uc PollUseCase) CancelPoll(ctx context.Context, pollID string) (entities.PollInstance, error) {
	logger := application.ResolveLogger(uc.Logger)
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.PollInstance{}, domainerrors.ErrInvalidPollInput
	}
	poll, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return entities.PollInstance{}, err
	}

	now := uc.now()
	won, err := uc.Polls.TransitionState(ctx, ports.StateTransition{
		PollID: pollID,
		From:   entities.PollStateActive,
		To:     entities.PollStateCancelled,
		At:     now,
	})
	if err != nil {
		return entities.PollInstance{}, err
	}
	if !won {
		poll, err = uc.Polls.GetPoll(ctx, pollID)
		if err != nil {
			return entities.PollInstance{}, err
		}
		if poll.State != entities.PollStateCancelled {
			return entities.PollInstance{}, domainerrors.ErrPollNotActive
		}
		return poll, nil
	}

	poll.State = entities.PollStateCancelled
	poll.UpdatedAt = now
	if err := uc.appendPollEvent(ctx, lifecycleEventID(pollID, "poll.cancelled"), "poll.cancelled", poll, now, nil); err != nil {
		return entities.PollInstance{}, err
	}
	logger.Info("poll cancelled",
		"event", "poll_cancelled",
		"module", "poll-core/poll-engine",
		"layer", "application",
		"poll_id", pollID,
	)
	return poll, nil
}

// ArchivePoll is the housekeeping transition out of revealed. The retention
// policy that decides when to call it lives with the caller.
func (uc PollUseCase) ArchivePoll(ctx context.Context, pollID string) (entities.PollInstance, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.PollInstance{}, domainerrors.ErrInvalidPollInput
	}
	poll, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return entities.PollInstance{}, err
	}

	now := uc.now()
	won, err := uc.Polls.TransitionState(ctx, ports.StateTransition{
		PollID: pollID,
		From:   entities.PollStateRevealed,
		To:     entities.PollStateArchived,
		At:     now,
	})
	if err != nil {
		return entities.PollInstance{}, err
	}
	if !won {
		poll, err = uc.Polls.GetPoll(ctx, pollID)
		if err != nil {
			return entities.PollInstance{}, err
		}
		if poll.State != entities.PollStateArchived {
			return entities.PollInstance{}, domainerrors.ErrPollNotRevealed
		}
		return poll, nil
	}
	poll.State = entities.PollStateArchived
	poll.UpdatedAt = now
	return poll, nil
}

func (uc PollUseCase) scoreRevealedPoll(
	ctx context.Context,
	poll entities.PollInstance,
	now time.Time,
) (bool, []entities.ScoringResult, error) {
	won, err := uc.Polls.MarkScored(ctx, poll.PollID, now)
	if err != nil {
		return false, nil, err
	}

	votes, err := uc.Ledger.ListVotes(ctx, poll.PollID)
	if err != nil {
		if won {
			return false, nil, uc.releaseScoredMarker(ctx, poll.PollID, err)
		}
		return false, nil, err
	}
	results := scoring.Score(poll, votes, uc.resolveScoringPolicy(ctx, poll))

	if won {
		// The marker stays claimed only once the standings are updated.
		// Releasing it on failure lets a retry redo the whole pass.
		if err := uc.Scores.ApplyScoring(ctx, poll.GuildID, poll.PollType, poll.PollID, results); err != nil {
			return false, nil, uc.releaseScoredMarker(ctx, poll.PollID, err)
		}
	}

	payload := make([]map[string]any, 0, len(results))
	for _, result := range results {
		payload = append(payload, map[string]any{
			"voter_id":    result.VoterID,
			"points":      result.PointsAwarded,
			"was_correct": result.WasCorrect,
		})
	}
	// Replays re-append under the same event ID, so an emit that failed after
	// the standings were updated is still delivered eventually.
	if err := uc.appendPollEvent(ctx, lifecycleEventID(poll.PollID, "poll.revealed"), "poll.revealed", poll, now, map[string]any{
		"correct_options": poll.CorrectOptions,
		"scoring_results": payload,
	}); err != nil {
		return won, nil, err
	}
	return won, results, nil
}

func (uc PollUseCase) releaseScoredMarker(ctx context.Context, pollID string, cause error) error {
	if err := uc.Polls.UnmarkScored(ctx, pollID); err != nil {
		application.ResolveLogger(uc.Logger).Error("scored marker release failed",
			"event", "poll_scored_marker_release_failed",
			"module", "poll-core/poll-engine",
			"layer", "application",
			"poll_id", pollID,
			"error", err.Error(),
		)
	}
	return cause
}

func (uc PollUseCase) resolveScoringPolicy(ctx context.Context, poll entities.PollInstance) entities.ScoringPolicy {
	logger := application.ResolveLogger(uc.Logger)
	tenant, found, err := uc.Tenants.GetTenant(ctx, poll.GuildID, poll.PollType)
	if err != nil || !found || tenant.ScoringPolicy == "" {
		if err != nil {
			logger.Warn("tenant policy lookup failed; applying default scoring policy",
				"event", "poll_scoring_policy_fallback",
				"module", "poll-core/poll-engine",
				"layer", "application",
				"guild_id", poll.GuildID,
				"poll_type", poll.PollType,
				"error", err.Error(),
			)
		}
		if uc.DefaultScoringPolicy != "" {
			return uc.DefaultScoringPolicy
		}
		return entities.ScoringPolicyAnyOverlap
	}
	return tenant.ScoringPolicy
}

// lifecycleEventID derives a stable outbox key for once-per-poll events, so
// a replayed append after a failed emit lands on the existing row instead of
// duplicating it.
func lifecycleEventID(pollID string, eventType string) string {
	return pollID + ":" + eventType
}

func (uc PollUseCase) appendPollEvent(
	ctx context.Context,
	eventID string,
	eventType string,
	poll entities.PollInstance,
	occurredAt time.Time,
	metadata map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	if eventID == "" {
		generated, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		eventID = generated
	}
	data := map[string]any{
		"poll_id":     poll.PollID,
		"guild_id":    poll.GuildID,
		"poll_type":   poll.PollType,
		"state":       string(poll.State),
		"occurred_at": occurredAt.Format(time.RFC3339),
	}
	for key, value := range metadata {
		data[key] = value
	}
	envelope, err := newPollEnvelope(eventID, eventType, poll.PollID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc PollUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func normalizeOptions(labels []string) ([]entities.Option, error) {
	options := make([]entities.Option, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, domainerrors.ErrInvalidPollInput
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return nil, domainerrors.ErrInvalidPollInput
		}
		seen[key] = struct{}{}
		options = append(options, entities.Option{
			Ordinal: len(options),
			Label:   label,
		})
	}
	if len(options) < 2 {
		return nil, domainerrors.ErrInvalidPollInput
	}
	return options, nil
}

// resolveAnswerKey maps answer labels to option ordinals, case-insensitively.
func resolveAnswerKey(options []entities.Option, answers []string) ([]int, error) {
	if len(answers) == 0 {
		return nil, nil
	}
	byLabel := make(map[string]int, len(options))
	for _, option := range options {
		byLabel[strings.ToLower(option.Label)] = option.Ordinal
	}
	ordinals := make([]int, 0, len(answers))
	seen := make(map[int]struct{}, len(answers))
	for _, answer := range answers {
		ordinal, ok := byLabel[strings.ToLower(strings.TrimSpace(answer))]
		if !ok {
			return nil, domainerrors.ErrInvalidPollInput
		}
		if _, dup := seen[ordinal]; dup {
			continue
		}
		seen[ordinal] = struct{}{}
		ordinals = append(ordinals, ordinal)
	}
	return ordinals, nil
}
