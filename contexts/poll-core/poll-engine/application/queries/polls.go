package queries

import (
	"context"
	"strings"

	"quorum/contexts/poll-core/poll-engine/domain/entities"
	domainerrors "quorum/contexts/poll-core/poll-engine/domain/errors"
	"quorum/contexts/poll-core/poll-engine/ports"
)

type PollQueryUseCase struct {
	Polls  ports.PollRepository
	Ledger ports.VoteLedger
}

// TallyView is a point-in-time tally. Hidden marks tallies withheld because
// the poll is still active and was configured not to show live counts; the
// counts map is empty in that case.
type TallyView struct {
	Poll   entities.PollInstance
	Counts map[int]int
	Voters int
	Hidden bool
}

func (uc PollQueryUseCase) GetPoll(ctx context.Context, pollID string) (entities.PollInstance, error) {
	return uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
}

// Tally aggregates a consistent snapshot of per-option counts. Safe to call
// concurrently with vote submissions; it never blocks writers.
func (uc PollQueryUseCase) Tally(ctx context.Context, pollID string) (TallyView, error) {
	poll, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return TallyView{}, err
	}
	if poll.State == entities.PollStateActive && !poll.ShowVotesWhileActive {
		return TallyView{Poll: poll, Counts: map[int]int{}, Hidden: true}, nil
	}

	tally, err := uc.Ledger.TallyVotes(ctx, poll.PollID)
	if err != nil {
		return TallyView{}, err
	}
	// Zero-vote options still appear in the view.
	for _, option := range poll.Options {
		if _, ok := tally.Counts[option.Ordinal]; !ok {
			tally.Counts[option.Ordinal] = 0
		}
	}
	return TallyView{Poll: poll, Counts: tally.Counts, Voters: tally.Voters}, nil
}

func (uc PollQueryUseCase) Ballot(ctx context.Context, pollID string, voterID string) (entities.VoteRecord, error) {
	vote, found, err := uc.Ledger.GetBallot(ctx, strings.TrimSpace(pollID), strings.TrimSpace(voterID))
	if err != nil {
		return entities.VoteRecord{}, err
	}
	if !found {
		return entities.VoteRecord{}, domainerrors.ErrBallotNotFound
	}
	return vote, nil
}

func (uc PollQueryUseCase) ActivePoll(ctx context.Context, guildID string, pollType string) (entities.PollInstance, bool, error) {
	return uc.Polls.GetActivePoll(ctx, strings.TrimSpace(guildID), strings.TrimSpace(pollType))
}
