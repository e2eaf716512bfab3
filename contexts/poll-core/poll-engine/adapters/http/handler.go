package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"quorum/contexts/poll-core/poll-engine/application/commands"
	"quorum/contexts/poll-core/poll-engine/application/queries"
	"quorum/contexts/poll-core/poll-engine/domain/entities"
	httptransport "quorum/contexts/poll-core/poll-engine/transport/http"
)

type Handler struct {
	Polls   commands.PollUseCase
	Queries queries.PollQueryUseCase
	Logger  *slog.Logger
}

func (h Handler) CreatePollHandler(
	ctx context.Context,
	userID string,
	req httptransport.CreatePollRequest,
) (httptransport.PollResponse, error) {
	poll, err := h.Polls.CreatePoll(ctx, commands.CreatePollCommand{
		GuildID:              req.GuildID,
		PollType:             req.PollType,
		CreatorID:            userID,
		Question:             req.Question,
		Options:              req.Options,
		MaxSelections:        req.MaxSelections,
		Duration:             time.Duration(req.DurationSeconds) * time.Second,
		ShowVotesWhileActive: req.ShowVotesWhileActive,
		CorrectAnswers:       req.CorrectAnswers,
	})
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

func (h Handler) GetPollHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.Queries.GetPoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

func (h Handler) ActivePollHandler(ctx context.Context, guildID string, pollType string) (httptransport.PollResponse, bool, error) {
	poll, found, err := h.Queries.ActivePoll(ctx, guildID, pollType)
	if err != nil || !found {
		return httptransport.PollResponse{}, false, err
	}
	return mapPoll(poll), true, nil
}

func (h Handler) ClosePollHandler(ctx context.Context, pollID string) (httptransport.ClosePollResponse, error) {
	result, err := h.Polls.ClosePoll(ctx, pollID)
	if err != nil {
		return httptransport.ClosePollResponse{}, err
	}
	tally := make([]httptransport.TallyCount, 0, len(result.Poll.Options))
	for _, option := range result.Poll.Options {
		tally = append(tally, httptransport.TallyCount{
			Ordinal: option.Ordinal,
			Label:   option.Label,
			Votes:   result.Tally[option.Ordinal],
		})
	}
	return httptransport.ClosePollResponse{
		Poll:          mapPoll(result.Poll),
		Tally:         tally,
		VoterCount:    result.Voters,
		AlreadyClosed: result.AlreadyClosed,
	}, nil
}

func (h Handler) RevealPollHandler(
	ctx context.Context,
	pollID string,
	req httptransport.RevealPollRequest,
) (httptransport.RevealPollResponse, error) {
	result, err := h.Polls.RevealPoll(ctx, pollID, req.CorrectAnswers)
	if err != nil {
		return httptransport.RevealPollResponse{}, err
	}
	results := make([]httptransport.ScoringResultEntry, 0, len(result.Results))
	for _, item := range result.Results {
		results = append(results, httptransport.ScoringResultEntry{
			VoterID:    item.VoterID,
			Points:     item.PointsAwarded,
			WasCorrect: item.WasCorrect,
		})
	}
	return httptransport.RevealPollResponse{
		Poll:            mapPoll(result.Poll),
		Results:         results,
		AlreadyRevealed: result.AlreadyRevealed,
	}, nil
}

func (h Handler) CancelPollHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.Polls.CancelPoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

func (h Handler) ArchivePollHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.Polls.ArchivePoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

func (h Handler) SubmitVoteHandler(
	ctx context.Context,
	pollID string,
	userID string,
	req httptransport.SubmitVoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Polls.SubmitVote(ctx, commands.SubmitVoteCommand{
		PollID:         pollID,
		VoterID:        userID,
		ChosenOrdinals: req.ChosenOrdinals,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		PollID:         result.Vote.PollID,
		VoterID:        result.Vote.VoterID,
		ChosenOrdinals: result.Vote.ChosenOrdinals,
		SubmittedAt:    result.Vote.SubmittedAt.UTC().Format(time.RFC3339),
		Replaced:       result.Replaced,
	}, nil
}

func (h Handler) BallotHandler(ctx context.Context, pollID string, userID string) (httptransport.VoteResponse, error) {
	vote, err := h.Queries.Ballot(ctx, pollID, userID)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		PollID:         vote.PollID,
		VoterID:        vote.VoterID,
		ChosenOrdinals: vote.ChosenOrdinals,
		SubmittedAt:    vote.SubmittedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (h Handler) TallyHandler(ctx context.Context, pollID string) (httptransport.TallyResponse, error) {
	view, err := h.Queries.Tally(ctx, pollID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	counts := make([]httptransport.TallyCount, 0, len(view.Poll.Options))
	if !view.Hidden {
		for _, option := range view.Poll.Options {
			counts = append(counts, httptransport.TallyCount{
				Ordinal: option.Ordinal,
				Label:   option.Label,
				Votes:   view.Counts[option.Ordinal],
			})
		}
	}
	return httptransport.TallyResponse{
		PollID:     view.Poll.PollID,
		State:      string(view.Poll.State),
		Hidden:     view.Hidden,
		VoterCount: view.Voters,
		Counts:     counts,
	}, nil
}

func mapPoll(poll entities.PollInstance) httptransport.PollResponse {
	options := make([]httptransport.PollOption, 0, len(poll.Options))
	for _, option := range poll.Options {
		options = append(options, httptransport.PollOption{
			Ordinal: option.Ordinal,
			Label:   option.Label,
		})
	}
	resp := httptransport.PollResponse{
		PollID:               poll.PollID,
		GuildID:              poll.GuildID,
		PollType:             poll.PollType,
		CreatorID:            poll.CreatorID,
		Question:             poll.Question,
		Options:              options,
		MaxSelections:        poll.MaxSelections,
		ShowVotesWhileActive: poll.ShowVotesWhileActive,
		State:                string(poll.State),
		HasAnswerKey:         poll.HasAnswerKey(),
		CreatedAt:            poll.CreatedAt.UTC().Format(time.RFC3339),
		Deadline:             poll.Deadline.UTC().Format(time.RFC3339),
	}
	// The answer key stays private until the poll is revealed.
	if poll.State == entities.PollStateRevealed || poll.State == entities.PollStateArchived {
		resp.CorrectOptions = poll.CorrectOptions
	}
	return resp
}
