package httpadapter

import (
	"context"
	"log/slog"

	"quorum/contexts/poll-core/leaderboard-service/application"
	"quorum/contexts/poll-core/leaderboard-service/ports"
	httptransport "quorum/contexts/poll-core/leaderboard-service/transport/http"
)

type Handler struct {
	Scores application.Service
	Logger *slog.Logger
}

func (h Handler) LeaderboardHandler(
	ctx context.Context,
	guildID string,
	pollType string,
	limit int,
	offset int,
) (httptransport.LeaderboardResponse, error) {
	entries, err := h.Scores.Leaderboard(ctx, guildID, pollType, limit, offset)
	if err != nil {
		return httptransport.LeaderboardResponse{}, err
	}
	return httptransport.LeaderboardResponse{
		GuildID:  guildID,
		PollType: pollType,
		Items:    mapEntries(entries),
	}, nil
}

func (h Handler) StandingHandler(
	ctx context.Context,
	guildID string,
	pollType string,
	voterID string,
) (httptransport.StandingResponse, error) {
	entry, err := h.Scores.VoterStanding(ctx, guildID, pollType, voterID)
	if err != nil {
		return httptransport.StandingResponse{}, err
	}
	return httptransport.StandingResponse{
		GuildID:  guildID,
		PollType: pollType,
		Entry:    mapEntry(entry),
	}, nil
}

func (h Handler) DashboardHandler(
	ctx context.Context,
	guildID string,
	pollType string,
	limit int,
	voterID string,
) (httptransport.DashboardResponse, error) {
	view, err := h.Scores.Dashboard(ctx, guildID, pollType, limit, voterID)
	if err != nil {
		return httptransport.DashboardResponse{}, err
	}
	resp := httptransport.DashboardResponse{
		GuildID:     view.GuildID,
		PollType:    view.PollType,
		TotalVoters: view.TotalVoters,
		Items:       mapEntries(view.Entries),
	}
	if view.Voter != nil {
		voter := mapEntry(*view.Voter)
		resp.Voter = &voter
	}
	return resp, nil
}

func mapEntries(entries []ports.RankedEntry) []httptransport.LeaderboardEntry {
	items := make([]httptransport.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		items = append(items, mapEntry(entry))
	}
	return items
}

func mapEntry(entry ports.RankedEntry) httptransport.LeaderboardEntry {
	return httptransport.LeaderboardEntry{
		VoterID:           entry.VoterID,
		Points:            entry.Points,
		CorrectCount:      entry.CorrectCount,
		PollsParticipated: entry.PollsParticipated,
		Rank:              entry.Rank,
	}
}
