package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "quorum/contexts/poll-core/leaderboard-service/domain/errors"
	"quorum/contexts/poll-core/leaderboard-service/ports"
)

type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

type ApplyScoringInput struct {
	GuildID  string
	PollType string
	PollID   string
	Deltas   []ports.ScoreDelta
}

type DashboardView struct {
	GuildID     string
	PollType    string
	TotalVoters int
	Entries     []ports.RankedEntry
	// Voter is the requesting voter's own ranked row, set only when the
	// dashboard was asked for one and that voter has been scored.
	Voter *ports.RankedEntry
}

// ApplyScoring folds one poll's scoring outcome into the tenant standings.
// The caller guarantees at-most-once delivery per poll; this service only
// guarantees the fold itself is atomic.
func (s Service) ApplyScoring(ctx context.Context, input ApplyScoringInput) error {
	guildID := strings.TrimSpace(input.GuildID)
	pollType := strings.TrimSpace(input.PollType)
	if guildID == "" || pollType == "" {
		return domainerrors.ErrInvalidInput
	}
	deltas := make([]ports.ScoreDelta, 0, len(input.Deltas))
	for _, delta := range input.Deltas {
		voterID := strings.TrimSpace(delta.VoterID)
		if voterID == "" || delta.Points < 0 {
			return domainerrors.ErrInvalidInput
		}
		deltas = append(deltas, ports.ScoreDelta{
			VoterID: voterID,
			Points:  delta.Points,
			Correct: delta.Correct,
		})
	}
	if len(deltas) == 0 {
		return nil
	}

	if err := s.Repo.ApplyDeltas(ctx, guildID, pollType, s.now(), deltas); err != nil {
		return err
	}
	resolveLogger(s.Logger).Info("leaderboard scoring applied",
		"event", "leaderboard_scoring_applied",
		"module", "poll-core/leaderboard-service",
		"layer", "application",
		"guild_id", guildID,
		"poll_type", pollType,
		"poll_id", strings.TrimSpace(input.PollID),
		"voter_count", len(deltas),
	)
	return nil
}

func (s Service) Leaderboard(ctx context.Context, guildID string, pollType string, limit int, offset int) ([]ports.RankedEntry, error) {
	guildID = strings.TrimSpace(guildID)
	pollType = strings.TrimSpace(pollType)
	if guildID == "" || pollType == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListRanked(ctx, guildID, pollType, limit, offset)
}

// VoterStanding returns one voter's ranked row. The rank reflects the full
// tenant ordering, not the page the voter would land on.
func (s Service) VoterStanding(ctx context.Context, guildID string, pollType string, voterID string) (ports.RankedEntry, error) {
	guildID = strings.TrimSpace(guildID)
	pollType = strings.TrimSpace(pollType)
	voterID = strings.TrimSpace(voterID)
	if guildID == "" || pollType == "" || voterID == "" {
		return ports.RankedEntry{}, domainerrors.ErrInvalidInput
	}
	entries, err := s.Repo.ListRanked(ctx, guildID, pollType, 0, 0)
	if err != nil {
		return ports.RankedEntry{}, err
	}
	for _, entry := range entries {
		if entry.VoterID == voterID {
			return entry, nil
		}
	}
	return ports.RankedEntry{}, domainerrors.ErrScoreNotFound
}

func (s Service) Dashboard(ctx context.Context, guildID string, pollType string, limit int, voterID string) (DashboardView, error) {
	guildID = strings.TrimSpace(guildID)
	pollType = strings.TrimSpace(pollType)
	voterID = strings.TrimSpace(voterID)
	if guildID == "" || pollType == "" {
		return DashboardView{}, domainerrors.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.Repo.ListRanked(ctx, guildID, pollType, limit, 0)
	if err != nil {
		return DashboardView{}, err
	}
	total, err := s.Repo.CountVoters(ctx, guildID, pollType)
	if err != nil {
		return DashboardView{}, err
	}
	view := DashboardView{
		GuildID:     guildID,
		PollType:    pollType,
		TotalVoters: total,
		Entries:     entries,
	}
	if voterID != "" {
		standing, err := s.VoterStanding(ctx, guildID, pollType, voterID)
		switch {
		case err == nil:
			view.Voter = &standing
		case !errors.Is(err, domainerrors.ErrScoreNotFound):
			return DashboardView{}, err
		}
	}
	return view, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
