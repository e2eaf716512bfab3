package ports

import (
	"context"
	"time"
)

// UserScoreEntry is one voter's cumulative standing inside a tenant
// (guild + poll type). FirstScoredAt is the instant the voter first earned a
// score in the tenant and never changes afterwards; it breaks ranking ties in
// favor of longer-standing participants.
type UserScoreEntry struct {
	GuildID           string
	PollType          string
	VoterID           string
	Points            int
	CorrectCount      int
	PollsParticipated int
	FirstScoredAt     time.Time
	UpdatedAt         time.Time
}

type RankedEntry struct {
	UserScoreEntry
	Rank int
}

// ScoreDelta is the per-voter outcome of scoring one poll. Points may be zero
// for a voter who participated without scoring; the participation still
// counts.
type ScoreDelta struct {
	VoterID string
	Points  int
	Correct bool
}

type Repository interface {
	// ApplyDeltas adds every delta to the tenant's standings in one atomic
	// step. Increments are additive, never read-modify-write on the caller
	// side, so concurrent scoring of different polls cannot lose updates.
	ApplyDeltas(ctx context.Context, guildID string, pollType string, at time.Time, deltas []ScoreDelta) error
	GetScore(ctx context.Context, guildID string, pollType string, voterID string) (UserScoreEntry, bool, error)
	// ListRanked returns the tenant standings ordered by points descending,
	// FirstScoredAt ascending, voter ID ascending, with 1-based ranks.
	ListRanked(ctx context.Context, guildID string, pollType string, limit int, offset int) ([]RankedEntry, error)
	CountVoters(ctx context.Context, guildID string, pollType string) (int, error)
}

type Clock interface {
	Now() time.Time
}
