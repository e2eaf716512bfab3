package ports

import (
	"context"
	"encoding/json"
	"time"

	"quorum/contexts/poll-core/poll-engine/domain/entities"
)

// StateTransition is a compare-and-swap request on a poll's lifecycle state.
// The swap succeeds only for the caller that observes From; everyone else
// gets won=false and must re-read the poll to decide whether the race was
// benign.
type StateTransition struct {
	PollID    string
	From      entities.PollState
	To        entities.PollState
	AnswerKey []int
	At        time.Time
}

type PollRepository interface {
	// CreateActivePoll persists the instance already promoted to active.
	// Insertion and the at-most-one-active-poll-per-tenant check are one
	// atomic step; violations surface ErrConflictingActivePoll.
	CreateActivePoll(ctx context.Context, poll entities.PollInstance) error
	GetPoll(ctx context.Context, pollID string) (entities.PollInstance, error)
	GetActivePoll(ctx context.Context, guildID string, pollType string) (entities.PollInstance, bool, error)
	// TransitionState performs the CAS. AnswerKey, when non-nil, is persisted
	// together with the winning swap (reveal with a key supplied late).
	TransitionState(ctx context.Context, transition StateTransition) (bool, error)
	// ListOverduePolls returns active polls whose deadline is at or before now.
	ListOverduePolls(ctx context.Context, now time.Time) ([]entities.PollInstance, error)
	// MarkScored claims the per-poll scoring marker. Exactly one caller over
	// the poll's lifetime gets won=true, including across process restarts.
	MarkScored(ctx context.Context, pollID string, at time.Time) (bool, error)
	// UnmarkScored releases a claimed marker after a failed scoring pass so
	// a retry can claim it again.
	UnmarkScored(ctx context.Context, pollID string) error
}

type VoteLedger interface {
	// UpsertVote inserts or replaces the voter's single record for the poll.
	// The write is conditional on the poll being active; the state check and
	// the write are one atomic operation. Returns replaced=true when a prior
	// record for (poll, voter) was overwritten.
	UpsertVote(ctx context.Context, vote entities.VoteRecord) (bool, error)
	GetBallot(ctx context.Context, pollID string, voterID string) (entities.VoteRecord, bool, error)
	ListVotes(ctx context.Context, pollID string) ([]entities.VoteRecord, error)
	// TallyVotes aggregates a consistent snapshot of counts per ordinal and
	// the distinct voter count, without blocking concurrent writers.
	TallyVotes(ctx context.Context, pollID string) (entities.Tally, error)
}

// TenantProjection is the slice of tenant configuration the engine needs.
type TenantProjection struct {
	GuildID       string
	PollType      string
	ScoringPolicy entities.ScoringPolicy
}

type TenantDirectory interface {
	GetTenant(ctx context.Context, guildID string, pollType string) (TenantProjection, bool, error)
}

// Scorekeeper applies a revealed poll's scoring results to cumulative
// per-tenant standings. Implemented by the leaderboard module.
type Scorekeeper interface {
	ApplyScoring(ctx context.Context, guildID string, pollType string, pollID string, results []entities.ScoringResult) error
}

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
