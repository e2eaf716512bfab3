package entities

import "time"

type PollState string

const (
	PollStateDraft     PollState = "draft"
	PollStateActive    PollState = "active"
	PollStateClosed    PollState = "closed"
	PollStateRevealed  PollState = "revealed"
	PollStateArchived  PollState = "archived"
	PollStateCancelled PollState = "cancelled"
)

// Terminal reports whether no further transition can leave the state.
func (s PollState) Terminal() bool {
	return s == PollStateArchived || s == PollStateCancelled
}

type Option struct {
	Ordinal int
	Label   string
}

type PollInstance struct {
	PollID               string
	GuildID              string
	PollType             string
	CreatorID            string
	Question             string
	Options              []Option
	MaxSelections        int
	ShowVotesWhileActive bool
	State                PollState
	CorrectOptions       []int
	CreatedAt            time.Time
	Deadline             time.Time
	UpdatedAt            time.Time
}

// HasAnswerKey reports whether a correct-option set was configured, either at
// creation or supplied later on reveal.
func (p PollInstance) HasAnswerKey() bool {
	return len(p.CorrectOptions) > 0
}

// ValidOrdinal reports whether the ordinal addresses one of the poll's options.
func (p PollInstance) ValidOrdinal(ordinal int) bool {
	return ordinal >= 0 && ordinal < len(p.Options)
}

type VoteRecord struct {
	PollID         string
	VoterID        string
	ChosenOrdinals []int
	SubmittedAt    time.Time
	UpdatedAt      time.Time
}

// Tally is a point-in-time aggregation of votes per option ordinal. Every
// option of the poll appears as a key, including zero-vote options.
type Tally struct {
	PollID string
	Counts map[int]int
	Voters int
}

type ScoringResult struct {
	VoterID       string
	PointsAwarded int
	WasCorrect    bool
}

type ScoringPolicy string

const (
	// ScoringPolicyAnyOverlap marks a ballot correct when at least one chosen
	// option is in the answer key.
	ScoringPolicyAnyOverlap ScoringPolicy = "any_overlap"
	// ScoringPolicyExactMatch requires the chosen set to equal the answer key.
	ScoringPolicyExactMatch ScoringPolicy = "exact_match"
)
