package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePollRequest struct {
	GuildID              string   `json:"guild_id"`
	PollType             string   `json:"poll_type"`
	Question             string   `json:"question"`
	Options              []string `json:"options"`
	MaxSelections        int      `json:"max_selections"`
	ShowVotesWhileActive bool     `json:"show_votes_while_active"`
	DurationSeconds      int64    `json:"duration_seconds"`
	CorrectAnswers       []string `json:"correct_answers,omitempty"`
}

type PollOption struct {
	Ordinal int    `json:"ordinal"`
	Label   string `json:"label"`
}

type PollResponse struct {
	PollID               string       `json:"poll_id"`
	GuildID              string       `json:"guild_id"`
	PollType             string       `json:"poll_type"`
	CreatorID            string       `json:"creator_id"`
	Question             string       `json:"question"`
	Options              []PollOption `json:"options"`
	MaxSelections        int          `json:"max_selections"`
	ShowVotesWhileActive bool         `json:"show_votes_while_active"`
	State                string       `json:"state"`
	HasAnswerKey         bool         `json:"has_answer_key"`
	CorrectOptions       []int        `json:"correct_options,omitempty"`
	CreatedAt            string       `json:"created_at"`
	Deadline             string       `json:"deadline"`
}

type ClosePollResponse struct {
	Poll          PollResponse `json:"poll"`
	Tally         []TallyCount `json:"tally"`
	VoterCount    int          `json:"voter_count"`
	AlreadyClosed bool         `json:"already_closed"`
}

type RevealPollRequest struct {
	CorrectAnswers []string `json:"correct_answers,omitempty"`
}

type ScoringResultEntry struct {
	VoterID    string `json:"voter_id"`
	Points     int    `json:"points"`
	WasCorrect bool   `json:"was_correct"`
}

type RevealPollResponse struct {
	Poll            PollResponse         `json:"poll"`
	Results         []ScoringResultEntry `json:"results"`
	AlreadyRevealed bool                 `json:"already_revealed"`
}

type SubmitVoteRequest struct {
	ChosenOrdinals []int `json:"chosen_ordinals"`
}

type VoteResponse struct {
	PollID         string `json:"poll_id"`
	VoterID        string `json:"voter_id"`
	ChosenOrdinals []int  `json:"chosen_ordinals"`
	SubmittedAt    string `json:"submitted_at"`
	Replaced       bool   `json:"replaced"`
}

type TallyCount struct {
	Ordinal int    `json:"ordinal"`
	Label   string `json:"label"`
	Votes   int    `json:"votes"`
}

type TallyResponse struct {
	PollID     string       `json:"poll_id"`
	State      string       `json:"state"`
	Hidden     bool         `json:"hidden"`
	VoterCount int          `json:"voter_count"`
	Counts     []TallyCount `json:"counts"`
}
