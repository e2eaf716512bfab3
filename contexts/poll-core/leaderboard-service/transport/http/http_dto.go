package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type LeaderboardEntry struct {
	VoterID           string `json:"voter_id"`
	Points            int    `json:"points"`
	CorrectCount      int    `json:"correct_count"`
	PollsParticipated int    `json:"polls_participated"`
	Rank              int    `json:"rank"`
}

type LeaderboardResponse struct {
	GuildID  string             `json:"guild_id"`
	PollType string             `json:"poll_type"`
	Items    []LeaderboardEntry `json:"items"`
}

type StandingResponse struct {
	GuildID  string           `json:"guild_id"`
	PollType string           `json:"poll_type"`
	Entry    LeaderboardEntry `json:"entry"`
}

type DashboardResponse struct {
	GuildID     string             `json:"guild_id"`
	PollType    string             `json:"poll_type"`
	TotalVoters int                `json:"total_voters"`
	Items       []LeaderboardEntry `json:"items"`
	Voter       *LeaderboardEntry  `json:"voter,omitempty"`
}
