package unit

import (
	"context"
	"sync"

	leaderboardservice "quorum/contexts/poll-core/leaderboard-service"
	leaderboardapp "quorum/contexts/poll-core/leaderboard-service/application"
	leaderboardports "quorum/contexts/poll-core/leaderboard-service/ports"
	pollengine "quorum/contexts/poll-core/poll-engine"
	"quorum/contexts/poll-core/poll-engine/domain/entities"
	"quorum/contexts/poll-core/poll-engine/ports"
)

// leaderboardScorekeeper mirrors the composition-root glue: poll scoring
// results fold into the leaderboard module through its application service.
type leaderboardScorekeeper struct {
	scores leaderboardapp.Service
}

func (s leaderboardScorekeeper) ApplyScoring(
	ctx context.Context,
	guildID string,
	pollType string,
	pollID string,
	results []entities.ScoringResult,
) error {
	deltas := make([]leaderboardports.ScoreDelta, 0, len(results))
	for _, result := range results {
		deltas = append(deltas, leaderboardports.ScoreDelta{
			VoterID: result.VoterID,
			Points:  result.PointsAwarded,
			Correct: result.WasCorrect,
		})
	}
	return s.scores.ApplyScoring(ctx, leaderboardapp.ApplyScoringInput{
		GuildID:  guildID,
		PollType: pollType,
		PollID:   pollID,
		Deltas:   deltas,
	})
}

type capturingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []ports.EventEnvelope
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

type pollFixture struct {
	polls        pollengine.Module
	leaderboards leaderboardservice.Module
	publisher    *capturingPublisher
}

func newPollFixture(seed []entities.PollInstance) pollFixture {
	leaderboards := leaderboardservice.NewInMemoryModule(nil)
	publisher := &capturingPublisher{}
	polls := pollengine.NewInMemoryModule(
		seed,
		leaderboardScorekeeper{scores: leaderboards.Scores},
		publisher,
		nil,
	)
	polls.Store.SetTenant(ports.TenantProjection{
		GuildID:  "guild-1",
		PollType: "trivia",
	})
	return pollFixture{
		polls:        polls,
		leaderboards: leaderboards,
		publisher:    publisher,
	}
}
