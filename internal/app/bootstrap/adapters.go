package bootstrap

import (
	"context"
	"errors"

	leaderboardapp "quorum/contexts/poll-core/leaderboard-service/application"
	leaderboardports "quorum/contexts/poll-core/leaderboard-service/ports"
	pollentities "quorum/contexts/poll-core/poll-engine/domain/entities"
	pollports "quorum/contexts/poll-core/poll-engine/ports"
	tenantapp "quorum/contexts/poll-core/tenant-registry/application"
	tenanterrors "quorum/contexts/poll-core/tenant-registry/domain/errors"
	"quorum/internal/platform/messaging"
	"quorum/internal/shared/events"
)

// tenantDirectory projects tenant-registry configs into the slice the poll
// engine consumes. Cross-module calls go through application services, never
// through another module's adapters.
type tenantDirectory struct {
	tenants tenantapp.Service
}

func (d tenantDirectory) GetTenant(ctx context.Context, guildID string, pollType string) (pollports.TenantProjection, bool, error) {
	config, err := d.tenants.Resolve(ctx, guildID, pollType)
	if err != nil {
		if errors.Is(err, tenanterrors.ErrUnknownTenant) {
			return pollports.TenantProjection{}, false, nil
		}
		return pollports.TenantProjection{}, false, err
	}
	return pollports.TenantProjection{
		GuildID:       config.GuildID,
		PollType:      config.PollType,
		ScoringPolicy: pollentities.ScoringPolicy(config.ScoringPolicy),
	}, true, nil
}

// scorekeeper folds poll scoring results into the leaderboard module.
type scorekeeper struct {
	scores leaderboardapp.Service
}

func (s scorekeeper) ApplyScoring(
	ctx context.Context,
	guildID string,
	pollType string,
	pollID string,
	results []pollentities.ScoringResult,
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

// eventPublisher maps the poll engine's envelope onto the shared event
// contract the messaging platform speaks.
type eventPublisher struct {
	bus *messaging.Kafka
}

func (p eventPublisher) Publish(ctx context.Context, topic string, event pollports.EventEnvelope) error {
	return p.bus.Publish(ctx, topic, events.Envelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt,
		SourceService:    event.SourceService,
		TraceID:          event.TraceID,
		SchemaVersion:    event.SchemaVersion,
		PartitionKeyPath: event.PartitionKeyPath,
		PartitionKey:     event.PartitionKey,
		Data:             event.Data,
	})
}
