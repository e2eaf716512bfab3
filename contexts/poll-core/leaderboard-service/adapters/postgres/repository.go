package postgresadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"quorum/contexts/poll-core/leaderboard-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ApplyDeltas upserts every voter row in one transaction. The increments run
// inside the ON CONFLICT assignment, so concurrent folds from different polls
// serialize per row instead of overwriting each other.
func (r *Repository) ApplyDeltas(ctx context.Context, guildID string, pollType string, at time.Time, deltas []ports.ScoreDelta) error {
	guildID = strings.TrimSpace(guildID)
	pollType = strings.TrimSpace(pollType)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, delta := range deltas {
			correct := 0
			if delta.Correct {
				correct = 1
			}
			row := userScoreModel{
				GuildID:           guildID,
				PollType:          pollType,
				VoterID:           delta.VoterID,
				Points:            delta.Points,
				CorrectCount:      correct,
				PollsParticipated: 1,
				FirstScoredAt:     at.UTC(),
				UpdatedAt:         at.UTC(),
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "guild_id"},
					{Name: "poll_type"},
					{Name: "voter_id"},
				},
				DoUpdates: clause.Assignments(map[string]any{
					"points":             gorm.Expr("user_scores.points + excluded.points"),
					"correct_count":      gorm.Expr("user_scores.correct_count + excluded.correct_count"),
					"polls_participated": gorm.Expr("user_scores.polls_participated + excluded.polls_participated"),
					"updated_at":         at.UTC(),
				}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return r.logError("leaderboard_repo_apply_deltas_failed", err,
			"guild_id", guildID,
			"poll_type", pollType,
			"voter_count", len(deltas),
		)
	}
	return nil
}

func (r *Repository) GetScore(ctx context.Context, guildID string, pollType string, voterID string) (ports.UserScoreEntry, bool, error) {
	var row userScoreModel
	err := r.db.WithContext(ctx).
		Where("guild_id = ?", strings.TrimSpace(guildID)).
		Where("poll_type = ?", strings.TrimSpace(pollType)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ports.UserScoreEntry{}, false, nil
		}
		return ports.UserScoreEntry{}, false, r.logError("leaderboard_repo_get_score_failed", err,
			"guild_id", strings.TrimSpace(guildID),
			"poll_type", strings.TrimSpace(pollType),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntry(), true, nil
}

func (r *Repository) ListRanked(ctx context.Context, guildID string, pollType string, limit int, offset int) ([]ports.RankedEntry, error) {
	query := r.db.WithContext(ctx).
		Where("guild_id = ?", strings.TrimSpace(guildID)).
		Where("poll_type = ?", strings.TrimSpace(pollType)).
		Order("points DESC, first_scored_at ASC, voter_id ASC")
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []userScoreModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("leaderboard_repo_list_ranked_failed", err,
			"guild_id", strings.TrimSpace(guildID),
			"poll_type", strings.TrimSpace(pollType),
		)
	}
	if offset < 0 {
		offset = 0
	}
	items := make([]ports.RankedEntry, 0, len(rows))
	for index, row := range rows {
		items = append(items, ports.RankedEntry{
			UserScoreEntry: row.toEntry(),
			Rank:           offset + index + 1,
		})
	}
	return items, nil
}

func (r *Repository) CountVoters(ctx context.Context, guildID string, pollType string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&userScoreModel{}).
		Where("guild_id = ?", strings.TrimSpace(guildID)).
		Where("poll_type = ?", strings.TrimSpace(pollType)).
		Count(&total).Error
	if err != nil {
		return 0, r.logError("leaderboard_repo_count_voters_failed", err,
			"guild_id", strings.TrimSpace(guildID),
			"poll_type", strings.TrimSpace(pollType),
		)
	}
	return int(total), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "poll-core/leaderboard-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("leaderboard repository operation failed", fields...)
	return err
}

type userScoreModel struct {
	GuildID           string    `gorm:"column:guild_id;primaryKey"`
	PollType          string    `gorm:"column:poll_type;primaryKey"`
	VoterID           string    `gorm:"column:voter_id;primaryKey"`
	Points            int       `gorm:"column:points"`
	CorrectCount      int       `gorm:"column:correct_count"`
	PollsParticipated int       `gorm:"column:polls_participated"`
	FirstScoredAt     time.Time `gorm:"column:first_scored_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (userScoreModel) TableName() string {
	return "user_scores"
}

func (m userScoreModel) toEntry() ports.UserScoreEntry {
	return ports.UserScoreEntry{
		GuildID:           m.GuildID,
		PollType:          m.PollType,
		VoterID:           m.VoterID,
		Points:            m.Points,
		CorrectCount:      m.CorrectCount,
		PollsParticipated: m.PollsParticipated,
		FirstScoredAt:     m.FirstScoredAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}
