package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quorum/contexts/poll-core/poll-engine/domain/entities"
	domainerrors "quorum/contexts/poll-core/poll-engine/domain/errors"
	"quorum/contexts/poll-core/poll-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository persists polls, ballots, scored markers, and the outbox. The
// one-active-poll-per-tenant invariant relies on a partial unique index:
//
//	CREATE UNIQUE INDEX uq_active_poll_per_tenant
//	    ON polls (guild_id, poll_type) WHERE state = 'active';
//
// so creation is a single conditional insert, never check-then-set.
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

func (r *Repository) CreateActivePoll(ctx context.Context, poll entities.PollInstance) error {
	row, err := pollModelFromEntity(poll)
	if err != nil {
		return err
	}
	return r.withRetry(ctx, "poll_repo_create_poll", func() error {
		create := r.db.WithContext(ctx).Create(&row)
		if create.Error != nil {
			if isUniqueViolation(create.Error) {
				return domainerrors.ErrConflictingActivePoll
			}
			return create.Error
		}
		return nil
	}, "poll_id", row.ID, "guild_id", row.GuildID, "poll_type", row.PollType)
}

func (r *Repository) GetPoll(ctx context.Context, pollID string) (entities.PollInstance, error) {
	var row pollModel
	err := r.withRetry(ctx, "poll_repo_get_poll", func() error {
		return r.db.WithContext(ctx).
			Where("id = ?", strings.TrimSpace(pollID)).
			First(&row).
			Error
	}, "poll_id", strings.TrimSpace(pollID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PollInstance{}, domainerrors.ErrPollNotFound
		}
		return entities.PollInstance{}, err
	}
	return row.toEntity()
}

func (r *Repository) GetActivePoll(ctx context.Context, guildID string, pollType string) (entities.PollInstance, bool, error) {
	var row pollModel
	err := r.withRetry(ctx, "poll_repo_get_active_poll", func() error {
		return r.db.WithContext(ctx).
			Where("guild_id = ?", strings.TrimSpace(guildID)).
			Where("poll_type = ?", strings.TrimSpace(pollType)).
			Where("state = ?", string(entities.PollStateActive)).
			First(&row).
			Error
	}, "guild_id", strings.TrimSpace(guildID), "poll_type", strings.TrimSpace(pollType))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PollInstance{}, false, nil
		}
		return entities.PollInstance{}, false, err
	}
	poll, convErr := row.toEntity()
	if convErr != nil {
		return entities.PollInstance{}, false, convErr
	}
	return poll, true, nil
}

// TransitionState is the compare-and-swap: the conditional UPDATE flips the
// state only for the caller that still observes From, and RowsAffected tells
// winners from losers.
func (r *Repository) TransitionState(ctx context.Context, transition ports.StateTransition) (bool, error) {
	updates := map[string]any{
		"state":      string(transition.To),
		"updated_at": transition.At.UTC(),
	}
	if len(transition.AnswerKey) > 0 {
		key, err := json.Marshal(transition.AnswerKey)
		if err != nil {
			return false, err
		}
		updates["correct_options"] = key
	}

	var won bool
	err := r.withRetry(ctx, "poll_repo_transition_state", func() error {
		result := r.db.WithContext(ctx).
			Model(&pollModel{}).
			Where("id = ?", strings.TrimSpace(transition.PollID)).
			Where("state = ?", string(transition.From)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		won = result.RowsAffected > 0
		return nil
	}, "poll_id", strings.TrimSpace(transition.PollID), "from", string(transition.From), "to", string(transition.To))
	if err != nil {
		return false, err
	}
	return won, nil
}

func (r *Repository) ListOverduePolls(ctx context.Context, now time.Time) ([]entities.PollInstance, error) {
	var rows []pollModel
	err := r.withRetry(ctx, "poll_repo_list_overdue_polls", func() error {
		return r.db.WithContext(ctx).
			Where("state = ?", string(entities.PollStateActive)).
			Where("deadline <= ?", now.UTC()).
			Order("deadline ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return toPollEntities(rows)
}

func (r *Repository) MarkScored(ctx context.Context, pollID string, at time.Time) (bool, error) {
	row := scoredMarkerModel{
		PollID:   strings.TrimSpace(pollID),
		ScoredAt: at.UTC(),
	}
	var won bool
	err := r.withRetry(ctx, "poll_repo_mark_scored", func() error {
		create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "poll_id"}},
			DoNothing: true,
		}).Create(&row)
		if create.Error != nil {
			return create.Error
		}
		won = create.RowsAffected > 0
		return nil
	}, "poll_id", row.PollID)
	if err != nil {
		return false, err
	}
	return won, nil
}

func (r *Repository) UnmarkScored(ctx context.Context, pollID string) error {
	pollID = strings.TrimSpace(pollID)
	return r.withRetry(ctx, "poll_repo_unmark_scored", func() error {
		return r.db.WithContext(ctx).
			Where("poll_id = ?", pollID).
			Delete(&scoredMarkerModel{}).Error
	}, "poll_id", pollID)
}

// UpsertVote takes a share lock on the poll row so the state check and the
// ballot write commit as one unit against a concurrent close transition
// (whose conditional UPDATE needs the exclusive row lock).
func (r *Repository) UpsertVote(ctx context.Context, vote entities.VoteRecord) (bool, error) {
	selections, err := json.Marshal(vote.ChosenOrdinals)
	if err != nil {
		return false, err
	}

	var replaced bool
	err = r.withRetry(ctx, "poll_repo_upsert_vote", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var poll pollModel
			if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
				Select("id", "state").
				Where("id = ?", vote.PollID).
				First(&poll).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrPollNotFound
				}
				return err
			}
			if poll.State != string(entities.PollStateActive) {
				return fmt.Errorf("%w: poll is %s", domainerrors.ErrPollNotActive, poll.State)
			}

			var existing voteModel
			err := tx.Select("voter_id").
				Where("poll_id = ?", vote.PollID).
				Where("voter_id = ?", vote.VoterID).
				First(&existing).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			replaced = err == nil

			row := voteModel{
				PollID:      vote.PollID,
				VoterID:     vote.VoterID,
				Selections:  selections,
				SubmittedAt: vote.SubmittedAt.UTC(),
				UpdatedAt:   vote.UpdatedAt.UTC(),
			}
			return tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "poll_id"}, {Name: "voter_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"selections": row.Selections,
					"updated_at": row.UpdatedAt,
				}),
			}).Create(&row).Error
		})
	}, "poll_id", vote.PollID, "voter_id", vote.VoterID)
	if err != nil {
		return false, err
	}
	return replaced, nil
}

func (r *Repository) GetBallot(ctx context.Context, pollID string, voterID string) (entities.VoteRecord, bool, error) {
	var row voteModel
	err := r.withRetry(ctx, "poll_repo_get_ballot", func() error {
		return r.db.WithContext(ctx).
			Where("poll_id = ?", strings.TrimSpace(pollID)).
			Where("voter_id = ?", strings.TrimSpace(voterID)).
			First(&row).Error
	}, "poll_id", strings.TrimSpace(pollID), "voter_id", strings.TrimSpace(voterID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VoteRecord{}, false, nil
		}
		return entities.VoteRecord{}, false, err
	}
	vote, convErr := row.toEntity()
	if convErr != nil {
		return entities.VoteRecord{}, false, convErr
	}
	return vote, true, nil
}

func (r *Repository) ListVotes(ctx context.Context, pollID string) ([]entities.VoteRecord, error) {
	var rows []voteModel
	err := r.withRetry(ctx, "poll_repo_list_votes", func() error {
		return r.db.WithContext(ctx).
			Where("poll_id = ?", strings.TrimSpace(pollID)).
			Order("submitted_at ASC, voter_id ASC").
			Find(&rows).Error
	}, "poll_id", strings.TrimSpace(pollID))
	if err != nil {
		return nil, err
	}
	items := make([]entities.VoteRecord, 0, len(rows))
	for _, row := range rows {
		vote, convErr := row.toEntity()
		if convErr != nil {
			return nil, convErr
		}
		items = append(items, vote)
	}
	return items, nil
}

// TallyVotes reads the ballots in one statement, so the aggregation reflects
// a single consistent snapshot without blocking writers.
func (r *Repository) TallyVotes(ctx context.Context, pollID string) (entities.Tally, error) {
	votes, err := r.ListVotes(ctx, pollID)
	if err != nil {
		return entities.Tally{}, err
	}
	tally := entities.Tally{
		PollID: strings.TrimSpace(pollID),
		Counts: make(map[int]int),
		Voters: len(votes),
	}
	for _, vote := range votes {
		for _, ordinal := range vote.ChosenOrdinals {
			tally.Counts[ordinal]++
		}
	}
	return tally, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("poll_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.withRetry(ctx, "poll_repo_append_outbox", func() error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).Create(&row).Error
	}, "outbox_id", row.OutboxID)
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.withRetry(ctx, "poll_repo_list_pending_outbox", func() error {
		return r.db.WithContext(ctx).
			Where("status = ?", outboxStatusPending).
			Order("created_at ASC").
			Limit(limit).
			Find(&rows).Error
	}, "limit", limit)
	if err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return r.withRetry(ctx, "poll_repo_mark_outbox_published", func() error {
		result := r.db.WithContext(ctx).
			Model(&outboxModel{}).
			Where("outbox_id = ?", strings.TrimSpace(outboxID)).
			Updates(map[string]any{
				"status":       outboxStatusPublished,
				"published_at": publishedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrConflict
		}
		return nil
	}, "outbox_id", strings.TrimSpace(outboxID))
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "poll-core/poll-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("poll repository operation failed", fields...)
	return err
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type pollModel struct {
	ID                   string    `gorm:"column:id;primaryKey"`
	GuildID              string    `gorm:"column:guild_id"`
	PollType             string    `gorm:"column:poll_type"`
	CreatorID            string    `gorm:"column:creator_id"`
	Question             string    `gorm:"column:question"`
	Options              []byte    `gorm:"column:options"`
	MaxSelections        int       `gorm:"column:max_selections"`
	ShowVotesWhileActive bool      `gorm:"column:show_votes_while_active"`
	State                string    `gorm:"column:state"`
	CorrectOptions       []byte    `gorm:"column:correct_options"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	Deadline             time.Time `gorm:"column:deadline"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (pollModel) TableName() string {
	return "polls"
}

func pollModelFromEntity(poll entities.PollInstance) (pollModel, error) {
	labels := make([]string, 0, len(poll.Options))
	for _, option := range poll.Options {
		labels = append(labels, option.Label)
	}
	options, err := json.Marshal(labels)
	if err != nil {
		return pollModel{}, err
	}
	row := pollModel{
		ID:                   strings.TrimSpace(poll.PollID),
		GuildID:              strings.TrimSpace(poll.GuildID),
		PollType:             strings.TrimSpace(poll.PollType),
		CreatorID:            strings.TrimSpace(poll.CreatorID),
		Question:             poll.Question,
		Options:              options,
		MaxSelections:        poll.MaxSelections,
		ShowVotesWhileActive: poll.ShowVotesWhileActive,
		State:                string(poll.State),
		CreatedAt:            poll.CreatedAt.UTC(),
		Deadline:             poll.Deadline.UTC(),
		UpdatedAt:            poll.UpdatedAt.UTC(),
	}
	if len(poll.CorrectOptions) > 0 {
		key, err := json.Marshal(poll.CorrectOptions)
		if err != nil {
			return pollModel{}, err
		}
		row.CorrectOptions = key
	}
	return row, nil
}

func (m pollModel) toEntity() (entities.PollInstance, error) {
	var labels []string
	if err := json.Unmarshal(m.Options, &labels); err != nil {
		return entities.PollInstance{}, err
	}
	options := make([]entities.Option, 0, len(labels))
	for index, label := range labels {
		options = append(options, entities.Option{
			Ordinal: index,
			Label:   label,
		})
	}
	var correct []int
	if len(m.CorrectOptions) > 0 {
		if err := json.Unmarshal(m.CorrectOptions, &correct); err != nil {
			return entities.PollInstance{}, err
		}
	}
	return entities.PollInstance{
		PollID:               m.ID,
		GuildID:              m.GuildID,
		PollType:             m.PollType,
		CreatorID:            m.CreatorID,
		Question:             m.Question,
		Options:              options,
		MaxSelections:        m.MaxSelections,
		ShowVotesWhileActive: m.ShowVotesWhileActive,
		State:                entities.PollState(m.State),
		CorrectOptions:       correct,
		CreatedAt:            m.CreatedAt.UTC(),
		Deadline:             m.Deadline.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}, nil
}

func toPollEntities(rows []pollModel) ([]entities.PollInstance, error) {
	items := make([]entities.PollInstance, 0, len(rows))
	for _, row := range rows {
		poll, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, poll)
	}
	return items, nil
}

type voteModel struct {
	PollID      string    `gorm:"column:poll_id;primaryKey"`
	VoterID     string    `gorm:"column:voter_id;primaryKey"`
	Selections  []byte    `gorm:"column:selections"`
	SubmittedAt time.Time `gorm:"column:submitted_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string {
	return "poll_votes"
}

func (m voteModel) toEntity() (entities.VoteRecord, error) {
	var ordinals []int
	if err := json.Unmarshal(m.Selections, &ordinals); err != nil {
		return entities.VoteRecord{}, err
	}
	return entities.VoteRecord{
		PollID:         m.PollID,
		VoterID:        m.VoterID,
		ChosenOrdinals: ordinals,
		SubmittedAt:    m.SubmittedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}, nil
}

type scoredMarkerModel struct {
	PollID   string    `gorm:"column:poll_id;primaryKey"`
	ScoredAt time.Time `gorm:"column:scored_at"`
}

func (scoredMarkerModel) TableName() string {
	return "poll_scored_markers"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "poll_outbox"
}
