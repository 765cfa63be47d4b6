package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"quorum/contexts/community-core/vote-admission-engine/domain/entities"
	domainerrors "quorum/contexts/community-core/vote-admission-engine/domain/errors"
	"quorum/contexts/community-core/vote-admission-engine/ports"
	"quorum/internal/shared/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

type voteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CommentID string    `gorm:"column:comment_id"`
	UserID    string    `gorm:"column:user_id"`
	Direction string    `gorm:"column:direction"`
	CastAt    time.Time `gorm:"column:cast_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string { return "comment_votes" }

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:    m.ID,
		CommentID: m.CommentID,
		UserID:    m.UserID,
		Direction: entities.VoteDirection(m.Direction),
		CastAt:    m.CastAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:        strings.TrimSpace(vote.VoteID),
		CommentID: strings.TrimSpace(vote.CommentID),
		UserID:    strings.TrimSpace(vote.UserID),
		Direction: string(vote.Direction),
		CastAt:    vote.CastAt.UTC(),
		UpdatedAt: vote.UpdatedAt.UTC(),
	}
}

// commentScoreModel is a projection over the comments table owned by the
// comment-lifecycle service; the vote engine only touches the aggregate
// columns and the version stamp.
type commentScoreModel struct {
	ID       string `gorm:"column:id;primaryKey"`
	ThreadID string `gorm:"column:thread_id"`
	BoardID  string `gorm:"column:board_id"`
	AuthorID string `gorm:"column:author_id"`
	Score    int    `gorm:"column:score"`
	Likes    int    `gorm:"column:likes"`
	Version  int64  `gorm:"column:version"`
	State    string `gorm:"column:state"`
}

func (commentScoreModel) TableName() string { return "comments" }

type outboxModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	EventType    string    `gorm:"column:event_type"`
	PartitionKey string    `gorm:"column:partition_key"`
	Payload      []byte    `gorm:"column:payload"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "vote_outbox" }

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(voteID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.logError("voting_repo_get_vote_failed", err, "vote_id", strings.TrimSpace(voteID))
	}
	return row.toEntity(), nil
}

func (r *Repository) GetVoteByIdentity(ctx context.Context, commentID string, userID string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("comment_id = ?", strings.TrimSpace(commentID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("voting_repo_get_vote_by_identity_failed", err,
			"comment_id", strings.TrimSpace(commentID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotesByComment(ctx context.Context, commentID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("comment_id = ?", strings.TrimSpace(commentID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_votes_failed", err,
			"comment_id", strings.TrimSpace(commentID),
		)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountVotesCastSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&voteModel{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("cast_at >= ?", since.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, r.logError("voting_repo_count_casts_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return int(count), nil
}

func (r *Repository) GetCommentForVoting(ctx context.Context, commentID string) (ports.CommentProjection, error) {
	var row commentScoreModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(commentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CommentProjection{}, domainerrors.ErrCommentNotFound
		}
		return ports.CommentProjection{}, r.logError("voting_repo_get_comment_failed", err,
			"comment_id", strings.TrimSpace(commentID),
		)
	}
	return ports.CommentProjection{
		CommentID: row.ID,
		ThreadID:  row.ThreadID,
		BoardID:   row.BoardID,
		AuthorID:  row.AuthorID,
		Score:     row.Score,
		Likes:     row.Likes,
		Version:   row.Version,
		Deleted:   row.State != "active",
	}, nil
}

// ApplyVoteMutation applies the vote row change and the score/likes delta in
// one transaction. The guarded UPDATE on (id, version) is the serialization
// point for concurrent casts on the same comment.
func (r *Repository) ApplyVoteMutation(ctx context.Context, mutation ports.VoteMutation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&commentScoreModel{}).
			Where("id = ?", strings.TrimSpace(mutation.CommentID)).
			Where("version = ?", mutation.ExpectedVersion).
			Updates(map[string]any{
				"score":   gorm.Expr("score + ?", mutation.ScoreDelta),
				"likes":   gorm.Expr("likes + ?", mutation.LikesDelta),
				"version": gorm.Expr("version + 1"),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrConcurrentModification
		}

		if mutation.Remove {
			return tx.Where("id = ?", strings.TrimSpace(mutation.Vote.VoteID)).
				Delete(&voteModel{}).Error
		}
		row := voteModelFromEntity(mutation.Vote)
		return tx.Save(&row).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConcurrentModification) {
			return domainerrors.ErrConcurrentModification
		}
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("voting_repo_apply_mutation_failed", err,
			"comment_id", strings.TrimSpace(mutation.CommentID),
			"vote_id", strings.TrimSpace(mutation.Vote.VoteID),
		)
	}
	return nil
}

// CommentKarma derives comment karma as the summed score of the user's
// non-deleted comments.
func (r *Repository) CommentKarma(ctx context.Context, userID string) (int, error) {
	var karma int64
	err := r.db.WithContext(ctx).Model(&commentScoreModel{}).
		Where("LOWER(author_id) = LOWER(?)", strings.TrimSpace(userID)).
		Where("state = ?", "active").
		Select("COALESCE(SUM(score), 0)").
		Scan(&karma).Error
	if err != nil {
		return 0, r.logError("voting_repo_comment_karma_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return int(karma), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	createdAt := envelope.OccurredAtUTC.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	row := outboxModel{
		ID:           outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.EntityID),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    createdAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("voting_repo_append_outbox_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.ID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	publishedAt = publishedAt.UTC()
	update := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &publishedAt,
		})
	if update.Error != nil {
		return r.logError("voting_repo_mark_outbox_failed", update.Error, "outbox_id", strings.TrimSpace(outboxID))
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "community-core/vote-admission-engine",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("vote repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SystemClock and UUIDGenerator satisfy the engine's clock/id ports for
// production wiring.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
