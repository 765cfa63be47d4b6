package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"quorum/contexts/community-core/comment-lifecycle/domain/entities"
	domainerrors "quorum/contexts/community-core/comment-lifecycle/domain/errors"
	"quorum/contexts/community-core/comment-lifecycle/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
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
	return &Repository{db: db, logger: logger}
}

type commentModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	ParentID      *string    `gorm:"column:parent_id"`
	ThreadID      string     `gorm:"column:thread_id"`
	BoardID       string     `gorm:"column:board_id"`
	AuthorID      string     `gorm:"column:author_id"`
	Content       string     `gorm:"column:content"`
	Score         int        `gorm:"column:score"`
	Likes         int        `gorm:"column:likes"`
	Anonymized    bool       `gorm:"column:anonymized"`
	Distinguished bool       `gorm:"column:distinguished"`
	State         string     `gorm:"column:state"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	EditedAt      *time.Time `gorm:"column:edited_at"`
	Version       int64      `gorm:"column:version"`
}

func (commentModel) TableName() string { return "comments" }

func (m commentModel) toEntity() entities.Comment {
	return entities.Comment{
		CommentID:     m.ID,
		ParentID:      m.ParentID,
		ThreadID:      m.ThreadID,
		BoardID:       m.BoardID,
		AuthorID:      m.AuthorID,
		Content:       m.Content,
		Score:         m.Score,
		Likes:         m.Likes,
		Anonymized:    m.Anonymized,
		Distinguished: m.Distinguished,
		State:         entities.CommentState(m.State),
		CreatedAt:     m.CreatedAt,
		EditedAt:      m.EditedAt,
		Version:       m.Version,
	}
}

type threadModel struct {
	ID              string `gorm:"column:id;primaryKey"`
	BoardID         string `gorm:"column:board_id"`
	AuthorID        string `gorm:"column:author_id"`
	Anonymized      bool   `gorm:"column:anonymized"`
	BoardAnonymized bool   `gorm:"column:board_anonymized"`
}

func (threadModel) TableName() string { return "threads" }

type userBanModel struct {
	UserID  string `gorm:"column:user_id;primaryKey"`
	BoardID string `gorm:"column:board_id;primaryKey"`
}

func (userBanModel) TableName() string { return "user_bans" }

type boardRoleModel struct {
	UserID  string `gorm:"column:user_id;primaryKey"`
	BoardID string `gorm:"column:board_id;primaryKey"`
	Role    string `gorm:"column:role;primaryKey"`
}

func (boardRoleModel) TableName() string { return "board_roles" }

type notificationModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	FromUser  string     `gorm:"column:from_user"`
	ToUser    string     `gorm:"column:to_user"`
	Subject   string     `gorm:"column:subject"`
	Body      string     `gorm:"column:body"`
	Status    string     `gorm:"column:status"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	SentAt    *time.Time `gorm:"column:sent_at"`
}

func (notificationModel) TableName() string { return "notification_outbox" }

func (r *Repository) GetComment(ctx context.Context, commentID string) (entities.Comment, error) {
	var row commentModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(commentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Comment{}, domainerrors.ErrCommentNotFound
		}
		return entities.Comment{}, r.logError("comment_repo_get_failed", err,
			"comment_id", strings.TrimSpace(commentID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetThread(ctx context.Context, threadID string) (ports.ThreadProjection, error) {
	var row threadModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(threadID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ThreadProjection{}, domainerrors.ErrThreadNotFound
		}
		return ports.ThreadProjection{}, r.logError("comment_repo_get_thread_failed", err,
			"thread_id", strings.TrimSpace(threadID),
		)
	}
	return ports.ThreadProjection{
		ThreadID:        row.ID,
		BoardID:         row.BoardID,
		AuthorID:        row.AuthorID,
		Anonymized:      row.Anonymized,
		BoardAnonymized: row.BoardAnonymized,
	}, nil
}

// SaveComment upserts lifecycle fields only. The score/likes/version
// aggregate is owned by the vote admission engine and is never assigned on
// conflict.
func (r *Repository) SaveComment(ctx context.Context, comment entities.Comment) error {
	row := commentModel{
		ID:            strings.TrimSpace(comment.CommentID),
		ParentID:      comment.ParentID,
		ThreadID:      strings.TrimSpace(comment.ThreadID),
		BoardID:       strings.TrimSpace(comment.BoardID),
		AuthorID:      strings.TrimSpace(comment.AuthorID),
		Content:       comment.Content,
		Score:         comment.Score,
		Likes:         comment.Likes,
		Anonymized:    comment.Anonymized,
		Distinguished: comment.Distinguished,
		State:         string(comment.State),
		CreatedAt:     comment.CreatedAt.UTC(),
		EditedAt:      comment.EditedAt,
		Version:       comment.Version,
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"author_id":     row.AuthorID,
			"content":       row.Content,
			"anonymized":    row.Anonymized,
			"distinguished": row.Distinguished,
			"state":         row.State,
			"edited_at":     row.EditedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("comment_repo_save_failed", create.Error,
			"comment_id", strings.TrimSpace(comment.CommentID),
		)
	}
	return nil
}

func (r *Repository) IsGloballyBanned(ctx context.Context, userID string) (bool, error) {
	return r.banExists(ctx, userID, "")
}

func (r *Repository) IsBannedFromBoard(ctx context.Context, userID string, boardID string) (bool, error) {
	return r.banExists(ctx, userID, strings.TrimSpace(boardID))
}

// banExists treats an empty board id as the global ban scope.
func (r *Repository) banExists(ctx context.Context, userID string, boardID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userBanModel{}).
		Where("LOWER(user_id) = LOWER(?)", strings.TrimSpace(userID)).
		Where("board_id = ?", boardID).
		Count(&count).Error
	if err != nil {
		return false, r.logError("comment_repo_ban_check_failed", err,
			"user_id", strings.TrimSpace(userID),
			"board_id", boardID,
		)
	}
	return count > 0, nil
}

func (r *Repository) IsModerator(ctx context.Context, userID string, boardID string) (bool, error) {
	return r.roleExists(ctx, userID, boardID, "moderator")
}

func (r *Repository) IsAdmin(ctx context.Context, userID string, boardID string) (bool, error) {
	return r.roleExists(ctx, userID, boardID, "admin")
}

func (r *Repository) roleExists(ctx context.Context, userID string, boardID string, role string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&boardRoleModel{}).
		Where("LOWER(user_id) = LOWER(?)", strings.TrimSpace(userID)).
		Where("LOWER(board_id) = LOWER(?)", strings.TrimSpace(boardID)).
		Where("role = ?", role).
		Count(&count).Error
	if err != nil {
		return false, r.logError("comment_repo_role_check_failed", err,
			"user_id", strings.TrimSpace(userID),
			"board_id", strings.TrimSpace(boardID),
			"role", role,
		)
	}
	return count > 0, nil
}

func (r *Repository) EnqueueNotification(ctx context.Context, notification entities.Notification) error {
	id := strings.TrimSpace(notification.NotificationID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := notification.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	row := notificationModel{
		ID:        id,
		FromUser:  strings.TrimSpace(notification.FromUser),
		ToUser:    strings.TrimSpace(notification.ToUser),
		Subject:   notification.Subject,
		Body:      notification.Body,
		Status:    "pending",
		CreatedAt: createdAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("comment_repo_enqueue_notification_failed", err, "notification_id", id)
	}
	return nil
}

func (r *Repository) ListPendingNotifications(ctx context.Context, limit int) ([]entities.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []notificationModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("comment_repo_list_notifications_failed", err)
	}
	items := make([]entities.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Notification{
			NotificationID: row.ID,
			FromUser:       row.FromUser,
			ToUser:         row.ToUser,
			Subject:        row.Subject,
			Body:           row.Body,
			CreatedAt:      row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkNotificationSent(ctx context.Context, notificationID string, sentAt time.Time) error {
	sentAt = sentAt.UTC()
	update := r.db.WithContext(ctx).Model(&notificationModel{}).
		Where("id = ?", strings.TrimSpace(notificationID)).
		Updates(map[string]any{
			"status":  "sent",
			"sent_at": &sentAt,
		})
	if update.Error != nil {
		return r.logError("comment_repo_mark_notification_failed", update.Error,
			"notification_id", strings.TrimSpace(notificationID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "community-core/comment-lifecycle",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("comment repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
