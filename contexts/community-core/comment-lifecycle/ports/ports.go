package ports

import (
	"context"
	"time"

	"quorum/contexts/community-core/comment-lifecycle/domain/entities"
)

// ThreadProjection is the slice of thread state comment creation needs:
// board linkage for ban/role checks and the anonymization flags inherited by
// new comments.
type ThreadProjection struct {
	ThreadID        string
	BoardID         string
	AuthorID        string
	Anonymized      bool
	BoardAnonymized bool
}

type CommentRepository interface {
	GetComment(ctx context.Context, commentID string) (entities.Comment, error)
	GetThread(ctx context.Context, threadID string) (ThreadProjection, error)
	// SaveComment inserts new comments and updates lifecycle fields of
	// existing ones. It must not touch the score/likes/version aggregate,
	// which is owned by the vote admission engine.
	SaveComment(ctx context.Context, comment entities.Comment) error
}

// UserStatus answers ban checks consulted before comment creation.
type UserStatus interface {
	IsGloballyBanned(ctx context.Context, userID string) (bool, error)
	IsBannedFromBoard(ctx context.Context, userID string, boardID string) (bool, error)
}

// RoleProvider answers per-board role membership queries.
type RoleProvider interface {
	IsModerator(ctx context.Context, userID string, boardID string) (bool, error)
	IsAdmin(ctx context.Context, userID string, boardID string) (bool, error)
}

type ProcessingStage string

const (
	StagePreSave  ProcessingStage = "pre_save"
	StagePostSave ProcessingStage = "post_save"
)

// ContentProcessor is the hook-based content transform applied around comment
// persistence. A nil processor in module wiring disables both stages.
type ContentProcessor interface {
	HasStage(stage ProcessingStage) bool
	Process(ctx context.Context, text string, stage ProcessingStage, comment *entities.Comment) (string, error)
}

// NotificationOutbox stores lifecycle notifications for asynchronous,
// best-effort delivery. Enqueue failures never roll back the transition that
// produced the notification.
type NotificationOutbox interface {
	EnqueueNotification(ctx context.Context, notification entities.Notification) error
	ListPendingNotifications(ctx context.Context, limit int) ([]entities.Notification, error)
	MarkNotificationSent(ctx context.Context, notificationID string, sentAt time.Time) error
}

// NotificationDispatch delivers one private message. Implemented by the
// platform messaging adapter; invoked only by the relay worker.
type NotificationDispatch interface {
	Send(ctx context.Context, fromUser string, toUser string, subject string, body string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
