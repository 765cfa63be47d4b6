package workers

import (
	"context"
	"log/slog"
	"time"

	application "quorum/contexts/community-core/comment-lifecycle/application"
	"quorum/contexts/community-core/comment-lifecycle/ports"
)

// NotificationRelay drains the notification outbox and delivers each message
// through the dispatch port. Delivery is best-effort: a failure stops the
// cycle and the remaining rows are retried next cycle, while lifecycle
// callers never observe dispatch problems.
type NotificationRelay struct {
	Outbox    ports.NotificationOutbox
	Dispatch  ports.NotificationDispatch
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r NotificationRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingNotifications(ctx, limit)
	if err != nil {
		logger.Error("notification outbox list failed",
			"event", "comment_notification_list_failed",
			"module", "community-core/comment-lifecycle",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, notification := range pending {
		if err := r.Dispatch.Send(ctx,
			notification.FromUser,
			notification.ToUser,
			notification.Subject,
			notification.Body,
		); err != nil {
			logger.Error("notification dispatch failed",
				"event", "comment_notification_dispatch_failed",
				"module", "community-core/comment-lifecycle",
				"layer", "worker",
				"notification_id", notification.NotificationID,
				"to_user", notification.ToUser,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkNotificationSent(ctx, notification.NotificationID, now); err != nil {
			logger.Error("notification mark sent failed",
				"event", "comment_notification_mark_sent_failed",
				"module", "community-core/comment-lifecycle",
				"layer", "worker",
				"notification_id", notification.NotificationID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("notification relay cycle completed",
		"event", "comment_notification_relay_completed",
		"module", "community-core/comment-lifecycle",
		"layer", "worker",
		"delivered_count", len(pending),
	)
	return nil
}
