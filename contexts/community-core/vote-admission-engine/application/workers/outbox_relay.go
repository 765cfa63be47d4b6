package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "quorum/contexts/community-core/vote-admission-engine/application"
	"quorum/contexts/community-core/vote-admission-engine/ports"
	"quorum/internal/shared/events"
)

// OutboxRelay publishes persisted vote events to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each row
// published only after broker publish succeeds. It stops on the first failure
// so the next cycle can reprocess remaining rows safely.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("vote outbox list failed",
			"event", "voting_outbox_list_failed",
			"module", "community-core/vote-admission-engine",
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

	for _, row := range pending {
		var event events.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("vote outbox decode failed",
				"event", "voting_outbox_decode_failed",
				"module", "community-core/vote-admission-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("vote outbox publish failed",
				"event", "voting_outbox_publish_failed",
				"module", "community-core/vote-admission-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("vote outbox mark published failed",
				"event", "voting_outbox_mark_published_failed",
				"module", "community-core/vote-admission-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("vote outbox relay cycle completed",
		"event", "voting_outbox_relay_completed",
		"module", "community-core/vote-admission-engine",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
