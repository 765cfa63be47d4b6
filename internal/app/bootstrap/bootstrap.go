package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	commentlifecycle "quorum/contexts/community-core/comment-lifecycle"
	commentpostgres "quorum/contexts/community-core/comment-lifecycle/adapters/postgres"
	commentworkers "quorum/contexts/community-core/comment-lifecycle/application/workers"
	voteadmission "quorum/contexts/community-core/vote-admission-engine"
	votepostgres "quorum/contexts/community-core/vote-admission-engine/adapters/postgres"
	voteworkers "quorum/contexts/community-core/vote-admission-engine/application/workers"
	"quorum/internal/platform/config"
	"quorum/internal/platform/db"
	"quorum/internal/platform/httpserver"
	"quorum/internal/platform/messaging"
	"quorum/internal/shared/events"

	"github.com/google/uuid"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres          *db.Postgres
	voteOutboxRelay   voteworkers.OutboxRelay
	notificationRelay commentworkers.NotificationRelay
	relayVoteOutbox   bool
	relayNotification bool
	pollInterval      time.Duration
	logger            *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	voteRepo := votepostgres.NewRepository(pg.DB, logger)
	voteModule := voteadmission.NewModule(voteadmission.Dependencies{
		Votes:           voteRepo,
		Karma:           voteRepo,
		Outbox:          voteRepo,
		Clock:           votepostgres.SystemClock{},
		IDGen:           votepostgres.UUIDGenerator{},
		RateLimitWindow: cfg.VoteRateLimitWindow,
		Logger:          logger,
	})

	commentRepo := commentpostgres.NewRepository(pg.DB, logger)
	commentModule := commentlifecycle.NewModule(commentlifecycle.Dependencies{
		Comments:      commentRepo,
		Users:         commentRepo,
		Roles:         commentRepo,
		Notifications: commentRepo,
		Clock:         commentpostgres.SystemClock{},
		IDGen:         commentpostgres.UUIDGenerator{},
		ServiceUser:   cfg.ServiceUser,
		Logger:        logger,
	})

	server := httpserver.New(voteModule, commentModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	voteRepo := votepostgres.NewRepository(pg.DB, logger)
	commentRepo := commentpostgres.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres: pg,
		voteOutboxRelay: voteworkers.OutboxRelay{
			Outbox:    voteRepo,
			Publisher: kafka,
			Clock:     votepostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		notificationRelay: commentworkers.NotificationRelay{
			Outbox: commentRepo,
			Dispatch: notificationPublisher{
				bus:     kafka,
				service: cfg.ServiceName,
			},
			Clock:     commentpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		relayVoteOutbox:   cfg.EnableVoteOutboxRelay,
		relayNotification: cfg.EnableNotificationRelay,
		pollInterval:      2 * time.Second,
		logger:            logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"vote_outbox_relay", w.relayVoteOutbox,
		"notification_relay", w.relayNotification,
	)

	for {
		if w.relayVoteOutbox {
			if err := w.voteOutboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.relayNotification {
			if err := w.notificationRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// notificationPublisher delivers user notifications by publishing them to the
// event bus; a downstream messaging consumer turns them into inbox messages.
type notificationPublisher struct {
	bus     *messaging.Kafka
	service string
}

type notificationPayload struct {
	FromUser string `json:"from_user"`
	ToUser   string `json:"to_user"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

func (p notificationPublisher) Send(ctx context.Context, fromUser string, toUser string, subject string, body string) error {
	return p.bus.Publish(ctx, "comment.notification", events.Envelope{
		EventID:        uuid.NewString(),
		EventType:      "comment.notification",
		SourceService:  p.service,
		OccurredAtUTC:  time.Now().UTC(),
		EntityType:     "notification",
		EntityID:       toUser,
		PayloadVersion: 1,
		Payload: notificationPayload{
			FromUser: fromUser,
			ToUser:   toUser,
			Subject:  subject,
			Body:     body,
		},
	})
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
