package voteadmission

import (
	"log/slog"
	"time"

	httpadapter "quorum/contexts/community-core/vote-admission-engine/adapters/http"
	"quorum/contexts/community-core/vote-admission-engine/adapters/memory"
	application "quorum/contexts/community-core/vote-admission-engine/application"
	"quorum/contexts/community-core/vote-admission-engine/application/commands"
	"quorum/contexts/community-core/vote-admission-engine/application/queries"
	"quorum/contexts/community-core/vote-admission-engine/domain/entities"
	"quorum/contexts/community-core/vote-admission-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Votes   commands.VoteUseCase
	Tallies queries.TallyUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Votes           ports.VoteRepository
	Karma           ports.KarmaProvider
	Outbox          ports.OutboxWriter
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	RateLimitWindow time.Duration
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	voteUseCase := commands.VoteUseCase{
		Votes: deps.Votes,
		Karma: deps.Karma,
		Limiter: application.RateLimiter{
			Votes:  deps.Votes,
			Clock:  deps.Clock,
			Window: deps.RateLimitWindow,
		},
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Locks:  application.NewKeyedMutex(),
		Logger: deps.Logger,
	}
	tallyUseCase := queries.TallyUseCase{Votes: deps.Votes}
	return Module{
		Handler: httpadapter.Handler{
			Votes:   voteUseCase,
			Tallies: tallyUseCase,
			Logger:  deps.Logger,
		},
		Votes:   voteUseCase,
		Tallies: tallyUseCase,
	}
}

func NewInMemoryModule(seed []entities.Vote, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Votes:  store,
		Karma:  store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
