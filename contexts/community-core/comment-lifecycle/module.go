package commentlifecycle

import (
	"log/slog"

	httpadapter "quorum/contexts/community-core/comment-lifecycle/adapters/http"
	"quorum/contexts/community-core/comment-lifecycle/adapters/memory"
	"quorum/contexts/community-core/comment-lifecycle/application/commands"
	"quorum/contexts/community-core/comment-lifecycle/application/queries"
	"quorum/contexts/community-core/comment-lifecycle/domain/entities"
	"quorum/contexts/community-core/comment-lifecycle/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Commands commands.CommentUseCase
	Queries  queries.CommentUseCase
	Store    *memory.Store
}

type Dependencies struct {
	Comments      ports.CommentRepository
	Users         ports.UserStatus
	Roles         ports.RoleProvider
	Content       ports.ContentProcessor
	Notifications ports.NotificationOutbox
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	ServiceUser   string
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	commandUseCase := commands.CommentUseCase{
		Comments:      deps.Comments,
		Users:         deps.Users,
		Roles:         deps.Roles,
		Content:       deps.Content,
		Notifications: deps.Notifications,
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		ServiceUser:   deps.ServiceUser,
		Logger:        deps.Logger,
	}
	queryUseCase := queries.CommentUseCase{Comments: deps.Comments}
	return Module{
		Handler: httpadapter.Handler{
			Commands: commandUseCase,
			Queries:  queryUseCase,
			Logger:   deps.Logger,
		},
		Commands: commandUseCase,
		Queries:  queryUseCase,
	}
}

func NewInMemoryModule(seed []entities.Comment, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Comments:      store,
		Users:         store,
		Roles:         store,
		Notifications: store,
		Clock:         store,
		IDGen:         store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
