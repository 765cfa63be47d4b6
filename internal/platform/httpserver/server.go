package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	commentlifecycle "quorum/contexts/community-core/comment-lifecycle"
	voteadmission "quorum/contexts/community-core/vote-admission-engine"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "quorum/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	votes    voteadmission.Module
	comments commentlifecycle.Module
}

func New(
	votes voteadmission.Module,
	comments commentlifecycle.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		votes:    votes,
		comments: comments,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/v1/comments/{comment_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /api/v1/comments/{comment_id}/votes", s.handleVoteTally)
	s.mux.HandleFunc("POST /votecomment/{comment_id}/{vote}", s.handleLegacyVote)

	s.mux.HandleFunc("POST /api/v1/comments", s.handleCreateComment)
	s.mux.HandleFunc("GET /api/v1/comments/{comment_id}", s.handleGetComment)
	s.mux.HandleFunc("PUT /api/v1/comments/{comment_id}", s.handleEditComment)
	s.mux.HandleFunc("DELETE /api/v1/comments/{comment_id}", s.handleDeleteComment)
	s.mux.HandleFunc("POST /api/v1/comments/{comment_id}/distinguish", s.handleDistinguishComment)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
