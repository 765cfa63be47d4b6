package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	voteentities "quorum/contexts/community-core/vote-admission-engine/domain/entities"
	voteerrors "quorum/contexts/community-core/vote-admission-engine/domain/errors"
	votehttp "quorum/contexts/community-core/vote-admission-engine/transport/http"
)

func writeVoteError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeVoteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, voteerrors.ErrInvalidVoteInput):
		writeVoteError(w, http.StatusBadRequest, "invalid_vote", err.Error())
	case errors.Is(err, voteerrors.ErrCommentNotFound):
		writeVoteError(w, http.StatusNotFound, "comment_not_found", err.Error())
	case errors.Is(err, voteerrors.ErrVoteNotFound):
		writeVoteError(w, http.StatusNotFound, "vote_not_found", err.Error())
	case errors.Is(err, voteerrors.ErrConcurrentModification),
		errors.Is(err, voteerrors.ErrConflict):
		writeVoteError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeVoteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireVoteUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeVoteError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireVoteUser(w, r)
	if !ok {
		return
	}

	var req votehttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVoteError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.votes.Handler.CastVoteHandler(r.Context(), userID, r.PathValue("comment_id"), req)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLegacyVote serves the historical vote route. The {vote} segment is the
// signed integer the old clients send: 1 for up, -1 for down.
func (s *Server) handleLegacyVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireVoteUser(w, r)
	if !ok {
		return
	}

	var direction voteentities.VoteDirection
	switch r.PathValue("vote") {
	case "1":
		direction = voteentities.VoteDirectionUp
	case "-1":
		direction = voteentities.VoteDirectionDown
	default:
		writeVoteError(w, http.StatusBadRequest, "invalid_vote", "vote must be 1 or -1")
		return
	}

	resp, err := s.votes.Handler.LegacyVoteHandler(r.Context(), userID, r.PathValue("comment_id"), direction)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoteTally(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	resp, err := s.votes.Handler.TallyHandler(r.Context(), r.PathValue("comment_id"), userID)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
