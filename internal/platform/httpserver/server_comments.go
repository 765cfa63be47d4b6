package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	commenterrors "quorum/contexts/community-core/comment-lifecycle/domain/errors"
	commenthttp "quorum/contexts/community-core/comment-lifecycle/transport/http"
)

func writeCommentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, commenthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeCommentDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, commenterrors.ErrInvalidCommentInput):
		writeCommentError(w, http.StatusBadRequest, "invalid_comment", err.Error())
	case errors.Is(err, commenterrors.ErrCommentNotFound):
		writeCommentError(w, http.StatusNotFound, "comment_not_found", err.Error())
	case errors.Is(err, commenterrors.ErrThreadNotFound):
		writeCommentError(w, http.StatusNotFound, "thread_not_found", err.Error())
	case errors.Is(err, commenterrors.ErrUnauthorized):
		writeCommentError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, commenterrors.ErrAuthorBanned):
		writeCommentError(w, http.StatusForbidden, "author_banned", err.Error())
	case errors.Is(err, commenterrors.ErrConflict):
		writeCommentError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeCommentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireCommentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeCommentError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCommentUser(w, r)
	if !ok {
		return
	}

	var req commenthttp.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.comments.Handler.CreateCommentHandler(r.Context(), userID, req)
	if err != nil {
		writeCommentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetComment(w http.ResponseWriter, r *http.Request) {
	resp, err := s.comments.Handler.GetCommentHandler(r.Context(), r.PathValue("comment_id"))
	if err != nil {
		writeCommentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEditComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCommentUser(w, r)
	if !ok {
		return
	}

	var req commenthttp.EditCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.comments.Handler.EditCommentHandler(r.Context(), userID, r.PathValue("comment_id"), req)
	if err != nil {
		writeCommentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCommentUser(w, r)
	if !ok {
		return
	}

	resp, err := s.comments.Handler.DeleteCommentHandler(r.Context(), userID, r.PathValue("comment_id"))
	if err != nil {
		writeCommentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDistinguishComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireCommentUser(w, r)
	if !ok {
		return
	}

	resp, err := s.comments.Handler.DistinguishCommentHandler(r.Context(), userID, r.PathValue("comment_id"))
	if err != nil {
		writeCommentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
