package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	commentlifecycle "quorum/contexts/community-core/comment-lifecycle"
	voteadmission "quorum/contexts/community-core/vote-admission-engine"
	"quorum/contexts/community-core/vote-admission-engine/ports"
)

func newTestServer() *Server {
	return New(
		voteadmission.NewInMemoryModule(nil, slog.Default()),
		commentlifecycle.NewInMemoryModule(nil, slog.Default()),
		slog.Default(),
		":0",
	)
}

func TestCastVoteRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/comment-1/votes", bytes.NewReader([]byte(`{"direction":"up"}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCastVoteUnknownCommentReturns404(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/missing/votes", bytes.NewReader([]byte(`{"direction":"up"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "voter-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLegacyVoteRejectsMalformedSegment(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/votecomment/comment-1/2", nil)
	req.Header.Set("X-User-Id", "voter-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLegacyVoteReportsUniformSuccess(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/votecomment/missing/1", nil)
	req.Header.Set("X-User-Id", "voter-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "Voting ok" {
		t.Fatalf("expected uniform success body, got %q", body.Message)
	}
}

func TestVoteTallyAllowsAnonymousRead(t *testing.T) {
	server := newTestServer()
	server.votes.Store.SetComment(ports.CommentProjection{
		CommentID: "comment-1",
		Score:     3,
		Likes:     4,
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments/comment-1/votes", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}
