package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quorum/contexts/community-core/comment-lifecycle/ports"
)

func TestCommentCreateRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"thread_id":"thread-1","content":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCommentCreateRejectsMalformedJSON(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments", bytes.NewReader([]byte(`{"thread_id":`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "alice")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCommentCreateReturns201(t *testing.T) {
	server := newTestServer()
	server.comments.Store.SetThread(ports.ThreadProjection{
		ThreadID: "thread-1",
		BoardID:  "board-1",
	})
	body := []byte(`{"thread_id":"thread-1","content":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "alice")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCommentEditByStrangerReturns403(t *testing.T) {
	server := newTestServer()
	server.comments.Store.SetThread(ports.ThreadProjection{
		ThreadID: "thread-1",
		BoardID:  "board-1",
	})

	createReq := httptest.NewRequest(http.MethodPost, "/api/v1/comments", bytes.NewReader([]byte(`{"thread_id":"thread-1","content":"mine"}`)))
	createReq.Header.Set("Content-Type", "application/json")
	createReq.Header.Set("X-User-Id", "alice")
	createRR := httptest.NewRecorder()
	server.mux.ServeHTTP(createRR, createReq)
	if createRR.Code != http.StatusCreated {
		t.Fatalf("setup create failed: %d body=%s", createRR.Code, createRR.Body.String())
	}
	var created struct {
		CommentID string `json:"comment_id"`
	}
	if err := json.Unmarshal(createRR.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	editReq := httptest.NewRequest(http.MethodPut, "/api/v1/comments/"+created.CommentID, bytes.NewReader([]byte(`{"content":"stolen"}`)))
	editReq.Header.Set("Content-Type", "application/json")
	editReq.Header.Set("X-User-Id", "bob")
	editRR := httptest.NewRecorder()
	server.mux.ServeHTTP(editRR, editReq)
	if editRR.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", editRR.Code, editRR.Body.String())
	}
}

func TestCommentDeleteRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/comments/comment-1", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCommentGetUnknownReturns404(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments/missing", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDistinguishRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/comment-1/distinguish", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}
