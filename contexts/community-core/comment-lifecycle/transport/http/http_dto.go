package httptransport

import "time"

type CreateCommentRequest struct {
	ThreadID string `json:"thread_id"`
	ParentID string `json:"parent_id,omitempty"`
	Content  string `json:"content"`
}

type EditCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is the shared read shape for every lifecycle operation.
type CommentResponse struct {
	CommentID     string     `json:"comment_id"`
	ParentID      string     `json:"parent_id,omitempty"`
	ThreadID      string     `json:"thread_id"`
	BoardID       string     `json:"board_id"`
	AuthorID      string     `json:"author_id"`
	Content       string     `json:"content"`
	Score         int        `json:"score"`
	Likes         int        `json:"likes"`
	Anonymized    bool       `json:"anonymized"`
	Distinguished bool       `json:"distinguished"`
	State         string     `json:"state"`
	CreatedAt     time.Time  `json:"created_at"`
	EditedAt      *time.Time `json:"edited_at,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
