package entities

import "time"

type CommentState string

const (
	CommentStateActive           CommentState = "active"
	CommentStateAuthorDeleted    CommentState = "author_deleted"
	CommentStateModeratorDeleted CommentState = "moderator_deleted"
)

// DeletedAuthorSentinel replaces the author field of a soft-deleted comment.
const DeletedAuthorSentinel = "deleted"

// Comment is a threaded comment. A nil ParentID marks a root comment.
// BoardID is denormalized from the thread so authorization checks need no
// extra lookup. Score and Likes are derived from stored votes and are only
// mutated through vote application/reversal; Version stamps that aggregate
// for optimistic concurrency.
type Comment struct {
	CommentID     string
	ParentID      *string
	ThreadID      string
	BoardID       string
	AuthorID      string
	Content       string
	Score         int
	Likes         int
	Anonymized    bool
	Distinguished bool
	State         CommentState
	CreatedAt     time.Time
	EditedAt      *time.Time
	Version       int64
}

// Deleted reports whether the comment reached a terminal deleted state.
// Deleted comments keep their id, parent linkage, and thread/board linkage;
// children stay attached.
func (c Comment) Deleted() bool {
	return c.State == CommentStateAuthorDeleted || c.State == CommentStateModeratorDeleted
}

// AuthorDeletionMarker is the content sentinel written on author delete.
func AuthorDeletionMarker(at time.Time) string {
	return "deleted by author at " + at.UTC().Format(time.RFC3339)
}

// ModeratorDeletionMarker is the content sentinel written on moderator delete.
func ModeratorDeletionMarker(at time.Time) string {
	return "deleted by a moderator at " + at.UTC().Format(time.RFC3339)
}

// Notification is a queued private message produced by lifecycle transitions
// (reply notices, moderator deletions). Delivery is best-effort and owned by
// the notification relay worker.
type Notification struct {
	NotificationID string
	FromUser       string
	ToUser         string
	Subject        string
	Body           string
	CreatedAt      time.Time
}
