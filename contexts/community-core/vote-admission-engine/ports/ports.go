package ports

import (
	"context"
	"time"

	"quorum/contexts/community-core/vote-admission-engine/domain/entities"
	"quorum/internal/shared/events"
)

// CommentProjection is the slice of comment state the admission engine needs
// for the toggle read-modify-write. Version backs optimistic concurrency on
// the score/likes aggregate.
type CommentProjection struct {
	CommentID string
	ThreadID  string
	BoardID   string
	AuthorID  string
	Score     int
	Likes     int
	Version   int64
	Deleted   bool
}

// VoteMutation is one atomic vote application: the vote row change plus the
// derived score/likes delta on the owning comment. Adapters must apply both
// or neither, and must fail with ErrConcurrentModification when the comment
// version moved under the caller.
type VoteMutation struct {
	Vote            entities.Vote
	Remove          bool
	CommentID       string
	ScoreDelta      int
	LikesDelta      int
	ExpectedVersion int64
}

type VoteRepository interface {
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	GetVoteByIdentity(ctx context.Context, commentID string, userID string) (entities.Vote, bool, error)
	ListVotesByComment(ctx context.Context, commentID string) ([]entities.Vote, error)
	// CountVotesCastSince counts the user's stored votes cast at or after
	// the cutoff. Rejected attempts never reach storage and toggled-off
	// votes are removed, so neither counts.
	CountVotesCastSince(ctx context.Context, userID string, since time.Time) (int, error)
	GetCommentForVoting(ctx context.Context, commentID string) (CommentProjection, error)
	ApplyVoteMutation(ctx context.Context, mutation VoteMutation) error
}

// KarmaProvider supplies a user's comment karma, the reputation score gating
// vote privileges.
type KarmaProvider interface {
	CommentKarma(ctx context.Context, userID string) (int, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxWriter persists vote events alongside state changes for asynchronous
// publication. A nil writer in module wiring disables event emission.
type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope events.Envelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
