package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"quorum/contexts/community-core/vote-admission-engine/domain/entities"
	domainerrors "quorum/contexts/community-core/vote-admission-engine/domain/errors"
	"quorum/contexts/community-core/vote-admission-engine/ports"
	"quorum/internal/shared/events"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter backing tests and local wiring. It
// implements the vote repository, karma provider, outbox, clock, and id
// generator ports behind one mutex, so vote mutations are atomic.
type Store struct {
	mu sync.RWMutex

	votes    map[string]entities.Vote
	comments map[string]ports.CommentProjection
	karma    map[string]int
	outbox   map[string]outboxRecord

	now func() time.Time
}

func NewStore(seed []entities.Vote) *Store {
	votes := make(map[string]entities.Vote, len(seed))
	for _, vote := range seed {
		votes[vote.VoteID] = vote
	}
	return &Store{
		votes:    votes,
		comments: make(map[string]ports.CommentProjection),
		karma:    make(map[string]int),
		outbox:   make(map[string]outboxRecord),
	}
}

// SetNow overrides the store clock, letting tests move the rate-limit window.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) SetComment(comment ports.CommentProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment.CommentID = strings.TrimSpace(comment.CommentID)
	s.comments[comment.CommentID] = comment
}

func (s *Store) SetKarma(userID string, karma int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.karma[strings.TrimSpace(userID)] = karma
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (s *Store) GetVoteByIdentity(_ context.Context, commentID string, userID string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	commentID = strings.TrimSpace(commentID)
	userID = strings.TrimSpace(userID)
	for _, vote := range s.votes {
		if vote.CommentID == commentID && vote.UserID == userID {
			return vote, true, nil
		}
	}
	return entities.Vote{}, false, nil
}

func (s *Store) ListVotesByComment(_ context.Context, commentID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.CommentID == strings.TrimSpace(commentID) {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CastAt.Before(items[j].CastAt)
	})
	return items, nil
}

func (s *Store) CountVotesCastSince(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID = strings.TrimSpace(userID)
	count := 0
	for _, vote := range s.votes {
		if vote.UserID != userID {
			continue
		}
		if vote.CastAt.Before(since) {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) GetCommentForVoting(_ context.Context, commentID string) (ports.CommentProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comment, ok := s.comments[strings.TrimSpace(commentID)]
	if !ok {
		return ports.CommentProjection{}, domainerrors.ErrCommentNotFound
	}
	return comment, nil
}

func (s *Store) ApplyVoteMutation(_ context.Context, mutation ports.VoteMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	commentID := strings.TrimSpace(mutation.CommentID)
	comment, ok := s.comments[commentID]
	if !ok {
		return domainerrors.ErrCommentNotFound
	}
	if comment.Version != mutation.ExpectedVersion {
		return domainerrors.ErrConcurrentModification
	}

	if mutation.Remove {
		delete(s.votes, strings.TrimSpace(mutation.Vote.VoteID))
	} else {
		s.votes[strings.TrimSpace(mutation.Vote.VoteID)] = mutation.Vote
	}
	comment.Score += mutation.ScoreDelta
	comment.Likes += mutation.LikesDelta
	comment.Version++
	s.comments[commentID] = comment
	return nil
}

func (s *Store) CommentKarma(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.karma[strings.TrimSpace(userID)], nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, ok := s.outbox[outboxID]; ok {
		return domainerrors.ErrConflict
	}
	createdAt := envelope.OccurredAtUTC.UTC()
	if createdAt.IsZero() {
		createdAt = s.clockNow()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.EntityID),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clockNow()
}

func (s *Store) clockNow() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
