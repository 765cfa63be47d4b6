package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"quorum/contexts/community-core/comment-lifecycle/domain/entities"
	domainerrors "quorum/contexts/community-core/comment-lifecycle/domain/errors"
	"quorum/contexts/community-core/comment-lifecycle/ports"

	"github.com/google/uuid"
)

type notificationRecord struct {
	notification entities.Notification
	sent         bool
}

type roleKey struct {
	userID  string
	boardID string
}

// Store is the in-memory adapter backing tests and local wiring. It
// implements the comment repository, user status, role provider,
// notification outbox, clock, and id generator ports.
type Store struct {
	mu sync.RWMutex

	comments      map[string]entities.Comment
	threads       map[string]ports.ThreadProjection
	globalBans    map[string]bool
	boardBans     map[roleKey]bool
	moderators    map[roleKey]bool
	admins        map[roleKey]bool
	notifications map[string]notificationRecord

	now func() time.Time
}

func NewStore(seed []entities.Comment) *Store {
	comments := make(map[string]entities.Comment, len(seed))
	for _, comment := range seed {
		comments[comment.CommentID] = comment
	}
	return &Store{
		comments:      comments,
		threads:       make(map[string]ports.ThreadProjection),
		globalBans:    make(map[string]bool),
		boardBans:     make(map[roleKey]bool),
		moderators:    make(map[roleKey]bool),
		admins:        make(map[roleKey]bool),
		notifications: make(map[string]notificationRecord),
	}
}

func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) SetThread(thread ports.ThreadProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread.ThreadID = strings.TrimSpace(thread.ThreadID)
	s.threads[thread.ThreadID] = thread
}

func (s *Store) SetComment(comment entities.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[strings.TrimSpace(comment.CommentID)] = comment
}

func (s *Store) SetGloballyBanned(userID string, banned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalBans[strings.ToLower(strings.TrimSpace(userID))] = banned
}

func (s *Store) SetBoardBan(userID string, boardID string, banned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boardBans[newRoleKey(userID, boardID)] = banned
}

func (s *Store) SetModerator(userID string, boardID string, moderator bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moderators[newRoleKey(userID, boardID)] = moderator
}

func (s *Store) SetAdmin(userID string, boardID string, admin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[newRoleKey(userID, boardID)] = admin
}

func (s *Store) GetComment(_ context.Context, commentID string) (entities.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comment, ok := s.comments[strings.TrimSpace(commentID)]
	if !ok {
		return entities.Comment{}, domainerrors.ErrCommentNotFound
	}
	return comment, nil
}

func (s *Store) GetThread(_ context.Context, threadID string) (ports.ThreadProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.threads[strings.TrimSpace(threadID)]
	if !ok {
		return ports.ThreadProjection{}, domainerrors.ErrThreadNotFound
	}
	return thread, nil
}

// SaveComment preserves the vote aggregate of an existing row; score, likes,
// and version belong to the vote admission engine.
func (s *Store) SaveComment(_ context.Context, comment entities.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	commentID := strings.TrimSpace(comment.CommentID)
	if existing, ok := s.comments[commentID]; ok {
		comment.Score = existing.Score
		comment.Likes = existing.Likes
		comment.Version = existing.Version
	}
	s.comments[commentID] = comment
	return nil
}

func (s *Store) IsGloballyBanned(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globalBans[strings.ToLower(strings.TrimSpace(userID))], nil
}

func (s *Store) IsBannedFromBoard(_ context.Context, userID string, boardID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boardBans[newRoleKey(userID, boardID)], nil
}

func (s *Store) IsModerator(_ context.Context, userID string, boardID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moderators[newRoleKey(userID, boardID)], nil
}

func (s *Store) IsAdmin(_ context.Context, userID string, boardID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[newRoleKey(userID, boardID)], nil
}

func (s *Store) EnqueueNotification(_ context.Context, notification entities.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(notification.NotificationID)
	if id == "" {
		id = uuid.NewString()
		notification.NotificationID = id
	}
	if _, ok := s.notifications[id]; ok {
		return domainerrors.ErrConflict
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = s.clockNow()
	}
	s.notifications[id] = notificationRecord{notification: notification}
	return nil
}

func (s *Store) ListPendingNotifications(_ context.Context, limit int) ([]entities.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.Notification, 0, len(s.notifications))
	for _, row := range s.notifications {
		if row.sent {
			continue
		}
		items = append(items, row.notification)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkNotificationSent(_ context.Context, notificationID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.notifications[strings.TrimSpace(notificationID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.sent = true
	s.notifications[strings.TrimSpace(notificationID)] = row
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

func newRoleKey(userID string, boardID string) roleKey {
	return roleKey{
		userID:  strings.ToLower(strings.TrimSpace(userID)),
		boardID: strings.ToLower(strings.TrimSpace(boardID)),
	}
}
