package application

import (
	"context"
	"strings"
	"time"

	"quorum/contexts/community-core/vote-admission-engine/ports"
)

// DefaultRateLimitWindow is the trailing window over which low-karma vote
// casts are counted.
const DefaultRateLimitWindow = 24 * time.Hour

// RateLimiter counts vote casts a user has spent inside the trailing window.
// Only casts that resulted in a stored vote count: rejected attempts never
// reach storage, flips reuse the stored row, and toggle-off removes the row
// and refunds the slot.
type RateLimiter struct {
	Votes  ports.VoteRepository
	Clock  ports.Clock
	Window time.Duration
}

func (rl RateLimiter) VotesUsedInTrailing24h(ctx context.Context, userID string) (int, error) {
	window := rl.Window
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	now := time.Now().UTC()
	if rl.Clock != nil {
		now = rl.Clock.Now().UTC()
	}
	return rl.Votes.CountVotesCastSince(ctx, strings.TrimSpace(userID), now.Add(-window))
}
