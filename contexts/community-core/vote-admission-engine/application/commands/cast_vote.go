package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "quorum/contexts/community-core/vote-admission-engine/application"
	"quorum/contexts/community-core/vote-admission-engine/domain/entities"
	domainerrors "quorum/contexts/community-core/vote-admission-engine/domain/errors"
	"quorum/contexts/community-core/vote-admission-engine/ports"
	"quorum/internal/shared/events"
)

const (
	// upvoteKarmaBypass: comment karma above this admits up votes without
	// consulting the rate limiter.
	upvoteKarmaBypass = 20
	// downvoteKarmaFloor: down votes are admitted only above this karma.
	downvoteKarmaFloor = 100
	// rateLimitAttemptCeiling preserves the legacy "< 11" check: exactly ten
	// stored low-karma casts still admit the next attempt.
	rateLimitAttemptCeiling = 11

	mutationRetryLimit = 3
)

// CastVoteCommand is the write-model input for one vote cast attempt.
type CastVoteCommand struct {
	UserID    string
	CommentID string
	Direction entities.VoteDirection
}

// CastVoteResult carries the admission verdict and the comment aggregate
// after the mutation (or unchanged, when not admitted).
type CastVoteResult struct {
	Outcome entities.VoteOutcome
	Score   int
	Likes   int
	Vote    entities.Vote
}

// VoteUseCase orchestrates vote admission: karma gates, the trailing-24h
// quota for low-karma up votes, and toggle semantics against the vote store.
// The toggle read-modify-write is serialized per comment and per user through
// Locks plus the repository's optimistic version check.
type VoteUseCase struct {
	Votes   ports.VoteRepository
	Karma   ports.KarmaProvider
	Limiter application.RateLimiter
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Locks   *application.KeyedMutex
	Logger  *slog.Logger
}

// CastVote applies, flips, removes, or rejects a vote for the
// (user, comment, direction) triple.
//
// Up votes: admitted unconditionally above the karma bypass, otherwise only
// while fewer than rateLimitAttemptCeiling stored votes sit in the trailing
// window. Down votes: admitted only above downvoteKarmaFloor. A
// non-admitted attempt changes no state and reports VoteOutcomeNotAdmitted;
// legacy transports collapse that into the same success response as an
// applied vote.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	commentID := strings.TrimSpace(cmd.CommentID)
	if userID == "" || commentID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidVoteInput
	}
	if _, ok := entities.ParseVoteDirection(string(cmd.Direction)); !ok {
		logger.Warn("vote cast validation failed",
			"event", "voting_cast_validation_failed",
			"module", "community-core/vote-admission-engine",
			"layer", "application",
			"user_id", userID,
			"comment_id", commentID,
			"direction", string(cmd.Direction),
		)
		return CastVoteResult{}, domainerrors.ErrInvalidVoteInput
	}

	if uc.Locks != nil {
		unlockComment := uc.Locks.Lock("comment:" + commentID)
		defer unlockComment()
		unlockUser := uc.Locks.Lock("user:" + userID)
		defer unlockUser()
	}

	comment, err := uc.Votes.GetCommentForVoting(ctx, commentID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if comment.Deleted {
		return CastVoteResult{}, domainerrors.ErrCommentNotFound
	}

	admitted, err := uc.admit(ctx, userID, cmd.Direction)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !admitted {
		logger.Info("vote not admitted",
			"event", "voting_cast_not_admitted",
			"module", "community-core/vote-admission-engine",
			"layer", "application",
			"user_id", userID,
			"comment_id", commentID,
			"direction", string(cmd.Direction),
		)
		return CastVoteResult{
			Outcome: entities.VoteOutcomeNotAdmitted,
			Score:   comment.Score,
			Likes:   comment.Likes,
		}, nil
	}

	for attempt := 0; attempt < mutationRetryLimit; attempt++ {
		result, err := uc.applyToggle(ctx, comment, userID, cmd.Direction)
		if err == nil {
			logger.Info("vote cast applied",
				"event", "voting_cast_applied",
				"module", "community-core/vote-admission-engine",
				"layer", "application",
				"user_id", userID,
				"comment_id", commentID,
				"direction", string(cmd.Direction),
				"outcome", string(result.Outcome),
				"score", result.Score,
				"likes", result.Likes,
			)
			return result, nil
		}
		if !errors.Is(err, domainerrors.ErrConcurrentModification) {
			return CastVoteResult{}, err
		}
		// Version moved under us: reload the aggregate and redo the toggle.
		comment, err = uc.Votes.GetCommentForVoting(ctx, commentID)
		if err != nil {
			return CastVoteResult{}, err
		}
		if comment.Deleted {
			return CastVoteResult{}, domainerrors.ErrCommentNotFound
		}
	}
	logger.Error("vote cast retries exhausted",
		"event", "voting_cast_retries_exhausted",
		"module", "community-core/vote-admission-engine",
		"layer", "application",
		"user_id", userID,
		"comment_id", commentID,
	)
	return CastVoteResult{}, domainerrors.ErrConcurrentModification
}

func (uc VoteUseCase) admit(
	ctx context.Context,
	userID string,
	direction entities.VoteDirection,
) (bool, error) {
	logger := application.ResolveLogger(uc.Logger)
	karma, err := uc.Karma.CommentKarma(ctx, userID)
	if err != nil {
		// Deny-by-default on lookup failure; the rate-limited path still
		// gives low-karma users a chance to vote up.
		logger.Warn("karma lookup failed",
			"event", "voting_karma_lookup_failed",
			"module", "community-core/vote-admission-engine",
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
		karma = 0
	}

	switch direction {
	case entities.VoteDirectionUp:
		if karma > upvoteKarmaBypass {
			return true, nil
		}
		used, err := uc.Limiter.VotesUsedInTrailing24h(ctx, userID)
		if err != nil {
			return false, err
		}
		return used < rateLimitAttemptCeiling, nil
	case entities.VoteDirectionDown:
		return karma > downvoteKarmaFloor, nil
	default:
		return false, domainerrors.ErrInvalidVoteInput
	}
}

func (uc VoteUseCase) applyToggle(
	ctx context.Context,
	comment ports.CommentProjection,
	userID string,
	direction entities.VoteDirection,
) (CastVoteResult, error) {
	now := uc.now()
	existing, found, err := uc.Votes.GetVoteByIdentity(ctx, comment.CommentID, userID)
	if err != nil {
		return CastVoteResult{}, err
	}

	var (
		outcome    entities.VoteOutcome
		vote       entities.Vote
		remove     bool
		scoreDelta int
		likesDelta int
	)
	switch {
	case !found:
		voteID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return CastVoteResult{}, err
		}
		vote = entities.Vote{
			VoteID:    voteID,
			CommentID: comment.CommentID,
			UserID:    userID,
			Direction: direction,
			CastAt:    now,
			UpdatedAt: now,
		}
		outcome = entities.VoteOutcomeApplied
		if direction == entities.VoteDirectionUp {
			scoreDelta, likesDelta = 1, 1
		} else {
			scoreDelta, likesDelta = -1, 0
		}
	case existing.Direction == direction:
		vote = existing
		remove = true
		outcome = entities.VoteOutcomeRemoved
		if direction == entities.VoteDirectionUp {
			scoreDelta, likesDelta = -1, -1
		} else {
			scoreDelta, likesDelta = 1, 0
		}
	default:
		// Flip keeps CastAt: direction changes never consume additional quota.
		vote = existing
		vote.Direction = direction
		vote.UpdatedAt = now
		outcome = entities.VoteOutcomeFlipped
		if direction == entities.VoteDirectionUp {
			scoreDelta, likesDelta = 2, 1
		} else {
			scoreDelta, likesDelta = -2, -1
		}
	}

	if err := uc.Votes.ApplyVoteMutation(ctx, ports.VoteMutation{
		Vote:            vote,
		Remove:          remove,
		CommentID:       comment.CommentID,
		ScoreDelta:      scoreDelta,
		LikesDelta:      likesDelta,
		ExpectedVersion: comment.Version,
	}); err != nil {
		return CastVoteResult{}, err
	}

	result := CastVoteResult{
		Outcome: outcome,
		Score:   comment.Score + scoreDelta,
		Likes:   comment.Likes + likesDelta,
	}
	if !remove {
		result.Vote = vote
	}
	if err := uc.appendVoteEvent(ctx, outcome, vote, result, now); err != nil {
		return CastVoteResult{}, err
	}
	return result, nil
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc VoteUseCase) appendVoteEvent(
	ctx context.Context,
	outcome entities.VoteOutcome,
	vote entities.Vote,
	result CastVoteResult,
	occurredAt time.Time,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:        eventID,
		EventType:      "vote." + string(outcome),
		SourceService:  "community-core/vote-admission-engine",
		OccurredAtUTC:  occurredAt,
		EntityType:     "comment",
		EntityID:       vote.CommentID,
		PayloadVersion: 1,
		Payload: map[string]any{
			"vote_id":    vote.VoteID,
			"comment_id": vote.CommentID,
			"user_id":    vote.UserID,
			"direction":  string(vote.Direction),
			"score":      result.Score,
			"likes":      result.Likes,
		},
	})
}
