package unit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	voteadmission "quorum/contexts/community-core/vote-admission-engine"
	"quorum/contexts/community-core/vote-admission-engine/domain/entities"
	domainerrors "quorum/contexts/community-core/vote-admission-engine/domain/errors"
	"quorum/contexts/community-core/vote-admission-engine/ports"
	httptransport "quorum/contexts/community-core/vote-admission-engine/transport/http"
)

func seedComment(module voteadmission.Module, commentID string, score int, likes int) {
	module.Store.SetComment(ports.CommentProjection{
		CommentID: commentID,
		ThreadID:  "thread-1",
		BoardID:   "board-1",
		AuthorID:  "author-1",
		Score:     score,
		Likes:     likes,
	})
}

func TestVoteUpThenFlipDownArithmetic(t *testing.T) {
	module := voteadmission.NewInMemoryModule(nil, nil)
	seedComment(module, "comment-1", 5, 5)
	module.Store.SetKarma("voter-1", 150)
	ctx := context.Background()

	up, err := module.Handler.CastVoteHandler(ctx, "voter-1", "comment-1", httptransport.CastVoteRequest{Direction: "up"})
	if err != nil {
		t.Fatalf("up vote failed: %v", err)
	}
	if up.Outcome != string(entities.VoteOutcomeApplied) {
		t.Fatalf("expected applied outcome, got %s", up.Outcome)
	}
	if up.Score != 6 || up.Likes != 6 {
		t.Fatalf("expected score 6 likes 6 after up vote, got %d/%d", up.Score, up.Likes)
	}

	down, err := module.Handler.CastVoteHandler(ctx, "voter-1", "comment-1", httptransport.CastVoteRequest{Direction: "down"})
	if err != nil {
		t.Fatalf("flip to down failed: %v", err)
	}
	if down.Outcome != string(entities.VoteOutcomeFlipped) {
		t.Fatalf("expected flipped outcome, got %s", down.Outcome)
	}
	if down.Score != 4 || down.Likes != 5 {
		t.Fatalf("expected score 4 likes 5 after flip, got %d/%d", down.Score, down.Likes)
	}
}

func TestVoteToggleOffRestoresAggregate(t *testing.T) {
	module := voteadmission.NewInMemoryModule(nil, nil)
	seedComment(module, "comment-1", 5, 5)
	module.Store.SetKarma("voter-1", 50)
	ctx := context.Background()

	if _, err := module.Handler.CastVoteHandler(ctx, "voter-1", "comment-1", httptransport.CastVoteRequest{Direction: "up"}); err != nil {
		t.Fatalf("up vote failed: %v", err)
	}
	second, err := module.Handler.CastVoteHandler(ctx, "voter-1", "comment-1", httptransport.CastVoteRequest{Direction: "up"})
	if err != nil {
		t.Fatalf("toggle off failed: %v", err)
	}
	if second.Outcome != string(entities.VoteOutcomeRemoved) {
		t.Fatalf("expected removed outcome, got %s", second.Outcome)
	}
	if second.Score != 5 || second.Likes != 5 {
		t.Fatalf("expected aggregate restored to 5/5, got %d/%d", second.Score, second.Likes)
	}

	if _, found, err := module.Tallies.UserVote(ctx, "comment-1", "voter-1"); err != nil {
		t.Fatalf("user vote lookup failed: %v", err)
	} else if found {
		t.Fatalf("expected vote row removed after toggle off")
	}
}

func TestDownVoteRequiresKarmaAboveFloor(t *testing.T) {
	module := voteadmission.NewInMemoryModule(nil, nil)
	seedComment(module, "comment-1", 0, 0)
	module.Store.SetKarma("voter-low", 100)
	module.Store.SetKarma("voter-high", 101)
	ctx := context.Background()

	denied, err := module.Handler.CastVoteHandler(ctx, "voter-low", "comment-1", httptransport.CastVoteRequest{Direction: "down"})
	if err != nil {
		t.Fatalf("down vote at floor failed: %v", err)
	}
	if denied.Outcome != string(entities.VoteOutcomeNotAdmitted) {
		t.Fatalf("expected not_admitted at karma 100, got %s", denied.Outcome)
	}
	if denied.Score != 0 || denied.Likes != 0 {
		t.Fatalf("expected aggregate untouched on denial, got %d/%d", denied.Score, denied.Likes)
	}

	admitted, err := module.Handler.CastVoteHandler(ctx, "voter-high", "comment-1", httptransport.CastVoteRequest{Direction: "down"})
	if err != nil {
		t.Fatalf("down vote above floor failed: %v", err)
	}
	if admitted.Outcome != string(entities.VoteOutcomeApplied) {
		t.Fatalf("expected applied at karma 101, got %s", admitted.Outcome)
	}
	if admitted.Score != -1 || admitted.Likes != 0 {
		t.Fatalf("expected score -1 likes 0 after down vote, got %d/%d", admitted.Score, admitted.Likes)
	}
}

func TestLowKarmaUpVotesHitTrailingWindowQuota(t *testing.T) {
	module := voteadmission.NewInMemoryModule(nil, nil)
	module.Store.SetKarma("voter-1", 5)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	module.Store.SetNow(func() time.Time { return base })
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		commentID := fmt.Sprintf("comment-%d", i)
		seedComment(module, commentID, 0, 0)
		resp, err := module.Handler.CastVoteHandler(ctx, "voter-1", commentID, httptransport.CastVoteRequest{Direction: "up"})
		if err != nil {
			t.Fatalf("cast %d failed: %v", i, err)
		}
		if resp.Outcome != string(entities.VoteOutcomeApplied) {
			t.Fatalf("expected cast %d admitted, got %s", i, resp.Outcome)
		}
	}

	seedComment(module, "comment-over", 0, 0)
	over, err := module.Handler.CastVoteHandler(ctx, "voter-1", "comment-over", httptransport.CastVoteRequest{Direction: "up"})
	if err != nil {
		t.Fatalf("cast over quota failed: %v", err)
	}
	if over.Outcome != string(entities.VoteOutcomeNotAdmitted) {
		t.Fatalf("expected quota rejection, got %s", over.Outcome)
	}

	// The window trails: once the stored casts age out, voting resumes.
	module.Store.SetNow(func() time.Time { return base.Add(25 * time.Hour) })
	later, err := module.Handler.CastVoteHandler(ctx, "voter-1", "comment-over", httptransport.CastVoteRequest{Direction: "up"})
	if err != nil {
		t.Fatalf("cast after window failed: %v", err)
	}
	if later.Outcome != string(entities.VoteOutcomeApplied) {
		t.Fatalf("expected admission after window expiry, got %s", later.Outcome)
	}
}

func TestVoteFlipDoesNotConsumeQuota(t *testing.T) {
	module := voteadmission.NewInMemoryModule(nil, nil)
	module.Store.SetKarma("voter-1", 200)
	seedComment(module, "comment-1", 0, 0)
	ctx := context.Background()
	since := time.Now().UTC().Add(-24 * time.Hour)

	if _, err := module.Handler.CastVoteHandler(ctx, "voter-1", "comment-1", httptransport.CastVoteRequest{Direction: "up"}); err != nil {
		t.Fatalf("up vote failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "voter-1", "comment-1", httptransport.CastVoteRequest{Direction: "down"}); err != nil {
		t.Fatalf("flip failed: %v", err)
	}

	used, err := module.Store.CountVotesCastSince(ctx, "voter-1", since)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if used != 1 {
		t.Fatalf("a flip reuses the stored vote row, counted %d casts", used)
	}

	// Toggling the down vote off removes the row and refunds the slot.
	if _, err := module.Handler.CastVoteHandler(ctx, "voter-1", "comment-1", httptransport.CastVoteRequest{Direction: "down"}); err != nil {
		t.Fatalf("toggle off failed: %v", err)
	}
	used, err = module.Store.CountVotesCastSince(ctx, "voter-1", since)
	if err != nil {
		t.Fatalf("count after removal failed: %v", err)
	}
	if used != 0 {
		t.Fatalf("toggle-off must refund the quota slot, counted %d casts", used)
	}
}

func TestVoteOnUnknownCommentFails(t *testing.T) {
	module := voteadmission.NewInMemoryModule(nil, nil)
	module.Store.SetKarma("voter-1", 50)

	_, err := module.Handler.CastVoteHandler(context.Background(), "voter-1", "missing", httptransport.CastVoteRequest{Direction: "up"})
	if !errors.Is(err, domainerrors.ErrCommentNotFound) {
		t.Fatalf("expected comment not found, got %v", err)
	}
}

func TestVoteOnDeletedCommentFails(t *testing.T) {
	module := voteadmission.NewInMemoryModule(nil, nil)
	module.Store.SetComment(ports.CommentProjection{
		CommentID: "comment-1",
		Deleted:   true,
	})
	module.Store.SetKarma("voter-1", 50)

	_, err := module.Handler.CastVoteHandler(context.Background(), "voter-1", "comment-1", httptransport.CastVoteRequest{Direction: "up"})
	if !errors.Is(err, domainerrors.ErrCommentNotFound) {
		t.Fatalf("expected comment not found for deleted comment, got %v", err)
	}
}

func TestVoteInvalidDirectionRejected(t *testing.T) {
	module := voteadmission.NewInMemoryModule(nil, nil)
	seedComment(module, "comment-1", 0, 0)

	_, err := module.Handler.CastVoteHandler(context.Background(), "voter-1", "comment-1", httptransport.CastVoteRequest{Direction: "sideways"})
	if !errors.Is(err, domainerrors.ErrInvalidVoteInput) {
		t.Fatalf("expected invalid vote input, got %v", err)
	}
}

func TestLegacyVoteCollapsesOutcomes(t *testing.T) {
	module := voteadmission.NewInMemoryModule(nil, nil)
	seedComment(module, "comment-1", 0, 0)
	module.Store.SetKarma("voter-low", 0)
	ctx := context.Background()

	// Unknown comment, denied vote, and admitted vote all report the same body.
	unknown, err := module.Handler.LegacyVoteHandler(ctx, "voter-low", "missing", entities.VoteDirectionUp)
	if err != nil {
		t.Fatalf("legacy vote on unknown comment failed: %v", err)
	}
	denied, err := module.Handler.LegacyVoteHandler(ctx, "voter-low", "comment-1", entities.VoteDirectionDown)
	if err != nil {
		t.Fatalf("legacy denied vote failed: %v", err)
	}
	admitted, err := module.Handler.LegacyVoteHandler(ctx, "voter-low", "comment-1", entities.VoteDirectionUp)
	if err != nil {
		t.Fatalf("legacy admitted vote failed: %v", err)
	}
	for _, resp := range []httptransport.LegacyVoteResponse{unknown, denied, admitted} {
		if resp.Message != "Voting ok" {
			t.Fatalf("expected uniform success body, got %q", resp.Message)
		}
	}
}

func TestTallyRecomputesFromVotes(t *testing.T) {
	module := voteadmission.NewInMemoryModule(nil, nil)
	seedComment(module, "comment-1", 0, 0)
	module.Store.SetKarma("voter-1", 50)
	module.Store.SetKarma("voter-2", 50)
	module.Store.SetKarma("voter-3", 200)
	ctx := context.Background()

	for _, voter := range []string{"voter-1", "voter-2"} {
		if _, err := module.Handler.CastVoteHandler(ctx, voter, "comment-1", httptransport.CastVoteRequest{Direction: "up"}); err != nil {
			t.Fatalf("up vote by %s failed: %v", voter, err)
		}
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "voter-3", "comment-1", httptransport.CastVoteRequest{Direction: "down"}); err != nil {
		t.Fatalf("down vote failed: %v", err)
	}

	resp, err := module.Handler.TallyHandler(ctx, "comment-1", "voter-3")
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if resp.Score != 1 || resp.Likes != 2 {
		t.Fatalf("expected score 1 likes 2, got %d/%d", resp.Score, resp.Likes)
	}
	if resp.UserVote != "down" {
		t.Fatalf("expected caller's vote down, got %q", resp.UserVote)
	}
}
