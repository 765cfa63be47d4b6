package queries

import (
	"context"
	"strings"

	"quorum/contexts/community-core/vote-admission-engine/domain/entities"
	domainerrors "quorum/contexts/community-core/vote-admission-engine/domain/errors"
	"quorum/contexts/community-core/vote-admission-engine/ports"
)

// TallyUseCase serves derived vote aggregates for a comment.
type TallyUseCase struct {
	Votes ports.VoteRepository
}

// CommentTally recomputes score and likes from the stored votes. Score is the
// net of directions; likes counts up votes only.
func (uc TallyUseCase) CommentTally(ctx context.Context, commentID string) (entities.VoteTally, error) {
	commentID = strings.TrimSpace(commentID)
	if commentID == "" {
		return entities.VoteTally{}, domainerrors.ErrInvalidVoteInput
	}
	if _, err := uc.Votes.GetCommentForVoting(ctx, commentID); err != nil {
		return entities.VoteTally{}, err
	}

	votes, err := uc.Votes.ListVotesByComment(ctx, commentID)
	if err != nil {
		return entities.VoteTally{}, err
	}
	tally := entities.VoteTally{CommentID: commentID}
	for _, vote := range votes {
		if vote.Direction == entities.VoteDirectionUp {
			tally.Score++
			tally.Likes++
		} else {
			tally.Score--
		}
	}
	return tally, nil
}

// UserVote reports the caller's current vote on a comment, if any.
func (uc TallyUseCase) UserVote(ctx context.Context, commentID string, userID string) (entities.Vote, bool, error) {
	commentID = strings.TrimSpace(commentID)
	userID = strings.TrimSpace(userID)
	if commentID == "" || userID == "" {
		return entities.Vote{}, false, domainerrors.ErrInvalidVoteInput
	}
	return uc.Votes.GetVoteByIdentity(ctx, commentID, userID)
}
