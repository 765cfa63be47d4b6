package httpadapter

import (
	"context"
	"errors"
	"log/slog"

	"quorum/contexts/community-core/vote-admission-engine/application/commands"
	"quorum/contexts/community-core/vote-admission-engine/application/queries"
	"quorum/contexts/community-core/vote-admission-engine/domain/entities"
	domainerrors "quorum/contexts/community-core/vote-admission-engine/domain/errors"
	httptransport "quorum/contexts/community-core/vote-admission-engine/transport/http"
)

type Handler struct {
	Votes   commands.VoteUseCase
	Tallies queries.TallyUseCase
	Logger  *slog.Logger
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	userID string,
	commentID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		UserID:    userID,
		CommentID: commentID,
		Direction: entities.VoteDirection(req.Direction),
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	resp := httptransport.CastVoteResponse{
		Outcome:   string(result.Outcome),
		CommentID: commentID,
		Score:     result.Score,
		Likes:     result.Likes,
	}
	if result.Vote.VoteID != "" {
		resp.VoteID = result.Vote.VoteID
		resp.Direction = string(result.Vote.Direction)
	}
	return resp, nil
}

// LegacyVoteHandler preserves the historical endpoint contract: admission
// failures and unknown comments all collapse into the uniform success body.
func (h Handler) LegacyVoteHandler(
	ctx context.Context,
	userID string,
	commentID string,
	direction entities.VoteDirection,
) (httptransport.LegacyVoteResponse, error) {
	_, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		UserID:    userID,
		CommentID: commentID,
		Direction: direction,
	})
	if err != nil && !errors.Is(err, domainerrors.ErrCommentNotFound) {
		return httptransport.LegacyVoteResponse{}, err
	}
	return httptransport.LegacyVoteResponse{Message: "Voting ok"}, nil
}

func (h Handler) TallyHandler(ctx context.Context, commentID string, userID string) (httptransport.TallyResponse, error) {
	tally, err := h.Tallies.CommentTally(ctx, commentID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	resp := httptransport.TallyResponse{
		CommentID: tally.CommentID,
		Score:     tally.Score,
		Likes:     tally.Likes,
	}
	if userID != "" {
		vote, found, err := h.Tallies.UserVote(ctx, commentID, userID)
		if err != nil {
			return httptransport.TallyResponse{}, err
		}
		if found {
			resp.UserVote = string(vote.Direction)
		}
	}
	return resp, nil
}
