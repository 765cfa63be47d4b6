package httpadapter

import (
	"context"
	"log/slog"

	"quorum/contexts/community-core/comment-lifecycle/application/commands"
	"quorum/contexts/community-core/comment-lifecycle/application/queries"
	"quorum/contexts/community-core/comment-lifecycle/domain/entities"
	httptransport "quorum/contexts/community-core/comment-lifecycle/transport/http"
)

type Handler struct {
	Commands commands.CommentUseCase
	Queries  queries.CommentUseCase
	Logger   *slog.Logger
}

func (h Handler) CreateCommentHandler(
	ctx context.Context,
	userID string,
	req httptransport.CreateCommentRequest,
) (httptransport.CommentResponse, error) {
	comment, err := h.Commands.CreateComment(ctx, commands.CreateCommentCommand{
		AuthorID: userID,
		ThreadID: req.ThreadID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return httptransport.CommentResponse{}, err
	}
	return toCommentResponse(comment), nil
}

func (h Handler) EditCommentHandler(
	ctx context.Context,
	userID string,
	commentID string,
	req httptransport.EditCommentRequest,
) (httptransport.CommentResponse, error) {
	comment, err := h.Commands.EditComment(ctx, commands.EditCommentCommand{
		ActorID:   userID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return httptransport.CommentResponse{}, err
	}
	return toCommentResponse(comment), nil
}

func (h Handler) DeleteCommentHandler(
	ctx context.Context,
	userID string,
	commentID string,
) (httptransport.CommentResponse, error) {
	comment, err := h.Commands.DeleteComment(ctx, commands.DeleteCommentCommand{
		ActorID:   userID,
		CommentID: commentID,
	})
	if err != nil {
		return httptransport.CommentResponse{}, err
	}
	return toCommentResponse(comment), nil
}

func (h Handler) DistinguishCommentHandler(
	ctx context.Context,
	userID string,
	commentID string,
) (httptransport.CommentResponse, error) {
	comment, err := h.Commands.DistinguishComment(ctx, commands.DistinguishCommentCommand{
		ActorID:   userID,
		CommentID: commentID,
	})
	if err != nil {
		return httptransport.CommentResponse{}, err
	}
	return toCommentResponse(comment), nil
}

func (h Handler) GetCommentHandler(ctx context.Context, commentID string) (httptransport.CommentResponse, error) {
	comment, err := h.Queries.GetComment(ctx, commentID)
	if err != nil {
		return httptransport.CommentResponse{}, err
	}
	return toCommentResponse(comment), nil
}

func toCommentResponse(comment entities.Comment) httptransport.CommentResponse {
	resp := httptransport.CommentResponse{
		CommentID:     comment.CommentID,
		ThreadID:      comment.ThreadID,
		BoardID:       comment.BoardID,
		AuthorID:      comment.AuthorID,
		Content:       comment.Content,
		Score:         comment.Score,
		Likes:         comment.Likes,
		Anonymized:    comment.Anonymized,
		Distinguished: comment.Distinguished,
		State:         string(comment.State),
		CreatedAt:     comment.CreatedAt,
		EditedAt:      comment.EditedAt,
	}
	if comment.ParentID != nil {
		resp.ParentID = *comment.ParentID
	}
	return resp
}
