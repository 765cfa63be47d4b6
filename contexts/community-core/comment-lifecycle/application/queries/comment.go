package queries

import (
	"context"
	"strings"

	"quorum/contexts/community-core/comment-lifecycle/domain/entities"
	domainerrors "quorum/contexts/community-core/comment-lifecycle/domain/errors"
	"quorum/contexts/community-core/comment-lifecycle/ports"
)

// CommentUseCase serves read access to single comments.
type CommentUseCase struct {
	Comments ports.CommentRepository
}

func (uc CommentUseCase) GetComment(ctx context.Context, commentID string) (entities.Comment, error) {
	commentID = strings.TrimSpace(commentID)
	if commentID == "" {
		return entities.Comment{}, domainerrors.ErrInvalidCommentInput
	}
	return uc.Comments.GetComment(ctx, commentID)
}
