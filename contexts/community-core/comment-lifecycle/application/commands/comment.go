package commands

import (
	"context"
	"html"
	"log/slog"
	"strings"
	"time"

	application "quorum/contexts/community-core/comment-lifecycle/application"
	"quorum/contexts/community-core/comment-lifecycle/domain/entities"
	domainerrors "quorum/contexts/community-core/comment-lifecycle/domain/errors"
	"quorum/contexts/community-core/comment-lifecycle/domain/services"
	"quorum/contexts/community-core/comment-lifecycle/ports"
)

// CreateCommentCommand is the write-model input for comment creation.
type CreateCommentCommand struct {
	AuthorID string
	ThreadID string
	ParentID string
	Content  string
}

// EditCommentCommand replaces a comment's content on behalf of its author.
type EditCommentCommand struct {
	ActorID   string
	CommentID string
	Content   string
}

// DeleteCommentCommand soft-deletes a comment as author or moderator.
type DeleteCommentCommand struct {
	ActorID   string
	CommentID string
}

// DistinguishCommentCommand toggles the distinguished marker.
type DistinguishCommentCommand struct {
	ActorID   string
	CommentID string
}

// CommentUseCase drives the comment state machine:
// Active → {AuthorDeleted, ModeratorDeleted}, with edits and the distinguish
// toggle permitted only while active. Every transition consults the
// authorization gate; moderator deletions enqueue exactly one notification to
// the original author.
type CommentUseCase struct {
	Comments      ports.CommentRepository
	Users         ports.UserStatus
	Roles         ports.RoleProvider
	Content       ports.ContentProcessor
	Notifications ports.NotificationOutbox
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	// ServiceUser is the sender name on system notifications.
	ServiceUser string
	Logger      *slog.Logger
}

// CreateComment persists a new comment after ban checks, inheriting the
// anonymized flag from the parent thread or its board, and enqueues a reply
// notification to the parent comment's author for non-root comments.
func (uc CommentUseCase) CreateComment(ctx context.Context, cmd CreateCommentCommand) (entities.Comment, error) {
	logger := application.ResolveLogger(uc.Logger)
	authorID := strings.TrimSpace(cmd.AuthorID)
	threadID := strings.TrimSpace(cmd.ThreadID)
	parentID := strings.TrimSpace(cmd.ParentID)
	if authorID == "" || threadID == "" || strings.TrimSpace(cmd.Content) == "" {
		return entities.Comment{}, domainerrors.ErrInvalidCommentInput
	}

	thread, err := uc.Comments.GetThread(ctx, threadID)
	if err != nil {
		return entities.Comment{}, err
	}

	if banned, err := uc.authorBanned(ctx, authorID, thread.BoardID); err != nil {
		return entities.Comment{}, err
	} else if banned {
		logger.Info("comment create rejected for banned author",
			"event", "comment_create_author_banned",
			"module", "community-core/comment-lifecycle",
			"layer", "application",
			"author_id", authorID,
			"board_id", thread.BoardID,
		)
		return entities.Comment{}, domainerrors.ErrAuthorBanned
	}

	var parent *entities.Comment
	if parentID != "" {
		found, err := uc.Comments.GetComment(ctx, parentID)
		if err != nil {
			return entities.Comment{}, err
		}
		if found.ThreadID != threadID {
			return entities.Comment{}, domainerrors.ErrInvalidCommentInput
		}
		parent = &found
	}

	now := uc.now()
	commentID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Comment{}, err
	}
	comment := entities.Comment{
		CommentID:  commentID,
		ThreadID:   threadID,
		BoardID:    thread.BoardID,
		AuthorID:   authorID,
		Content:    cmd.Content,
		Anonymized: thread.Anonymized || thread.BoardAnonymized,
		State:      entities.CommentStateActive,
		CreatedAt:  now,
	}
	if parent != nil {
		id := parent.CommentID
		comment.ParentID = &id
	}

	if err := uc.runStage(ctx, ports.StagePreSave, &comment); err != nil {
		return entities.Comment{}, err
	}
	if err := uc.Comments.SaveComment(ctx, comment); err != nil {
		return entities.Comment{}, err
	}
	uc.runPostSave(ctx, &comment)
	uc.enqueueReplyNotification(ctx, comment, parent, now)

	logger.Info("comment created",
		"event", "comment_created",
		"module", "community-core/comment-lifecycle",
		"layer", "application",
		"comment_id", comment.CommentID,
		"thread_id", comment.ThreadID,
		"board_id", comment.BoardID,
		"author_id", comment.AuthorID,
		"anonymized", comment.Anonymized,
		"root", comment.ParentID == nil,
	)
	return comment, nil
}

// EditComment replaces the content of the actor's own comment. Content is
// HTML-escaped before the pre-save hook, matching the legacy pipeline.
func (uc CommentUseCase) EditComment(ctx context.Context, cmd EditCommentCommand) (entities.Comment, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	commentID := strings.TrimSpace(cmd.CommentID)
	if actorID == "" || commentID == "" || strings.TrimSpace(cmd.Content) == "" {
		return entities.Comment{}, domainerrors.ErrInvalidCommentInput
	}

	comment, err := uc.Comments.GetComment(ctx, commentID)
	if err != nil {
		return entities.Comment{}, err
	}
	if !services.CanEdit(actorID, comment) {
		logger.Warn("comment edit denied",
			"event", "comment_edit_denied",
			"module", "community-core/comment-lifecycle",
			"layer", "application",
			"comment_id", commentID,
			"actor_id", actorID,
		)
		return entities.Comment{}, domainerrors.ErrUnauthorized
	}

	now := uc.now()
	comment.Content = html.EscapeString(cmd.Content)
	comment.EditedAt = &now
	if err := uc.runStage(ctx, ports.StagePreSave, &comment); err != nil {
		return entities.Comment{}, err
	}
	if err := uc.Comments.SaveComment(ctx, comment); err != nil {
		return entities.Comment{}, err
	}
	uc.runPostSave(ctx, &comment)

	logger.Info("comment edited",
		"event", "comment_edited",
		"module", "community-core/comment-lifecycle",
		"layer", "application",
		"comment_id", comment.CommentID,
		"actor_id", actorID,
	)
	return comment, nil
}

// DeleteComment soft-deletes a comment. Authors overwrite their own comment;
// moderators additionally trigger a notification to the original author
// quoting the removed content. Deleting an already-deleted comment is a
// no-op. The overwrite keeps id, parent, and thread/board linkage intact.
func (uc CommentUseCase) DeleteComment(ctx context.Context, cmd DeleteCommentCommand) (entities.Comment, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	commentID := strings.TrimSpace(cmd.CommentID)
	if actorID == "" || commentID == "" {
		return entities.Comment{}, domainerrors.ErrInvalidCommentInput
	}

	comment, err := uc.Comments.GetComment(ctx, commentID)
	if err != nil {
		return entities.Comment{}, err
	}
	if comment.Deleted() {
		return comment, nil
	}

	roles, err := uc.boardRoles(ctx, actorID, comment.BoardID)
	if err != nil {
		return entities.Comment{}, err
	}

	now := uc.now()
	switch services.CanDelete(actorID, roles, comment) {
	case services.DeleteAsAuthor:
		comment.AuthorID = entities.DeletedAuthorSentinel
		comment.Content = entities.AuthorDeletionMarker(now)
		comment.State = entities.CommentStateAuthorDeleted
	case services.DeleteAsModerator:
		uc.enqueueModeratorDeletionNotification(ctx, comment, actorID, now)
		comment.AuthorID = entities.DeletedAuthorSentinel
		comment.Content = entities.ModeratorDeletionMarker(now)
		comment.State = entities.CommentStateModeratorDeleted
	default:
		logger.Warn("comment delete denied",
			"event", "comment_delete_denied",
			"module", "community-core/comment-lifecycle",
			"layer", "application",
			"comment_id", commentID,
			"actor_id", actorID,
		)
		return entities.Comment{}, domainerrors.ErrUnauthorized
	}

	if err := uc.Comments.SaveComment(ctx, comment); err != nil {
		return entities.Comment{}, err
	}
	logger.Info("comment deleted",
		"event", "comment_deleted",
		"module", "community-core/comment-lifecycle",
		"layer", "application",
		"comment_id", comment.CommentID,
		"actor_id", actorID,
		"state", string(comment.State),
	)
	return comment, nil
}

// DistinguishComment flips the distinguished marker. Only the author may
// distinguish, and only while moderating the comment's board; double-apply
// restores the original value.
func (uc CommentUseCase) DistinguishComment(ctx context.Context, cmd DistinguishCommentCommand) (entities.Comment, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	commentID := strings.TrimSpace(cmd.CommentID)
	if actorID == "" || commentID == "" {
		return entities.Comment{}, domainerrors.ErrInvalidCommentInput
	}

	comment, err := uc.Comments.GetComment(ctx, commentID)
	if err != nil {
		return entities.Comment{}, err
	}
	roles, err := uc.boardRoles(ctx, actorID, comment.BoardID)
	if err != nil {
		return entities.Comment{}, err
	}
	if !services.CanDistinguish(actorID, roles, comment) {
		logger.Warn("comment distinguish denied",
			"event", "comment_distinguish_denied",
			"module", "community-core/comment-lifecycle",
			"layer", "application",
			"comment_id", commentID,
			"actor_id", actorID,
		)
		return entities.Comment{}, domainerrors.ErrUnauthorized
	}

	comment.Distinguished = !comment.Distinguished
	if err := uc.Comments.SaveComment(ctx, comment); err != nil {
		return entities.Comment{}, err
	}
	logger.Info("comment distinguish toggled",
		"event", "comment_distinguish_toggled",
		"module", "community-core/comment-lifecycle",
		"layer", "application",
		"comment_id", comment.CommentID,
		"actor_id", actorID,
		"distinguished", comment.Distinguished,
	)
	return comment, nil
}

func (uc CommentUseCase) authorBanned(ctx context.Context, userID string, boardID string) (bool, error) {
	if uc.Users == nil {
		return false, nil
	}
	banned, err := uc.Users.IsGloballyBanned(ctx, userID)
	if err != nil {
		return false, err
	}
	if banned {
		return true, nil
	}
	return uc.Users.IsBannedFromBoard(ctx, userID, boardID)
}

func (uc CommentUseCase) boardRoles(ctx context.Context, userID string, boardID string) (services.BoardRoles, error) {
	moderator, err := uc.Roles.IsModerator(ctx, userID, boardID)
	if err != nil {
		return services.BoardRoles{}, err
	}
	admin, err := uc.Roles.IsAdmin(ctx, userID, boardID)
	if err != nil {
		return services.BoardRoles{}, err
	}
	return services.BoardRoles{Moderator: moderator, Admin: admin}, nil
}

func (uc CommentUseCase) runStage(ctx context.Context, stage ports.ProcessingStage, comment *entities.Comment) error {
	if uc.Content == nil || !uc.Content.HasStage(stage) {
		return nil
	}
	processed, err := uc.Content.Process(ctx, comment.Content, stage, comment)
	if err != nil {
		return err
	}
	comment.Content = processed
	return nil
}

// runPostSave runs the post-save hook for side effects only; failures are
// logged and never unwind an already-persisted comment.
func (uc CommentUseCase) runPostSave(ctx context.Context, comment *entities.Comment) {
	if uc.Content == nil || !uc.Content.HasStage(ports.StagePostSave) {
		return
	}
	if _, err := uc.Content.Process(ctx, comment.Content, ports.StagePostSave, comment); err != nil {
		application.ResolveLogger(uc.Logger).Warn("post-save content hook failed",
			"event", "comment_post_save_hook_failed",
			"module", "community-core/comment-lifecycle",
			"layer", "application",
			"comment_id", comment.CommentID,
			"error", err.Error(),
		)
	}
}

// enqueueReplyNotification notifies the parent comment's author of a reply.
// Self-replies and replies to deleted parents produce nothing. Enqueue
// failures are logged; comment creation never rolls back for them.
func (uc CommentUseCase) enqueueReplyNotification(
	ctx context.Context,
	comment entities.Comment,
	parent *entities.Comment,
	now time.Time,
) {
	if uc.Notifications == nil || parent == nil || parent.Deleted() {
		return
	}
	if strings.EqualFold(strings.TrimSpace(parent.AuthorID), strings.TrimSpace(comment.AuthorID)) {
		return
	}
	body := "There is a [reply](" + commentPath(comment) + ") to your comment."
	uc.enqueue(ctx, entities.Notification{
		FromUser:  uc.serviceUser(),
		ToUser:    parent.AuthorID,
		Subject:   "You have a new comment reply",
		Body:      body,
		CreatedAt: now,
	}, comment.CommentID)
}

// enqueueModeratorDeletionNotification quotes the original content verbatim
// before the sentinel overwrite happens.
func (uc CommentUseCase) enqueueModeratorDeletionNotification(
	ctx context.Context,
	comment entities.Comment,
	moderatorID string,
	now time.Time,
) {
	if uc.Notifications == nil {
		return
	}
	body := "Your [comment](" + commentPath(comment) + ") has been deleted by: " +
		"[" + moderatorID + "](/u/" + moderatorID + ") on: " + now.UTC().Format(time.RFC3339) + "  \n" +
		"Original comment content was:  \n" +
		"---  \n" +
		comment.Content
	uc.enqueue(ctx, entities.Notification{
		FromUser:  uc.serviceUser(),
		ToUser:    comment.AuthorID,
		Subject:   "Your comment has been deleted by a moderator",
		Body:      body,
		CreatedAt: now,
	}, comment.CommentID)
}

func (uc CommentUseCase) enqueue(ctx context.Context, notification entities.Notification, commentID string) {
	logger := application.ResolveLogger(uc.Logger)
	id, err := uc.IDGen.NewID(ctx)
	if err == nil {
		notification.NotificationID = id
		err = uc.Notifications.EnqueueNotification(ctx, notification)
	}
	if err != nil {
		logger.Warn("notification enqueue failed",
			"event", "comment_notification_enqueue_failed",
			"module", "community-core/comment-lifecycle",
			"layer", "application",
			"comment_id", commentID,
			"to_user", notification.ToUser,
			"error", err.Error(),
		)
	}
}

func (uc CommentUseCase) serviceUser() string {
	if strings.TrimSpace(uc.ServiceUser) == "" {
		return "quorum"
	}
	return uc.ServiceUser
}

func (uc CommentUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func commentPath(comment entities.Comment) string {
	return "/v/" + comment.BoardID + "/comments/" + comment.ThreadID + "/" + comment.CommentID
}
