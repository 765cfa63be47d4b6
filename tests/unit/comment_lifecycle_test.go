package unit

import (
	"context"
	"errors"
	"strings"
	"testing"

	commentlifecycle "quorum/contexts/community-core/comment-lifecycle"
	"quorum/contexts/community-core/comment-lifecycle/domain/entities"
	domainerrors "quorum/contexts/community-core/comment-lifecycle/domain/errors"
	"quorum/contexts/community-core/comment-lifecycle/ports"
	httptransport "quorum/contexts/community-core/comment-lifecycle/transport/http"
)

func newLifecycleModule() commentlifecycle.Module {
	module := commentlifecycle.NewInMemoryModule(nil, nil)
	module.Store.SetThread(ports.ThreadProjection{
		ThreadID: "thread-1",
		BoardID:  "board-1",
		AuthorID: "op-1",
	})
	return module
}

func TestCommentCreateInheritsAnonymizedFlag(t *testing.T) {
	module := newLifecycleModule()
	module.Store.SetThread(ports.ThreadProjection{
		ThreadID:        "thread-anon",
		BoardID:         "board-anon",
		AuthorID:        "op-1",
		BoardAnonymized: true,
	})
	ctx := context.Background()

	plain, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "first",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if plain.Anonymized {
		t.Fatalf("expected non-anonymized comment on plain thread")
	}

	anon, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-anon",
		Content:  "hidden",
	})
	if err != nil {
		t.Fatalf("create on anonymized board failed: %v", err)
	}
	if !anon.Anonymized {
		t.Fatalf("expected anonymized flag inherited from board")
	}
	if anon.State != string(entities.CommentStateActive) {
		t.Fatalf("expected active state, got %s", anon.State)
	}
}

func TestCommentCreateRejectsBannedAuthor(t *testing.T) {
	module := newLifecycleModule()
	module.Store.SetGloballyBanned("troll", true)
	module.Store.SetBoardBan("local-troll", "board-1", true)
	ctx := context.Background()

	_, err := module.Handler.CreateCommentHandler(ctx, "troll", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "hi",
	})
	if !errors.Is(err, domainerrors.ErrAuthorBanned) {
		t.Fatalf("expected global ban rejection, got %v", err)
	}

	_, err = module.Handler.CreateCommentHandler(ctx, "local-troll", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "hi",
	})
	if !errors.Is(err, domainerrors.ErrAuthorBanned) {
		t.Fatalf("expected board ban rejection, got %v", err)
	}
}

func TestCommentCreateRejectsParentFromOtherThread(t *testing.T) {
	module := newLifecycleModule()
	module.Store.SetThread(ports.ThreadProjection{ThreadID: "thread-2", BoardID: "board-1"})
	ctx := context.Background()

	parent, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "root",
	})
	if err != nil {
		t.Fatalf("create parent failed: %v", err)
	}

	_, err = module.Handler.CreateCommentHandler(ctx, "bob", httptransport.CreateCommentRequest{
		ThreadID: "thread-2",
		ParentID: parent.CommentID,
		Content:  "cross-thread reply",
	})
	if !errors.Is(err, domainerrors.ErrInvalidCommentInput) {
		t.Fatalf("expected cross-thread parent rejection, got %v", err)
	}
}

func TestReplyNotifiesParentAuthorButNotSelf(t *testing.T) {
	module := newLifecycleModule()
	ctx := context.Background()

	parent, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "root",
	})
	if err != nil {
		t.Fatalf("create parent failed: %v", err)
	}

	if _, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		ParentID: parent.CommentID,
		Content:  "self reply",
	}); err != nil {
		t.Fatalf("self reply failed: %v", err)
	}
	pending, err := module.Store.ListPendingNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("self reply must not notify, got %d notifications", len(pending))
	}

	if _, err := module.Handler.CreateCommentHandler(ctx, "bob", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		ParentID: parent.CommentID,
		Content:  "real reply",
	}); err != nil {
		t.Fatalf("reply failed: %v", err)
	}
	pending, err = module.Store.ListPendingNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one reply notification, got %d", len(pending))
	}
	if pending[0].ToUser != "alice" {
		t.Fatalf("expected notification to parent author, got %s", pending[0].ToUser)
	}
}

func TestCommentEditEscapesContentAndChecksAuthor(t *testing.T) {
	module := newLifecycleModule()
	ctx := context.Background()

	created, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "original",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = module.Handler.EditCommentHandler(ctx, "bob", created.CommentID, httptransport.EditCommentRequest{Content: "hijack"})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected edit by non-author rejected, got %v", err)
	}

	edited, err := module.Handler.EditCommentHandler(ctx, "alice", created.CommentID, httptransport.EditCommentRequest{Content: "<b>bold</b>"})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if !strings.Contains(edited.Content, "&lt;b&gt;") {
		t.Fatalf("expected HTML-escaped content, got %q", edited.Content)
	}
	if edited.EditedAt == nil {
		t.Fatalf("expected edited timestamp set")
	}
}

func TestAuthorDeleteWritesSentinelsWithoutNotification(t *testing.T) {
	module := newLifecycleModule()
	ctx := context.Background()

	created, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "to remove",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := module.Handler.DeleteCommentHandler(ctx, "alice", created.CommentID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted.State != string(entities.CommentStateAuthorDeleted) {
		t.Fatalf("expected author_deleted state, got %s", deleted.State)
	}
	if deleted.AuthorID != entities.DeletedAuthorSentinel {
		t.Fatalf("expected author sentinel, got %s", deleted.AuthorID)
	}
	if !strings.HasPrefix(deleted.Content, "deleted by author at ") {
		t.Fatalf("expected author deletion marker, got %q", deleted.Content)
	}

	pending, err := module.Store.ListPendingNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("author delete must not notify, got %d", len(pending))
	}
}

func TestModeratorDeleteNotifiesAuthorQuotingOriginal(t *testing.T) {
	module := newLifecycleModule()
	module.Store.SetModerator("mod-1", "board-1", true)
	ctx := context.Background()

	created, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "rule breaking text",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := module.Handler.DeleteCommentHandler(ctx, "mod-1", created.CommentID)
	if err != nil {
		t.Fatalf("moderator delete failed: %v", err)
	}
	if deleted.State != string(entities.CommentStateModeratorDeleted) {
		t.Fatalf("expected moderator_deleted state, got %s", deleted.State)
	}
	if !strings.HasPrefix(deleted.Content, "deleted by a moderator at ") {
		t.Fatalf("expected moderator deletion marker, got %q", deleted.Content)
	}

	pending, err := module.Store.ListPendingNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(pending))
	}
	note := pending[0]
	if note.ToUser != "alice" {
		t.Fatalf("expected notification to original author, got %s", note.ToUser)
	}
	if !strings.Contains(note.Body, "rule breaking text") {
		t.Fatalf("expected original content quoted, body %q", note.Body)
	}
	if !strings.Contains(note.Body, "/u/mod-1") {
		t.Fatalf("expected moderator link in body, got %q", note.Body)
	}
}

func TestDeleteWithoutCapabilityRejected(t *testing.T) {
	module := newLifecycleModule()
	ctx := context.Background()

	created, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "stays",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = module.Handler.DeleteCommentHandler(ctx, "stranger", created.CommentID)
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized delete, got %v", err)
	}
}

func TestDeletedCommentIsTerminal(t *testing.T) {
	module := newLifecycleModule()
	module.Store.SetModerator("mod-1", "board-1", true)
	ctx := context.Background()

	created, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "short lived",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := module.Handler.DeleteCommentHandler(ctx, "alice", created.CommentID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// Repeat delete is a no-op, even by a moderator; no second notification.
	again, err := module.Handler.DeleteCommentHandler(ctx, "mod-1", created.CommentID)
	if err != nil {
		t.Fatalf("repeat delete failed: %v", err)
	}
	if again.State != string(entities.CommentStateAuthorDeleted) {
		t.Fatalf("expected state unchanged, got %s", again.State)
	}
	pending, err := module.Store.ListPendingNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("repeat delete must not notify, got %d", len(pending))
	}

	_, err = module.Handler.EditCommentHandler(ctx, "alice", created.CommentID, httptransport.EditCommentRequest{Content: "undo"})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected edit of deleted comment rejected, got %v", err)
	}
	_, err = module.Handler.DistinguishCommentHandler(ctx, "alice", created.CommentID)
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected distinguish of deleted comment rejected, got %v", err)
	}
}

func TestDistinguishToggleRequiresModeratingAuthor(t *testing.T) {
	module := newLifecycleModule()
	module.Store.SetModerator("alice", "board-1", true)
	module.Store.SetModerator("mod-2", "board-1", true)
	ctx := context.Background()

	created, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "speaking as mod",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A moderator who is not the author cannot distinguish someone else's comment.
	_, err = module.Handler.DistinguishCommentHandler(ctx, "mod-2", created.CommentID)
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected non-author moderator rejected, got %v", err)
	}

	on, err := module.Handler.DistinguishCommentHandler(ctx, "alice", created.CommentID)
	if err != nil {
		t.Fatalf("distinguish failed: %v", err)
	}
	if !on.Distinguished {
		t.Fatalf("expected distinguished true after toggle")
	}
	off, err := module.Handler.DistinguishCommentHandler(ctx, "alice", created.CommentID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if off.Distinguished {
		t.Fatalf("expected double toggle to restore original value")
	}
}

func TestDistinguishWithoutModeratorRoleRejected(t *testing.T) {
	module := newLifecycleModule()
	ctx := context.Background()

	created, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "plain user comment",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err = module.Handler.DistinguishCommentHandler(ctx, "alice", created.CommentID)
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected author without role rejected, got %v", err)
	}
}

func TestModeratorCannotEditOthersComments(t *testing.T) {
	module := newLifecycleModule()
	module.Store.SetModerator("mod-1", "board-1", true)
	ctx := context.Background()

	created, err := module.Handler.CreateCommentHandler(ctx, "alice", httptransport.CreateCommentRequest{
		ThreadID: "thread-1",
		Content:  "author only",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err = module.Handler.EditCommentHandler(ctx, "mod-1", created.CommentID, httptransport.EditCommentRequest{Content: "mod edit"})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected moderator edit rejected, got %v", err)
	}
}
