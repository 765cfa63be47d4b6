package services

import (
	"strings"

	"quorum/contexts/community-core/comment-lifecycle/domain/entities"
)

// BoardRoles is the actor's capability set on one board. Roles are flat
// per-board memberships, not a hierarchy.
type BoardRoles struct {
	Moderator bool
	Admin     bool
}

// Moderates reports whether the actor holds any moderating role on the board.
func (r BoardRoles) Moderates() bool {
	return r.Moderator || r.Admin
}

type DeleteCapability string

const (
	DeleteAsNone      DeleteCapability = "none"
	DeleteAsAuthor    DeleteCapability = "as_author"
	DeleteAsModerator DeleteCapability = "as_moderator"
)

// CanEdit allows edits only by the author of a non-deleted comment.
func CanEdit(actorID string, comment entities.Comment) bool {
	return !comment.Deleted() && isAuthor(actorID, comment)
}

// CanDelete resolves the actor's deletion capability. Author-delete takes
// precedence when the actor is simultaneously the author and a moderator.
func CanDelete(actorID string, roles BoardRoles, comment entities.Comment) DeleteCapability {
	if isAuthor(actorID, comment) {
		return DeleteAsAuthor
	}
	if roles.Moderates() {
		return DeleteAsModerator
	}
	return DeleteAsNone
}

// CanDistinguish allows the distinguish toggle only for the comment's author
// when that author also moderates the comment's board. It is an author
// self-action gated by moderator status, not a moderator action on others'
// comments.
func CanDistinguish(actorID string, roles BoardRoles, comment entities.Comment) bool {
	return !comment.Deleted() && isAuthor(actorID, comment) && roles.Moderates()
}

func isAuthor(actorID string, comment entities.Comment) bool {
	return strings.EqualFold(strings.TrimSpace(actorID), strings.TrimSpace(comment.AuthorID))
}
