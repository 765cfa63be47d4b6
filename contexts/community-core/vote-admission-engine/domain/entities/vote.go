package entities

import "time"

type VoteDirection string

const (
	VoteDirectionUp   VoteDirection = "up"
	VoteDirectionDown VoteDirection = "down"
)

func ParseVoteDirection(raw string) (VoteDirection, bool) {
	switch raw {
	case string(VoteDirectionUp):
		return VoteDirectionUp, true
	case string(VoteDirectionDown):
		return VoteDirectionDown, true
	default:
		return "", false
	}
}

// Vote is the durable record of one user's vote on one comment. At most one
// vote exists per (comment_id, user_id) pair; toggle-off removes the row.
// CastAt is set on creation and survives direction flips, so the trailing
// quota window counts each stored vote once.
type Vote struct {
	VoteID    string
	CommentID string
	UserID    string
	Direction VoteDirection
	CastAt    time.Time
	UpdatedAt time.Time
}

// VoteOutcome is the admission engine's verdict for a cast attempt.
type VoteOutcome string

const (
	// VoteOutcomeApplied means a new vote row was created.
	VoteOutcomeApplied VoteOutcome = "applied"
	// VoteOutcomeFlipped means an existing opposite vote changed direction.
	VoteOutcomeFlipped VoteOutcome = "flipped"
	// VoteOutcomeRemoved means a same-direction cast toggled the vote off.
	VoteOutcomeRemoved VoteOutcome = "removed"
	// VoteOutcomeNotAdmitted means the karma/rate-limit gate rejected the
	// attempt and no state changed.
	VoteOutcomeNotAdmitted VoteOutcome = "not_admitted"
)

// VoteTally is the derived voting aggregate of a single comment. Score is the
// net of up and down votes; Likes counts up votes only and is never
// decremented by a fresh down vote.
type VoteTally struct {
	CommentID string
	Score     int
	Likes     int
}
