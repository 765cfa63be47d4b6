package errors

import "errors"

var (
	ErrInvalidVoteInput       = errors.New("invalid vote input")
	ErrCommentNotFound        = errors.New("comment not found")
	ErrVoteNotFound           = errors.New("vote not found")
	ErrConcurrentModification = errors.New("concurrent comment modification")
	ErrConflict               = errors.New("vote conflict")
)
