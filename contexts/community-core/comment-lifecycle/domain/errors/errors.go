package errors

import "errors"

var (
	ErrInvalidCommentInput = errors.New("invalid comment input")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrThreadNotFound      = errors.New("thread not found")
	ErrUnauthorized        = errors.New("unauthorized comment operation")
	ErrAuthorBanned        = errors.New("author is banned")
	ErrConflict            = errors.New("comment conflict")
)
