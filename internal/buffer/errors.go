package buffer

import "errors"

// Errors returned by the Manager. All of them indicate a caller bug.
var (
	ErrEmptyTitle      = errors.New("buffer title must not be empty")
	ErrDuplicateTitle  = errors.New("duplicate buffer title")
	ErrBufferNotFound  = errors.New("buffer not on stack")
	ErrPromptActive    = errors.New("a prompt is already active")
	ErrQuestionTooLong = errors.New("question too long")
)
