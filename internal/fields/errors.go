package fields

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed reports input that is not a well-formed payload object.
	ErrMalformed = errors.New("malformed payload")
	// ErrTooManyTokens reports input that needs more than MaxTokens spans.
	ErrTooManyTokens = errors.New("payload exceeds token capacity")
)

// SyntaxError describes where tokenizing stopped.
type SyntaxError struct {
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", ErrMalformed, e.Offset, e.Reason)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformed
}

func syntaxErr(offset int, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
