package search

import (
	"errors"
	"fmt"
)

// Upstream failures. Each is wrapped together with the underlying error,
// so both errors.Is checks and the full message survive.
var (
	ErrEmbeddingFailed = errors.New("embedding failed")
	ErrIndexFailed     = errors.New("vector search failed")
	ErrStoreFailed     = errors.New("metadata store failed")
	ErrLLMFailed       = errors.New("llm call failed")
)

// ValidationError reports a request parameter outside its allowed range
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a request validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is an embedding, index, store or LLM failure
func IsUpstream(err error) bool {
	return errors.Is(err, ErrEmbeddingFailed) ||
		errors.Is(err, ErrIndexFailed) ||
		errors.Is(err, ErrStoreFailed) ||
		errors.Is(err, ErrLLMFailed)
}
