package schema

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable classification surfaced at the pipeline boundary.
type ErrorKind string

const (
	ErrKindEmbedding     ErrorKind = "embedding_error"
	ErrKindGeneration    ErrorKind = "generation_error"
	ErrKindAuthorization ErrorKind = "authorization_error"
	ErrKindPersistence   ErrorKind = "persistence_error"
	ErrKindTranscription ErrorKind = "transcription_error"
	ErrKindTimeout       ErrorKind = "timeout_error"
)

// PipelineError wraps a stage failure with its kind. Enrichment failures are
// never wrapped in this type; they are swallowed at their step.
type PipelineError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at stage %s", e.Kind, e.Stage)
	}
	return fmt.Sprintf("%s at stage %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError builds a typed stage failure.
func NewPipelineError(kind ErrorKind, stage string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Err: err}
}

// KindOf extracts the error kind, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool { return KindOf(err) == kind }
