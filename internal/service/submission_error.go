package service

import (
	"errors"
	"maps"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/projection"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/validation"
)

// fieldCorrectionMessage is shown when a collaborator rejected individual fields.
const fieldCorrectionMessage = "please correct the highlighted fields"

// SubmissionError is a save or preview failure reported by a collaborator. It is
// kept apart from the editor's own field errors. Fields holds per-field messages
// when the collaborator returned them; otherwise only Message applies.
type SubmissionError struct {
	Message string
	Fields  map[string]string
	Err     error
}

// NewSubmissionError wraps err, lifting structured per-field payloads into Fields.
func NewSubmissionError(err error) *SubmissionError {
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		return subErr
	}

	s := &SubmissionError{Message: err.Error(), Err: err}

	var valErr *validation.Error
	var respErr *projection.ResponseError
	switch {
	case errors.As(err, &valErr):
		s.Message = fieldCorrectionMessage
		s.Fields = maps.Clone(valErr.Fields)
	case errors.As(err, &respErr):
		if respErr.Message != "" {
			s.Message = respErr.Message
		}
		if len(respErr.Fields) > 0 {
			s.Fields = maps.Clone(respErr.Fields)
		}
	case errors.Is(err, apperrors.ErrPortfolioNotFound):
		s.Message = apperrors.ErrPortfolioNotFound.Error()
	}

	return s
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// HasFields reports whether the error carries per-field messages.
func (e *SubmissionError) HasFields() bool {
	return len(e.Fields) > 0
}
