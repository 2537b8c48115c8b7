package service

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/planner"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/validation"
)

// EditorState is the lifecycle position of an editing session.
type EditorState int

const (
	// EditorEmpty is a new session nobody has touched yet.
	EditorEmpty EditorState = iota
	// EditorDirty is a draft that changed and has not been validated yet.
	EditorDirty
	// EditorValid is a draft whose last validation produced a canonical change.
	EditorValid
	// EditorInvalid is a draft with field errors.
	EditorInvalid
	// EditorSubmitting is a draft being saved; it cannot change until the save returns.
	EditorSubmitting
	// EditorSaved is a draft that was saved and not changed since.
	EditorSaved
	// EditorSubmitFailed is a valid draft whose save failed; see SubmissionError.
	EditorSubmitFailed
)

var editorStateNames = map[EditorState]string{
	EditorEmpty:        "empty",
	EditorDirty:        "dirty",
	EditorValid:        "valid",
	EditorInvalid:      "invalid",
	EditorSubmitting:   "submitting",
	EditorSaved:        "saved",
	EditorSubmitFailed: "submit_failed",
}

func (s EditorState) String() string {
	if name, ok := editorStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Saver persists a canonical planned change.
type Saver interface {
	Save(ctx context.Context, spec planner.ChangeSpec) (model.PlannedChangeRecord, error)
}

// Previewer projects an unsaved planned change.
type Previewer interface {
	Preview(ctx context.Context, pc model.PlannedChange) (model.Projection, error)
}

// Editor owns the draft of one planned change for the length of an editing session.
// Every change to the draft is validated immediately. At most one save runs at a
// time, and only the newest preview request is answered; older results are
// discarded when they arrive.
//
// Editor is safe for concurrent use.
type Editor struct {
	mu        sync.Mutex
	draft     *planner.Draft
	validator validation.PlannedChangeValidator
	saver     Saver
	previewer Previewer

	state       EditorState
	spec        planner.ChangeSpec
	fieldErrors map[string]string
	submitErr   *SubmissionError
	saved       *model.PlannedChangeRecord

	// previewToken increases with every preview request and every draft change.
	previewToken uint64
}

// NewEditor starts a session on draft. A draft that already has an ID was
// hydrated from a saved change and is validated right away; a new one starts Empty.
// previewer may be nil, in which case Preview returns ErrProjectionUnavailable.
func NewEditor(draft *planner.Draft, validator validation.PlannedChangeValidator, saver Saver, previewer Previewer) *Editor {
	e := &Editor{
		draft:       draft,
		validator:   validator,
		saver:       saver,
		previewer:   previewer,
		state:       EditorEmpty,
		fieldErrors: map[string]string{},
	}
	if draft.ID() != "" {
		e.state = EditorDirty
		e.revalidate()
	}
	return e
}

// Update applies fn to the draft and revalidates it. It fails with
// ErrSubmitInFlight while a save is pending, leaving the draft untouched.
// A previous submission error is cleared and pending previews become stale.
func (e *Editor) Update(fn func(d *planner.Draft)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == EditorSubmitting {
		return apperrors.ErrSubmitInFlight
	}

	fn(e.draft)
	e.state = EditorDirty
	e.submitErr = nil
	e.saved = nil
	e.previewToken++
	e.revalidate()
	return nil
}

// revalidate runs the builder and validator over the draft. Callers hold mu.
func (e *Editor) revalidate() {
	spec, err := e.validator.Validate(planner.Build(e.draft))

	var valErr *validation.Error
	if errors.As(err, &valErr) {
		e.spec = planner.ChangeSpec{}
		e.fieldErrors = maps.Clone(valErr.Fields)
		e.state = EditorInvalid
		return
	}
	e.spec = spec
	e.fieldErrors = map[string]string{}
	e.state = EditorValid
}

// Submit saves the canonical change. Only a Valid draft, or one whose previous
// save failed, can be submitted; anything else returns ErrNotSubmittable, and a
// second Submit while one is pending returns ErrSubmitInFlight. A failed save
// returns a *SubmissionError and leaves the draft intact for a retry.
func (e *Editor) Submit(ctx context.Context) (model.PlannedChangeRecord, error) {
	e.mu.Lock()
	switch e.state {
	case EditorSubmitting:
		e.mu.Unlock()
		return model.PlannedChangeRecord{}, apperrors.ErrSubmitInFlight
	case EditorValid, EditorSubmitFailed:
	default:
		e.mu.Unlock()
		return model.PlannedChangeRecord{}, apperrors.ErrNotSubmittable
	}
	e.state = EditorSubmitting
	e.submitErr = nil
	spec := e.spec
	e.mu.Unlock()

	rec, err := e.saver.Save(ctx, spec)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = EditorSubmitFailed
		e.submitErr = NewSubmissionError(err)
		return model.PlannedChangeRecord{}, e.submitErr
	}
	e.state = EditorSaved
	e.saved = &rec
	e.draft.SetID(rec.ID)
	e.spec.ID = rec.ID
	return rec, nil
}

// Preview projects the current canonical change. A draft with field errors returns
// ErrNotSubmittable. If a newer preview is requested or the draft changes before
// this one returns, the result is dropped and ErrPreviewSuperseded is returned.
// Engine failures are returned as *SubmissionError.
func (e *Editor) Preview(ctx context.Context) (model.Projection, error) {
	e.mu.Lock()
	if e.previewer == nil {
		e.mu.Unlock()
		return model.Projection{}, apperrors.ErrProjectionUnavailable
	}
	if len(e.fieldErrors) > 0 || e.state == EditorEmpty {
		e.mu.Unlock()
		return model.Projection{}, apperrors.ErrNotSubmittable
	}
	e.previewToken++
	token := e.previewToken
	pc := planner.Flatten(e.spec)
	e.mu.Unlock()

	projection, err := e.previewer.Preview(ctx, pc)

	e.mu.Lock()
	defer e.mu.Unlock()
	if token != e.previewToken {
		return model.Projection{}, apperrors.ErrPreviewSuperseded
	}
	if err != nil {
		return model.Projection{}, NewSubmissionError(err)
	}
	return projection, nil
}

// State returns the current lifecycle state.
func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// FieldErrors returns a copy of the current field errors, empty when valid.
func (e *Editor) FieldErrors() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.fieldErrors)
}

// SubmissionError returns the error of the last failed save, nil otherwise.
func (e *Editor) SubmissionError() *SubmissionError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitErr
}

// Spec returns the canonical change and true when the draft is valid.
func (e *Editor) Spec() (planner.ChangeSpec, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.fieldErrors) > 0 || e.state == EditorEmpty {
		return planner.ChangeSpec{}, false
	}
	return e.spec, true
}

// Saved returns the stored record after a successful save, nil otherwise.
func (e *Editor) Saved() *model.PlannedChangeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saved
}

// PortfolioID returns the portfolio the draft belongs to.
func (e *Editor) PortfolioID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.PortfolioID()
}
