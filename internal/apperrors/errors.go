package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrPlannedChangeNotFound indicates that a planned change with the given ID does not exist.
	ErrPlannedChangeNotFound = errors.New("planned change not found")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrNotSubmittable indicates that a planned change was submitted or previewed
	// while its draft still has field errors.
	ErrNotSubmittable = errors.New("planned change has validation errors")

	// ErrSubmitInFlight indicates that a second submit, or a draft change, was
	// attempted while a submit is still pending.
	ErrSubmitInFlight = errors.New("a submit is already in progress")

	// ErrPreviewSuperseded indicates that a preview result arrived after a newer
	// preview was requested and has been discarded.
	ErrPreviewSuperseded = errors.New("preview superseded by a newer request")

	// ErrProjectionUnavailable indicates that no projection engine is configured.
	ErrProjectionUnavailable = errors.New("projection engine not configured")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToRetrievePlannedChanges = errors.New("failed to retrieve planned changes")
	ErrFailedToRetrievePlannedChange  = errors.New("failed to retrieve planned change")
	ErrFailedToSavePlannedChange      = errors.New("failed to save planned change")
	ErrFailedToDeletePlannedChange    = errors.New("failed to delete planned change")
	ErrFailedToPreviewPlannedChange   = errors.New("failed to preview planned change")
	ErrFailedToLoadEditor             = errors.New("failed to load planned change editor")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrDataInconsistency indicates that stored data cannot be decoded
	// (e.g., a planned change with an unknown frequency).
	ErrDataInconsistency = errors.New("data inconsistency detected")

	// ErrInvariantViolation indicates that code produced a planned change with
	// state from an inactive branch. It signals a bug, not bad input.
	ErrInvariantViolation = errors.New("planned change invariant violated")
)
