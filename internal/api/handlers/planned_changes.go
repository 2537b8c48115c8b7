package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/api/request"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/api/response"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/planner"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/service"
)

// PlannedChangeHandler handles HTTP requests for planned change endpoints.
// Each write request runs through its own editor session: the body is applied to a
// draft, validated, and submitted.
type PlannedChangeHandler struct {
	plannedChangeService *service.PlannedChangeService
}

// NewPlannedChangeHandler creates a new PlannedChangeHandler with the provided service dependency.
func NewPlannedChangeHandler(plannedChangeService *service.PlannedChangeService) *PlannedChangeHandler {
	return &PlannedChangeHandler{
		plannedChangeService: plannedChangeService,
	}
}

// PlannedChangesPerPortfolio handles GET requests to list the planned changes of a portfolio.
//
// Endpoint: GET /api/planned-change/portfolio/{uuid}
// Response: 200 OK with array of model.PlannedChangeRecord
// Error: 400 Bad Request if portfolio ID is invalid (validated by middleware)
// Error: 404 Not Found if portfolio not found
// Error: 500 Internal Server Error if retrieval fails
func (h *PlannedChangeHandler) PlannedChangesPerPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	changes, err := h.plannedChangeService.GetPlannedChangesPerPortfolio(r.Context(), portfolioID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePlannedChanges.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, changes)
}

// GetPlannedChange handles GET requests to retrieve a single planned change.
//
// Endpoint: GET /api/planned-change/{uuid}
// Response: 200 OK with model.PlannedChangeRecord
// Error: 404 Not Found if planned change not found
// Error: 500 Internal Server Error if retrieval fails
func (h *PlannedChangeHandler) GetPlannedChange(w http.ResponseWriter, r *http.Request) {
	changeID := chi.URLParam(r, "uuid")

	change, err := h.plannedChangeService.GetPlannedChange(r.Context(), changeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPlannedChangeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPlannedChangeNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePlannedChange.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, change)
}

// CreatePlannedChange handles POST requests to create a planned change.
//
// Endpoint: POST /api/planned-change
// Request Body: request.PlannedChangeRequest
// Response: 201 Created with model.PlannedChangeRecord
// Error: 400 Bad Request with per-field details if validation fails
// Error: 404 Not Found if the portfolio does not exist
// Error: 500 Internal Server Error if saving fails
func (h *PlannedChangeHandler) CreatePlannedChange(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.PlannedChangeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.submit(r.Context(), w, req, "", http.StatusCreated)
}

// UpdatePlannedChange handles PUT requests to replace a planned change.
// The body replaces every field; an omitted portfolioId keeps the stored portfolio.
//
// Endpoint: PUT /api/planned-change/{uuid}
// Request Body: request.PlannedChangeRequest
// Response: 200 OK with model.PlannedChangeRecord
// Error: 400 Bad Request with per-field details if validation fails
// Error: 404 Not Found if the planned change does not exist in the given portfolio
// Error: 500 Internal Server Error if saving fails
func (h *PlannedChangeHandler) UpdatePlannedChange(w http.ResponseWriter, r *http.Request) {
	changeID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.PlannedChangeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.submit(r.Context(), w, req, changeID, http.StatusOK)
}

// DeletePlannedChange handles DELETE requests to remove a planned change.
//
// Endpoint: DELETE /api/planned-change/{uuid}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if planned change not found
// Error: 500 Internal Server Error if deletion fails
func (h *PlannedChangeHandler) DeletePlannedChange(w http.ResponseWriter, r *http.Request) {
	changeID := chi.URLParam(r, "uuid")

	if err := h.plannedChangeService.DeletePlannedChange(r.Context(), changeID); err != nil {
		if errors.Is(err, apperrors.ErrPlannedChangeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPlannedChangeNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToDeletePlannedChange.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// ValidatePlannedChange handles POST requests that check a planned change without saving it.
//
// Endpoint: POST /api/planned-change/validate
// Request Body: request.PlannedChangeRequest
// Response: 200 OK with the canonical model.PlannedChange
// Error: 400 Bad Request with per-field details if validation fails
// Error: 404 Not Found if the portfolio does not exist
func (h *PlannedChangeHandler) ValidatePlannedChange(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.PlannedChangeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	editor, ok := h.openEditor(r.Context(), w, req, "")
	if !ok {
		return
	}

	spec, valid := editor.Spec()
	if !valid {
		response.RespondFieldErrors(w, "validation failed", editor.FieldErrors())
		return
	}

	response.RespondJSON(w, http.StatusOK, planner.Flatten(spec))
}

// PreviewPlannedChange handles POST requests that project an unsaved planned change.
//
// Endpoint: POST /api/planned-change/preview
// Request Body: request.PlannedChangeRequest
// Response: 200 OK with model.Projection
// Error: 400 Bad Request with per-field details if validation fails or the engine rejects fields
// Error: 404 Not Found if the portfolio does not exist
// Error: 502 Bad Gateway if the projection engine fails
// Error: 503 Service Unavailable if no projection engine is configured
func (h *PlannedChangeHandler) PreviewPlannedChange(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.PlannedChangeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	editor, ok := h.openEditor(r.Context(), w, req, "")
	if !ok {
		return
	}

	if fields := editor.FieldErrors(); len(fields) > 0 {
		response.RespondFieldErrors(w, "validation failed", fields)
		return
	}

	projection, err := editor.Preview(r.Context())
	if err != nil {
		var subErr *service.SubmissionError
		switch {
		case errors.Is(err, apperrors.ErrProjectionUnavailable):
			response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrProjectionUnavailable.Error(), "")
		case errors.As(err, &subErr) && subErr.HasFields():
			response.RespondFieldErrors(w, subErr.Message, subErr.Fields)
		default:
			response.RespondError(w, http.StatusBadGateway, apperrors.ErrFailedToPreviewPlannedChange.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, projection)
}

// openEditor opens an editing session and applies the request body to its draft.
// It writes the error response itself and reports false when the session could not
// be opened.
func (h *PlannedChangeHandler) openEditor(ctx context.Context, w http.ResponseWriter, req request.PlannedChangeRequest, changeID string) (*service.Editor, bool) {
	editor, err := h.plannedChangeService.NewEditor(ctx, req.PortfolioID, changeID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPlannedChangeNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPlannedChangeNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrPortfolioNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToLoadEditor.Error(), err.Error())
		}
		return nil, false
	}

	form := req.Form()
	if err := editor.Update(form.ApplyTo); err != nil {
		response.RespondError(w, http.StatusConflict, err.Error(), "")
		return nil, false
	}
	return editor, true
}

// submit validates the request in an editing session and saves it.
func (h *PlannedChangeHandler) submit(ctx context.Context, w http.ResponseWriter, req request.PlannedChangeRequest, changeID string, status int) {
	editor, ok := h.openEditor(ctx, w, req, changeID)
	if !ok {
		return
	}

	if fields := editor.FieldErrors(); len(fields) > 0 {
		response.RespondFieldErrors(w, "validation failed", fields)
		return
	}

	rec, err := editor.Submit(ctx)
	if err != nil {
		var subErr *service.SubmissionError
		switch {
		case errors.Is(err, apperrors.ErrPortfolioNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrPlannedChangeNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPlannedChangeNotFound.Error(), err.Error())
		case errors.As(err, &subErr) && subErr.HasFields():
			response.RespondFieldErrors(w, subErr.Message, subErr.Fields)
		default:
			response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToSavePlannedChange.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, status, rec)
}
