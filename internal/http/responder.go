package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/logging"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type conflictResponse struct {
	Error           string              `json:"error"`
	OccurrenceIndex int                 `json:"occurrence_index"`
	CandidateStart  time.Time           `json:"candidate_start"`
	CandidateEnd    time.Time           `json:"candidate_end"`
	ConflictingWith appointmentResponse `json:"conflicting_with"`
}

// handleServiceError translates application errors into HTTP responses.
// Validation problems map to 422, missing resources to 404, and both booking
// conflicts and broken series linkage to 409.
func handleServiceError(c echo.Context, err error) error {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation_failed",
			Fields: vErr.FieldErrors,
		})
	}

	var cErr *application.ConflictError
	if errors.As(err, &cErr) {
		return c.JSON(http.StatusConflict, conflictResponse{
			Error:           "conflict",
			OccurrenceIndex: cErr.OccurrenceIndex,
			CandidateStart:  cErr.Candidate.Start,
			CandidateEnd:    cErr.Candidate.End,
			ConflictingWith: toAppointmentResponse(cErr.Conflicting, ""),
		})
	}

	var sErr *application.SeriesIntegrityError
	if errors.As(err, &sErr) {
		return c.JSON(http.StatusConflict, errorResponse{Error: "series_integrity"})
	}

	if errors.Is(err, application.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not_found"})
	}
	if errors.Is(err, application.ErrAlreadyExists) {
		return c.JSON(http.StatusConflict, errorResponse{Error: "already_exists"})
	}

	if logger := logging.FromContext(c.Request().Context()); logger != nil {
		logger.Error().Err(err).Msg("unhandled service error")
	}
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal_error"})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: message})
}
