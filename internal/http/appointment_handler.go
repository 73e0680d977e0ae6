package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/recurrence"
)

// PatientDirectory resolves patient display names for calendar rendering.
// Patient records live in a separate system; bookings only carry the id.
type PatientDirectory interface {
	PatientName(ctx context.Context, patientID string) (string, bool)
}

// unknownPatientName is shown when the directory cannot resolve a patient id.
const unknownPatientName = "Unknown"

// AppointmentHandler serves the booking endpoints.
type AppointmentHandler struct {
	scheduling *application.SchedulingService
	patients   PatientDirectory
}

// NewAppointmentHandler constructs an appointment handler.
func NewAppointmentHandler(scheduling *application.SchedulingService, patients PatientDirectory) *AppointmentHandler {
	return &AppointmentHandler{scheduling: scheduling, patients: patients}
}

type recurrenceRequest struct {
	Rule  string `json:"rule"`
	Count int    `json:"count"`
}

type createAppointmentRequest struct {
	Title      string             `json:"title"`
	Notes      string             `json:"notes"`
	Color      string             `json:"color"`
	PatientID  *string            `json:"patient_id"`
	RoomID     *string            `json:"room_id"`
	Start      time.Time          `json:"start"`
	End        time.Time          `json:"end"`
	Recurrence *recurrenceRequest `json:"recurrence"`
}

type moveAppointmentRequest struct {
	RoomID *string   `json:"room_id"`
	Start  time.Time `json:"start"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type appointmentResponse struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Notes               string    `json:"notes,omitempty"`
	Color               string    `json:"color,omitempty"`
	PatientID           *string   `json:"patient_id,omitempty"`
	PatientName         string    `json:"patient_name,omitempty"`
	RoomID              *string   `json:"room_id,omitempty"`
	Start               time.Time `json:"start"`
	End                 time.Time `json:"end"`
	Status              string    `json:"status"`
	IsRecurring         bool      `json:"is_recurring"`
	RecurrenceRule      string    `json:"recurrence_rule,omitempty"`
	OccurrenceCount     int       `json:"occurrence_count,omitempty"`
	ParentAppointmentID *string   `json:"parent_appointment_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type warningResponse struct {
	AppointmentID     string  `json:"appointment_id"`
	WithAppointmentID string  `json:"with_appointment_id"`
	RoomID            *string `json:"room_id,omitempty"`
}

type appointmentListResponse struct {
	Appointments []appointmentResponse `json:"appointments"`
	Warnings     []warningResponse     `json:"warnings,omitempty"`
}

type deleteResponse struct {
	Removed int `json:"removed"`
}

// Create handles POST /appointments.
func (h *AppointmentHandler) Create(c echo.Context) error {
	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	input := application.AppointmentInput{
		Title:     req.Title,
		Notes:     req.Notes,
		Color:     req.Color,
		PatientID: req.PatientID,
		RoomID:    req.RoomID,
		Start:     req.Start,
		End:       req.End,
	}
	if req.Recurrence != nil {
		input.Recurrence = &application.RecurrenceInput{
			Rule:  recurrence.Rule(req.Recurrence.Rule),
			Count: req.Recurrence.Count,
		}
	}

	created, err := h.scheduling.CreateAppointment(c.Request().Context(), application.CreateAppointmentParams{Input: input})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, appointmentListResponse{
		Appointments: h.toResponses(c.Request().Context(), created),
	})
}

// List handles GET /appointments?from=...&to=...&room_id=...
func (h *AppointmentHandler) List(c echo.Context) error {
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return badRequest(c, "from must be an RFC 3339 timestamp")
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return badRequest(c, "to must be an RFC 3339 timestamp")
	}

	params := application.ListAppointmentsParams{
		Window: application.Window{From: from, To: to},
	}
	if roomID := c.QueryParam("room_id"); roomID != "" {
		params.RoomID = &roomID
	}

	appointments, warnings, err := h.scheduling.ListAppointments(c.Request().Context(), params)
	if err != nil {
		return handleServiceError(c, err)
	}

	resp := appointmentListResponse{
		Appointments: h.toResponses(c.Request().Context(), appointments),
	}
	for _, warning := range warnings {
		resp.Warnings = append(resp.Warnings, warningResponse{
			AppointmentID:     warning.AppointmentID,
			WithAppointmentID: warning.WithAppointmentID,
			RoomID:            warning.RoomID,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /appointments/:id.
func (h *AppointmentHandler) Get(c echo.Context) error {
	appointment, err := h.scheduling.GetAppointment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toAppointmentResponse(appointment, h.patientName(c.Request().Context(), appointment.PatientID)))
}

// Move handles POST /appointments/:id/move.
func (h *AppointmentHandler) Move(c echo.Context) error {
	var req moveAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	moved, err := h.scheduling.ProposeMove(c.Request().Context(), application.ProposeMoveParams{
		AppointmentID: c.Param("id"),
		NewRoomID:     req.RoomID,
		NewStart:      req.Start,
	})
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toAppointmentResponse(moved, h.patientName(c.Request().Context(), moved.PatientID)))
}

// Status handles POST /appointments/:id/status.
func (h *AppointmentHandler) Status(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	updated, err := h.scheduling.TransitionStatus(c.Request().Context(), c.Param("id"), application.AppointmentStatus(req.Status))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toAppointmentResponse(updated, h.patientName(c.Request().Context(), updated.PatientID)))
}

// Delete handles DELETE /appointments/:id?scope=single|series.
func (h *AppointmentHandler) Delete(c echo.Context) error {
	scope := application.DeleteScope(c.QueryParam("scope"))
	if scope == "" {
		scope = application.DeleteScopeSingle
	}

	removed, err := h.scheduling.DeleteAppointment(c.Request().Context(), c.Param("id"), scope)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, deleteResponse{Removed: removed})
}

func (h *AppointmentHandler) toResponses(ctx context.Context, appointments []application.Appointment) []appointmentResponse {
	responses := make([]appointmentResponse, 0, len(appointments))
	for _, appointment := range appointments {
		responses = append(responses, toAppointmentResponse(appointment, h.patientName(ctx, appointment.PatientID)))
	}
	return responses
}

func (h *AppointmentHandler) patientName(ctx context.Context, patientID *string) string {
	if patientID == nil {
		return ""
	}
	if h.patients == nil {
		return unknownPatientName
	}
	name, ok := h.patients.PatientName(ctx, *patientID)
	if !ok {
		return unknownPatientName
	}
	return name
}

func toAppointmentResponse(appointment application.Appointment, patientName string) appointmentResponse {
	return appointmentResponse{
		ID:                  appointment.ID,
		Title:               appointment.Title,
		Notes:               appointment.Notes,
		Color:               appointment.Color,
		PatientID:           appointment.PatientID,
		PatientName:         patientName,
		RoomID:              appointment.RoomID,
		Start:               appointment.Start,
		End:                 appointment.End,
		Status:              string(appointment.Status),
		IsRecurring:         appointment.IsRecurring,
		RecurrenceRule:      string(appointment.RecurrenceRule),
		OccurrenceCount:     appointment.OccurrenceCount,
		ParentAppointmentID: appointment.ParentAppointmentID,
		CreatedAt:           appointment.CreatedAt,
		UpdatedAt:           appointment.UpdatedAt,
	}
}
