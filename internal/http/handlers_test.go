package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/example/clinic-scheduler/internal/testfixtures"
)

// stubPatientDirectory resolves names from a fixed map.
type stubPatientDirectory struct {
	names map[string]string
}

func (d stubPatientDirectory) PatientName(ctx context.Context, patientID string) (string, bool) {
	name, ok := d.names[patientID]
	return name, ok
}

type testServer struct {
	router *echo.Echo
	store  *testfixtures.BookingStore
	rooms  *testfixtures.RoomStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := testfixtures.NewBookingStore()
	rooms := testfixtures.NewRoomStore()
	factory := testfixtures.NewServiceFactory()

	router := NewRouter(RouterDeps{
		Scheduling: factory.NewSchedulingService(testfixtures.SchedulingServiceDeps{Store: store}),
		Rooms:      factory.NewRoomService(testfixtures.RoomServiceDeps{Rooms: rooms}),
		Patients:   stubPatientDirectory{names: map[string]string{"patient-1": "Dana Vargas"}},
		Logger:     zerolog.Nop(),
	})

	return &testServer{router: router, store: store, rooms: rooms}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	start := testfixtures.ReferenceTime()

	rec := server.do(t, http.MethodPost, "/appointments", map[string]any{
		"title":      "Initial consultation",
		"patient_id": "patient-1",
		"room_id":    "room-a",
		"start":      start.Format(time.RFC3339),
		"end":        start.Add(time.Hour).Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	resp := decodeJSON[appointmentListResponse](t, rec)
	if len(resp.Appointments) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(resp.Appointments))
	}
	appointment := resp.Appointments[0]
	if appointment.ID == "" || appointment.Status != "scheduled" {
		t.Fatalf("unexpected appointment: %+v", appointment)
	}
	if appointment.PatientName != "Dana Vargas" {
		t.Errorf("patient_name = %q, want resolved directory name", appointment.PatientName)
	}
}

func TestCreateAppointmentEndpointRecurring(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	start := testfixtures.ReferenceTime()

	rec := server.do(t, http.MethodPost, "/appointments", map[string]any{
		"title": "Weekly physio",
		"start": start.Format(time.RFC3339),
		"end":   start.Add(time.Hour).Format(time.RFC3339),
		"recurrence": map[string]any{
			"rule":  "weekly",
			"count": 3,
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	resp := decodeJSON[appointmentListResponse](t, rec)
	if len(resp.Appointments) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(resp.Appointments))
	}
	if !resp.Appointments[0].IsRecurring || resp.Appointments[0].RecurrenceRule != "weekly" {
		t.Fatalf("parent series fields wrong: %+v", resp.Appointments[0])
	}
	if resp.Appointments[1].ParentAppointmentID == nil {
		t.Error("occurrences should link to the parent")
	}
}

func TestCreateAppointmentEndpointValidation(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	start := testfixtures.ReferenceTime()

	rec := server.do(t, http.MethodPost, "/appointments", map[string]any{
		"start": start.Format(time.RFC3339),
		"end":   start.Format(time.RFC3339),
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}

	resp := decodeJSON[errorResponse](t, rec)
	if resp.Error != "validation_failed" {
		t.Errorf("error = %q, want validation_failed", resp.Error)
	}
	if _, ok := resp.Fields["title"]; !ok {
		t.Errorf("expected field %q in %v", "title", resp.Fields)
	}
}

func TestCreateAppointmentEndpointConflict(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	start := testfixtures.ReferenceTime()

	existing := testfixtures.NewAppointmentFixture(
		testfixtures.WithAppointmentRoomID("room-a"),
		testfixtures.WithAppointmentStartEnd(start, start.Add(time.Hour)),
	).Application()
	server.store.Seed(existing)

	rec := server.do(t, http.MethodPost, "/appointments", map[string]any{
		"title":   "Overlap",
		"room_id": "room-a",
		"start":   start.Add(30 * time.Minute).Format(time.RFC3339),
		"end":     start.Add(90 * time.Minute).Format(time.RFC3339),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}

	resp := decodeJSON[conflictResponse](t, rec)
	if resp.Error != "conflict" {
		t.Errorf("error = %q, want conflict", resp.Error)
	}
	if resp.ConflictingWith.ID != existing.ID {
		t.Errorf("conflicting_with.id = %s, want %s", resp.ConflictingWith.ID, existing.ID)
	}
	if !resp.CandidateStart.Equal(start.Add(30 * time.Minute)) {
		t.Errorf("candidate_start = %v, want %v", resp.CandidateStart, start.Add(30*time.Minute))
	}
}

func TestListAppointmentsEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	start := testfixtures.ReferenceTime()

	server.store.Seed(
		testfixtures.NewAppointmentFixture(
			testfixtures.WithAppointmentRoomID("room-a"),
			testfixtures.WithAppointmentStartEnd(start, start.Add(time.Hour)),
		).Application(),
		testfixtures.NewAppointmentFixture(
			testfixtures.WithAppointmentRoomID("room-a"),
			testfixtures.WithAppointmentStartEnd(start.Add(30*time.Minute), start.Add(90*time.Minute)),
		).Application(),
	)

	t.Run("lists window with warnings", func(t *testing.T) {
		path := fmt.Sprintf("/appointments?from=%s&to=%s",
			start.Add(-time.Hour).Format(time.RFC3339),
			start.Add(8*time.Hour).Format(time.RFC3339),
		)
		rec := server.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}

		resp := decodeJSON[appointmentListResponse](t, rec)
		if len(resp.Appointments) != 2 {
			t.Fatalf("expected 2 appointments, got %d", len(resp.Appointments))
		}
		if len(resp.Warnings) != 1 {
			t.Fatalf("expected 1 overlap warning, got %d", len(resp.Warnings))
		}
		if resp.Warnings[0].RoomID == nil || *resp.Warnings[0].RoomID != "room-a" {
			t.Errorf("warning room = %v, want room-a", resp.Warnings[0].RoomID)
		}
	})

	t.Run("malformed window", func(t *testing.T) {
		rec := server.do(t, http.MethodGet, "/appointments?from=yesterday&to=tomorrow", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestGetAppointmentEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	appointment := testfixtures.NewAppointmentFixture(
		testfixtures.WithAppointmentPatientID("patient-unlisted"),
	).Application()
	server.store.Seed(appointment)

	t.Run("found", func(t *testing.T) {
		rec := server.do(t, http.MethodGet, "/appointments/"+appointment.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		resp := decodeJSON[appointmentResponse](t, rec)
		if resp.ID != appointment.ID {
			t.Errorf("id = %s, want %s", resp.ID, appointment.ID)
		}
		if resp.PatientName != unknownPatientName {
			t.Errorf("patient_name = %q, want %q for unresolved patient", resp.PatientName, unknownPatientName)
		}
	})

	t.Run("missing", func(t *testing.T) {
		rec := server.do(t, http.MethodGet, "/appointments/missing", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestMoveAppointmentEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	start := testfixtures.ReferenceTime()

	appointment := testfixtures.NewAppointmentFixture(
		testfixtures.WithAppointmentRoomID("room-a"),
		testfixtures.WithAppointmentStartEnd(start, start.Add(time.Hour)),
	).Application()
	blocker := testfixtures.NewAppointmentFixture(
		testfixtures.WithAppointmentRoomID("room-b"),
		testfixtures.WithAppointmentStartEnd(start.Add(2*time.Hour), start.Add(3*time.Hour)),
	).Application()
	server.store.Seed(appointment, blocker)

	t.Run("move succeeds", func(t *testing.T) {
		rec := server.do(t, http.MethodPost, "/appointments/"+appointment.ID+"/move", map[string]any{
			"room_id": "room-c",
			"start":   start.Add(5 * time.Hour).Format(time.RFC3339),
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		resp := decodeJSON[appointmentResponse](t, rec)
		if resp.RoomID == nil || *resp.RoomID != "room-c" {
			t.Errorf("room = %v, want room-c", resp.RoomID)
		}
	})

	t.Run("move conflict", func(t *testing.T) {
		rec := server.do(t, http.MethodPost, "/appointments/"+appointment.ID+"/move", map[string]any{
			"room_id": "room-b",
			"start":   start.Add(2*time.Hour + 15*time.Minute).Format(time.RFC3339),
		})
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
		}
		resp := decodeJSON[conflictResponse](t, rec)
		if resp.ConflictingWith.ID != blocker.ID {
			t.Errorf("conflicting_with.id = %s, want %s", resp.ConflictingWith.ID, blocker.ID)
		}
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	appointment := testfixtures.NewAppointmentFixture().Application()
	server.store.Seed(appointment)

	t.Run("complete", func(t *testing.T) {
		rec := server.do(t, http.MethodPost, "/appointments/"+appointment.ID+"/status", map[string]any{
			"status": "completed",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		resp := decodeJSON[appointmentResponse](t, rec)
		if resp.Status != "completed" {
			t.Errorf("status = %q, want completed", resp.Status)
		}
	})

	t.Run("terminal state rejected", func(t *testing.T) {
		rec := server.do(t, http.MethodPost, "/appointments/"+appointment.ID+"/status", map[string]any{
			"status": "cancelled",
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestDeleteAppointmentEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	start := testfixtures.ReferenceTime()

	parent := testfixtures.NewAppointmentFixture(
		testfixtures.WithAppointmentStartEnd(start, start.Add(time.Hour)),
		testfixtures.WithAppointmentSeries("weekly", 2),
	).Application()
	child := testfixtures.NewAppointmentFixture(
		testfixtures.WithAppointmentStartEnd(start.AddDate(0, 0, 7), start.AddDate(0, 0, 7).Add(time.Hour)),
		testfixtures.WithAppointmentParent(parent.ID),
	).Application()
	single := testfixtures.NewAppointmentFixture().Application()
	server.store.Seed(parent, child, single)

	t.Run("default single scope", func(t *testing.T) {
		rec := server.do(t, http.MethodDelete, "/appointments/"+single.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		resp := decodeJSON[deleteResponse](t, rec)
		if resp.Removed != 1 {
			t.Errorf("removed = %d, want 1", resp.Removed)
		}
	})

	t.Run("series scope", func(t *testing.T) {
		rec := server.do(t, http.MethodDelete, "/appointments/"+child.ID+"?scope=series", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		resp := decodeJSON[deleteResponse](t, rec)
		if resp.Removed != 2 {
			t.Errorf("removed = %d, want 2", resp.Removed)
		}
	})

	t.Run("invalid scope", func(t *testing.T) {
		rec := server.do(t, http.MethodDelete, "/appointments/whatever?scope=all", nil)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRoomEndpoints(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	var roomID string
	t.Run("create defaults to active", func(t *testing.T) {
		rec := server.do(t, http.MethodPost, "/rooms", map[string]any{
			"name":     "Treatment A",
			"capacity": 2,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		resp := decodeJSON[roomResponse](t, rec)
		if !resp.IsActive {
			t.Error("is_active should default to true")
		}
		roomID = resp.ID
	})

	t.Run("duplicate name", func(t *testing.T) {
		rec := server.do(t, http.MethodPost, "/rooms", map[string]any{
			"name":     "Treatment A",
			"capacity": 1,
		})
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
		}
		resp := decodeJSON[errorResponse](t, rec)
		if resp.Error != "already_exists" {
			t.Errorf("error = %q, want already_exists", resp.Error)
		}
	})

	t.Run("invalid capacity", func(t *testing.T) {
		rec := server.do(t, http.MethodPost, "/rooms", map[string]any{
			"name": "Treatment B",
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("update", func(t *testing.T) {
		rec := server.do(t, http.MethodPut, "/rooms/"+roomID, map[string]any{
			"name":      "Treatment A",
			"capacity":  3,
			"is_active": false,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		resp := decodeJSON[roomResponse](t, rec)
		if resp.Capacity != 3 || resp.IsActive {
			t.Fatalf("unexpected room after update: %+v", resp)
		}
	})

	t.Run("list", func(t *testing.T) {
		rec := server.do(t, http.MethodGet, "/rooms", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		resp := decodeJSON[roomListResponse](t, rec)
		if len(resp.Rooms) != 1 {
			t.Fatalf("expected 1 room, got %d", len(resp.Rooms))
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := server.do(t, http.MethodDelete, "/rooms/"+roomID, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
		}
		rec = server.do(t, http.MethodGet, "/rooms/"+roomID, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestSettingsEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	rec := server.do(t, http.MethodGet, "/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decodeJSON[settingsResponse](t, rec)
	if resp.DragSnapSeconds != 900 {
		t.Errorf("drag_snap_seconds = %d, want the 15 minute default", resp.DragSnapSeconds)
	}
	if resp.MaxOccurrences != 52 {
		t.Errorf("max_occurrences = %d, want the default series cap", resp.MaxOccurrences)
	}
}
