package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/dragsession"
)

// RouterDeps captures the collaborators the HTTP surface needs. DragSnap and
// MaxOccurrences are advertised to clients via the settings endpoint;
// non-positive values fall back to the engine defaults.
type RouterDeps struct {
	Scheduling     *application.SchedulingService
	Rooms          *application.RoomService
	Patients       PatientDirectory
	Logger         zerolog.Logger
	DragSnap       time.Duration
	MaxOccurrences int
}

// NewRouter wires the booking and room endpoints onto an echo instance.
func NewRouter(deps RouterDeps) *echo.Echo {
	if deps.DragSnap <= 0 {
		deps.DragSnap = dragsession.DefaultSnap
	}
	if deps.MaxOccurrences <= 0 {
		deps.MaxOccurrences = application.DefaultMaxOccurrences
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(deps.Logger))
	e.Use(middleware.Recover())

	appointments := NewAppointmentHandler(deps.Scheduling, deps.Patients)
	e.POST("/appointments", appointments.Create)
	e.GET("/appointments", appointments.List)
	e.GET("/appointments/:id", appointments.Get)
	e.POST("/appointments/:id/move", appointments.Move)
	e.POST("/appointments/:id/status", appointments.Status)
	e.DELETE("/appointments/:id", appointments.Delete)

	rooms := NewRoomHandler(deps.Rooms)
	e.POST("/rooms", rooms.Create)
	e.GET("/rooms", rooms.List)
	e.GET("/rooms/:id", rooms.Get)
	e.PUT("/rooms/:id", rooms.Update)
	e.DELETE("/rooms/:id", rooms.Delete)

	settings := NewSettingsHandler(deps.DragSnap, deps.MaxOccurrences)
	e.GET("/settings", settings.Get)

	return e
}
