package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SettingsHandler serves the calendar settings clients need before opening a
// drag session: the snap grid resolution and the recurring series cap.
type SettingsHandler struct {
	dragSnap       time.Duration
	maxOccurrences int
}

// NewSettingsHandler constructs a settings handler.
func NewSettingsHandler(dragSnap time.Duration, maxOccurrences int) *SettingsHandler {
	return &SettingsHandler{dragSnap: dragSnap, maxOccurrences: maxOccurrences}
}

type settingsResponse struct {
	DragSnapSeconds int `json:"drag_snap_seconds"`
	MaxOccurrences  int `json:"max_occurrences"`
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, settingsResponse{
		DragSnapSeconds: int(h.dragSnap / time.Second),
		MaxOccurrences:  h.maxOccurrences,
	})
}
