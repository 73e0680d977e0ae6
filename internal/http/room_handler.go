package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/clinic-scheduler/internal/application"
)

// RoomHandler serves the treatment room catalog endpoints.
type RoomHandler struct {
	rooms *application.RoomService
}

// NewRoomHandler constructs a room handler.
func NewRoomHandler(rooms *application.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type roomRequest struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Capacity int    `json:"capacity"`
	IsActive *bool  `json:"is_active"`
}

type roomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	Capacity  int       `json:"capacity"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type roomListResponse struct {
	Rooms []roomResponse `json:"rooms"`
}

func (r roomRequest) input() application.RoomInput {
	input := application.RoomInput{
		Name:     r.Name,
		Color:    r.Color,
		Capacity: r.Capacity,
		IsActive: true,
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	return input
}

// Create handles POST /rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	room, err := h.rooms.CreateRoom(c.Request().Context(), application.CreateRoomParams{Input: req.input()})
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toRoomResponse(room))
}

// List handles GET /rooms.
func (h *RoomHandler) List(c echo.Context) error {
	rooms, err := h.rooms.ListRooms(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	resp := roomListResponse{Rooms: make([]roomResponse, 0, len(rooms))}
	for _, room := range rooms {
		resp.Rooms = append(resp.Rooms, toRoomResponse(room))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /rooms/:id.
func (h *RoomHandler) Get(c echo.Context) error {
	room, err := h.rooms.GetRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRoomResponse(room))
}

// Update handles PUT /rooms/:id.
func (h *RoomHandler) Update(c echo.Context) error {
	var req roomRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	room, err := h.rooms.UpdateRoom(c.Request().Context(), application.UpdateRoomParams{
		RoomID: c.Param("id"),
		Input:  req.input(),
	})
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRoomResponse(room))
}

// Delete handles DELETE /rooms/:id.
func (h *RoomHandler) Delete(c echo.Context) error {
	if err := h.rooms.DeleteRoom(c.Request().Context(), c.Param("id")); err != nil {
		return handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func toRoomResponse(room application.Room) roomResponse {
	return roomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Color:     room.Color,
		Capacity:  room.Capacity,
		IsActive:  room.IsActive,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}
