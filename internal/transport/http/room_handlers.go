package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RoomHandlers serves read-only lobby endpoints backed by the hub.
type RoomHandlers struct {
	hub Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatsResponse reports hub counters.
type StatsResponse struct {
	Users       int `json:"users"`
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
	Identities  int `json:"identities"`
}

// ListRooms returns the same room summaries the room_list event carries.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.hub.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to snapshot rooms")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
		return
	}

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, roomSummariesToProto(rooms))
}

// Stats returns hub counters.
// GET /api/stats
func (h *RoomHandlers) Stats(c *gin.Context) {
	st, err := h.hub.Stats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read hub stats")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Users:       st.Users,
		Connections: st.Connections,
		Rooms:       st.Rooms,
		Identities:  st.Identities,
	})
}
