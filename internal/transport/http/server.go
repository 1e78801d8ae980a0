package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/typeroom-server/internal/config"
	"github.com/vovakirdan/typeroom-server/internal/core"
)

// Hub is the part of the core hub the transport depends on.
type Hub interface {
	RegisterClient(c *core.Client)
	UnregisterClient(c *core.Client)
	Snapshot(ctx context.Context) ([]core.RoomSummary, error)
	Stats(ctx context.Context) (core.Stats, error)
}

// NewServer builds an HTTP server with the lobby API and the WebSocket endpoint.
func NewServer(hub Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	rooms := NewRoomHandlers(hub, logger)
	api := router.Group("/api")
	{
		api.GET("/rooms", rooms.ListRooms)
		api.GET("/stats", rooms.Stats)
	}

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
