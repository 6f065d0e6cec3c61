package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/seanmckenzie/voicebridge/pkg/hub"
)

// handleRoot is the liveness probe.
func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// handleStats returns the current usage snapshot.
func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.stats.Snapshot())
}

// handleStatsWS streams snapshots over a websocket. The current
// snapshot is sent immediately so a dashboard renders without waiting
// for the first broadcast tick.
func (s *Server) handleStatsWS(c *websocket.Conn) {
	if err := c.WriteJSON(s.stats.Snapshot()); err != nil {
		c.Close()
		return
	}
	hub.NewClient(s.hub, c).Run()
}
