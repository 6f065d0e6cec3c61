// Package web serves the read-only status endpoint.
//
// The server exposes a liveness probe, a JSON snapshot of the usage
// ledger, and a websocket that streams fresh snapshots to dashboard
// clients. It never mutates anything; every route is a read.
package web

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/seanmckenzie/voicebridge/pkg/hub"
)

// broadcastInterval is how often snapshots stream to websocket clients.
const broadcastInterval = time.Second

// StatsSource provides point-in-time usage snapshots.
type StatsSource interface {
	Snapshot() map[string]any
}

// Server is the status HTTP server.
type Server struct {
	app    *fiber.App
	port   string
	stats  StatsSource
	hub    *hub.Hub
	logger *slog.Logger

	stop chan struct{}
}

// NewServer creates the status server on the given port.
func NewServer(port string, stats StatsSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:   port,
		stats:  stats,
		hub:    hub.New("stats", logger),
		logger: logger.With("component", "web.server"),
		stop:   make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "voicebridge status",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/", s.handleRoot)
	app.Get("/stats", s.handleStats)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/stats", websocket.New(s.handleStatsWS))

	s.app = app
	return s
}

// Start serves until Shutdown. It blocks.
func (s *Server) Start() error {
	s.logger.Info("status server listening", "addr", "http://localhost:"+s.port)

	go s.hub.Run()
	go s.broadcastLoop()

	return s.app.Listen(":" + s.port)
}

// StartAsync serves on a background goroutine. A serve failure is
// logged; the voice loop keeps running without the status endpoint.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("status server failed", "error", err)
		}
	}()
}

// broadcastLoop pushes periodic snapshots to websocket subscribers.
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if s.hub.ClientCount() == 0 {
				continue
			}
			if err := s.hub.BroadcastJSON(s.stats.Snapshot()); err != nil {
				s.logger.Warn("snapshot broadcast failed", "error", err)
			}
		}
	}
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	close(s.stop)
	return s.app.Shutdown()
}
