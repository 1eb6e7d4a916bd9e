// Package web provides the mission dashboard: a small JSON API to watch and
// steer the robot plus a websocket feed of mission events.
package web

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-atlas/pkg/hub"
	"github.com/teslashibe/go-atlas/pkg/mission"
	"github.com/teslashibe/go-atlas/pkg/speech"
	"golang.org/x/time/rate"
)

const (
	maxEvents       = 200
	shutdownTimeout = 5 * time.Second
)

// Controller is the part of the mission machine the dashboard drives.
type Controller interface {
	Status() mission.Status
	Abort() bool
}

// Options configures the server.
type Options struct {
	Addr         string
	CommandRate  float64 // commands per second
	CommandBurst int
}

// Server is the web dashboard server
type Server struct {
	app  *fiber.App
	addr string
	log  *slog.Logger

	ctrl    Controller
	inbox   *speech.Inbox
	limiter *rate.Limiter

	// Ring of recent events for late joiners
	events   []mission.Event
	eventsMu sync.RWMutex

	statusHub *hub.Hub
}

// NewServer creates the dashboard. Commands posted to the API go to inbox.
func NewServer(opts Options, ctrl Controller, inbox *speech.Inbox, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CommandRate <= 0 {
		opts.CommandRate = 1
	}
	if opts.CommandBurst <= 0 {
		opts.CommandBurst = 1
	}

	s := &Server{
		addr:      opts.Addr,
		log:       logger.With("component", "web"),
		ctrl:      ctrl,
		inbox:     inbox,
		limiter:   rate.NewLimiter(rate.Limit(opts.CommandRate), opts.CommandBurst),
		events:    make([]mission.Event, 0, maxEvents),
		statusHub: hub.New("status", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "ATLAS Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/events", s.handleEvents)
	api.Post("/command", s.handleCommand)
	api.Post("/abort", s.handleAbort)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App exposes the fiber app for in-process tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// OnEvent records a mission event and pushes it to websocket clients.
func (s *Server) OnEvent(e mission.Event) {
	s.eventsMu.Lock()
	s.events = append(s.events, e)
	if len(s.events) > maxEvents {
		s.events = s.events[1:]
	}
	s.eventsMu.Unlock()

	if err := s.statusHub.Publish("event", e); err != nil {
		s.log.Warn("encode event", "error", err)
	}
}

// Run serves on the configured address until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("dashboard listening", "addr", ln.Addr().String())

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.statusHub.Run(hubCtx)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listener(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		stopHub()
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return err
		}
		return <-errc
	}
}

var _ mission.Observer = (*Server)(nil)
