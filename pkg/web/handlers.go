package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-atlas/pkg/hub"
	"github.com/teslashibe/go-atlas/pkg/speech"
)

// CommandRequest is the body of POST /api/command.
type CommandRequest struct {
	Text string `json:"text"`
}

// handleStatus returns the mission snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Status())
}

// handleEvents returns recent events, oldest first
func (s *Server) handleEvents(c *fiber.Ctx) error {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return c.JSON(s.events)
}

// handleCommand queues a free-text command for the mission loop
func (s *Server) handleCommand(c *fiber.Ctx) error {
	if !s.limiter.Allow() {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "too many commands, slow down",
		})
	}

	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body: " + err.Error(),
		})
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	if speech.IsAbort(text) {
		return c.JSON(fiber.Map{"aborted": s.ctrl.Abort()})
	}
	if !s.inbox.Push(text) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "command queue full",
		})
	}

	s.log.Info("command queued", "text", text, "ip", c.IP())
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"queued":  text,
		"pending": s.inbox.Pending(),
	})
}

// handleAbort cancels a running search or approach
func (s *Server) handleAbort(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"aborted": s.ctrl.Abort()})
}

// handleStatusWS sends the current status, then streams events
func (s *Server) handleStatusWS(c *websocket.Conn) {
	data, err := hub.Encode("status", s.ctrl.Status())
	if err == nil {
		err = c.WriteMessage(websocket.TextMessage, data)
	}
	if err != nil {
		s.log.Debug("status ws greeting failed", "error", err)
		return
	}

	if client := hub.NewClient(s.statusHub, c); client != nil {
		client.Run()
	}
}
