package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// handleHealthz reports liveness.
func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus returns the loop's current state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.JSON(Status{
		UserID:         s.cfg.UserID,
		Category:       s.cfg.Category,
		TurnsCompleted: s.turns,
		LastHeard:      s.lastHeard,
		LastResponse:   s.lastReply,
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		FeedClients:    s.feedHub.ClientCount(),
	})
}

// handleAllTasks returns every list keyed by user then category.
func (s *Server) handleAllTasks(c *fiber.Ctx) error {
	return c.JSON(s.store.Snapshot())
}

// handleUserTasks returns one user's list in one category.
func (s *Server) handleUserTasks(c *fiber.Ctx) error {
	user := c.Params("user")
	category := c.Params("category")
	return c.JSON(fiber.Map{
		"user":     user,
		"category": category,
		"tasks":    s.store.Tasks(user, category),
	})
}

// handleConversation returns the full conversation history.
func (s *Server) handleConversation(c *fiber.Ctx) error {
	return c.JSON(s.conv.Entries())
}
