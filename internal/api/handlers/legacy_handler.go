package handlers

import (
	"github.com/campfirehq/socialqueue/internal/queue"
	"github.com/gofiber/fiber/v2"
)

type LegacyHandler struct {
	q *queue.Queue
}

func NewLegacyHandler(q *queue.Queue) *LegacyHandler {
	return &LegacyHandler{q: q}
}

// RunDue executes only the legacy queue's due jobs.
func (h *LegacyHandler) RunDue(c *fiber.Ctx) error {
	summary, err := h.q.RunDueLegacy(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Legacy queue run failed",
		})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}

// ListJobs serves the merged view over scheduled posts and legacy jobs.
func (h *LegacyHandler) ListJobs(c *fiber.Ctx) error {
	userID := GetUserID(c)

	views, err := h.q.MergedJobs(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list jobs",
		})
	}

	return c.Status(fiber.StatusOK).JSON(views)
}
