package handlers

import (
	"github.com/campfirehq/socialqueue/internal/service"
	"github.com/gofiber/fiber/v2"
)

type DraftHandler struct {
	s service.DraftService
}

func NewDraftHandler(s service.DraftService) *DraftHandler {
	return &DraftHandler{s: s}
}

func (h *DraftHandler) GetDraft(c *fiber.Ctx) error {
	userID := GetUserID(c)
	albumID, err := c.ParamsInt("albumID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid album id"})
	}

	fields, err := h.s.Get(c.Context(), userID, int64(albumID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load draft",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fields)
}

// PutDraft merges partial updates last-write-wins per field.
func (h *DraftHandler) PutDraft(c *fiber.Ctx) error {
	userID := GetUserID(c)
	albumID, err := c.ParamsInt("albumID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid album id"})
	}

	var fields map[string]string
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Put(c.Context(), userID, int64(albumID), fields); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to save draft",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *DraftHandler) DeleteDraft(c *fiber.Ctx) error {
	userID := GetUserID(c)
	albumID, err := c.ParamsInt("albumID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid album id"})
	}

	if err := h.s.Clear(c.Context(), userID, int64(albumID)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to clear draft",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
