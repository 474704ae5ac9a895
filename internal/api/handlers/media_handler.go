package handlers

import (
	"log/slog"

	"github.com/campfirehq/socialqueue/internal/service"
	"github.com/gofiber/fiber/v2"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(s service.MediaService) *MediaHandler {
	return &MediaHandler{s: s}
}

func (h *MediaHandler) UploadAlbumMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	albumID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid album id"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files selected",
		})
	}

	assets, err := h.s.Upload(c.Context(), userID, int64(albumID), files)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(assets)
}

func (h *MediaHandler) ResolveMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	mediaID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid media id"})
	}

	mode := c.Query("mode", service.MediaModeFull)

	url, err := h.s.Resolve(c.Context(), userID, int64(mediaID), mode)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": "Unable to resolve media"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": url})
}

func (h *MediaHandler) ListAlbumMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	albumID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid album id"})
	}

	assets, err := h.s.ListAlbum(c.Context(), userID, int64(albumID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list album media",
		})
	}

	return c.Status(fiber.StatusOK).JSON(assets)
}
