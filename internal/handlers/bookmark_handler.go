package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kartiksrathod/Eduu/internal/middleware"
	"github.com/kartiksrathod/Eduu/internal/services"
)

type bookmarkRequest struct {
	ResourceType string `json:"resource_type" validate:"required"`
	ResourceID   string `json:"resource_id" validate:"required"`
	Category     string `json:"category"`
}

func (h *Handler) ListBookmarks(c *fiber.Ctx) error {
	items, err := h.Bookmarks.List(c.UserContext(), middleware.Subject(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *Handler) CheckBookmark(c *fiber.Ctx) error {
	kind, err := services.ParseResourceType(c.Params("type"))
	if err != nil {
		return err
	}

	b, err := h.Bookmarks.Check(c.UserContext(), middleware.Subject(c), kind, c.Params("id"))
	if err != nil {
		return err
	}

	var bookmarkID any
	if b != nil {
		bookmarkID = b.ID
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"bookmarked":  b != nil,
		"bookmark_id": bookmarkID,
	})
}

func (h *Handler) CreateBookmark(c *fiber.Ctx) error {
	var request bookmarkRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}
	kind, err := services.ParseResourceType(request.ResourceType)
	if err != nil {
		return err
	}

	b, created, err := h.Bookmarks.Create(c.UserContext(), middleware.Subject(c), kind, request.ResourceID, request.Category)
	if err != nil {
		return err
	}

	message := "Bookmark created successfully"
	if !created {
		message = "Bookmark already exists"
	}
	return c.JSON(fiber.Map{"success": true, "message": message, "data": b})
}

func (h *Handler) DeleteBookmark(c *fiber.Ctx) error {
	kind, err := services.ParseResourceType(c.Params("type"))
	if err != nil {
		return err
	}

	if err := h.Bookmarks.DeleteByTuple(c.UserContext(), middleware.Subject(c), kind, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Bookmark removed successfully"})
}

// DeleteBookmarkByID deletes by bookmark id; only the owner may do so.
func (h *Handler) DeleteBookmarkByID(c *fiber.Ctx) error {
	if err := h.Bookmarks.DeleteByID(c.UserContext(), middleware.Subject(c), c.Params("bookmark_id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Bookmark removed successfully"})
}
