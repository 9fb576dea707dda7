package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kartiksrathod/Eduu/internal/middleware"
)

type setAdminRequest struct {
	IsAdmin *bool `json:"is_admin" validate:"required"`
}

// Dashboard greets the admin and reports principal counts
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.Admin.Dashboard(c.UserContext())
	if err != nil {
		return err
	}

	name := middleware.Subject(c)
	if user := middleware.CurrentUser(c); user != nil && user.Name != "" {
		name = user.Name
	}
	return c.JSON(fiber.Map{
		"message": "Welcome Admin " + name,
		"stats":   stats,
	})
}

// List all users
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Admin.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// Get user details by email
func (h *Handler) GetUserByEmail(c *fiber.Ctx) error {
	user, err := h.Admin.GetUserByEmail(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// SetAdmin grants or revokes the admin role
func (h *Handler) SetAdmin(c *fiber.Ctx) error {
	var request setAdminRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	user, err := h.Admin.SetAdmin(c.UserContext(), c.Params("email"), *request.IsAdmin)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": user})
}
