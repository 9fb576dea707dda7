package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kartiksrathod/Eduu/internal/health"
	"github.com/kartiksrathod/Eduu/internal/middleware"
)

// DatabaseCheck is the health check name the database status is read from.
const DatabaseCheck = "database"

type newsItem struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

var cmsContent = fiber.Map{
	"welcome_message": "Welcome to EduResources CMS!",
	"latest_news": []newsItem{
		{ID: 1, Title: "Semester begins soon", Content: "Get ready for the new semester."},
		{ID: 2, Title: "Holiday Schedule", Content: "Check the official holiday calendar."},
	},
	"contact_info": fiber.Map{
		"email": "support@eduresources.com",
		"phone": "+1-234-567-890",
	},
}

func (h *Handler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "EduResources Backend Running Successfully!"})
}

func (h *Handler) CMSContent(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": cmsContent})
}

func (h *Handler) GetStats(c *fiber.Ctx) error {
	stats, err := h.Stats.Stats(c.UserContext(), middleware.Subject(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "stats": stats})
}

// HealthCheck reports 503 when any registered check fails.
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	report := health.Report{Status: health.StatusHealthy, Checks: map[string]health.Result{}}
	if h.Health != nil {
		report = h.Health.CheckAll(c.UserContext())
	}

	database := "disconnected"
	if report.Healthy(DatabaseCheck) {
		database = "connected"
	}

	status := fiber.StatusOK
	if report.Status != health.StatusHealthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   report.Status,
		"database": database,
		"checks":   report.Checks,
	})
}
