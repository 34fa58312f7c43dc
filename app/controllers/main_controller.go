package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/foxauth/internal/pkg/response"
)

// HandleWelcome GET /api/v1/
func HandleWelcome(c *fiber.Ctx) error {
	return response.OK(c, "Welcome to API V1!", fiber.Map{
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleHealth reports liveness for load balancers.
func HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
