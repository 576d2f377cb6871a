package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports backing-store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler constructs handler. Dependencies are optional; readiness
// reports each one that is wired.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	status := fiber.StatusOK
	checks := fiber.Map{}
	for name, dep := range h.deps {
		if dep == nil {
			continue
		}
		if err := dep.Ping(c.UserContext()); err != nil {
			checks[name] = err.Error()
			status = fiber.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}
	return c.Status(status).JSON(fiber.Map{"status": statusWord(status), "checks": checks})
}

func statusWord(status int) string {
	if status == fiber.StatusOK {
		return "ok"
	}
	return "degraded"
}
