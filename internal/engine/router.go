package engine

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RegisterRoutes mounts the table routes under /api. Register any fixed
// /api/_... routes before calling it.
func RegisterRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api", middleware...)

	api.Get("/:table", h.List)
	api.Get("/:table/:column/options", h.Options)
	api.Get("/:table/:id", h.Get)
	api.Post("/:table", h.Create)
	api.Put("/:table/:id", h.Update)
	api.Delete("/:table/:id", h.Delete)
}

const RequestIDHeader = "X-Request-ID"

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("request_id", id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}
