package admin

import (
	"github.com/gofiber/fiber/v2"

	"crud-admin/internal/engine"
	"crud-admin/internal/metadata"
)

// Handler serves schema introspection for admin UIs.
type Handler struct {
	svc      *engine.Service
	registry *metadata.Registry
}

func NewHandler(svc *engine.Service, reg *metadata.Registry) *Handler {
	return &Handler{svc: svc, registry: reg}
}

// RegisterSchemaRoutes mounts /api/_schema. It must run before
// engine.RegisterRoutes so "_schema" is not taken as a table name.
// authMW guards every route and adminMW additionally guards reload; either may be nil.
func RegisterSchemaRoutes(app *fiber.App, h *Handler, authMW, adminMW fiber.Handler) {
	var group []fiber.Handler
	if authMW != nil {
		group = append(group, authMW)
	}
	schema := app.Group("/api/_schema", group...)

	schema.Get("/tables", h.ListTables)
	schema.Get("/tables/:table", h.GetTable)

	var reload []fiber.Handler
	if adminMW != nil {
		reload = append(reload, adminMW)
	}
	schema.Post("/reload", append(reload, h.Reload)...)
}

type tableResponse struct {
	*metadata.TableSchema
	DisplayColumn    string `json:"display_column,omitempty"`
	SoftDeleteColumn string `json:"soft_delete_column,omitempty"`
}

func (h *Handler) ListTables(c *fiber.Ctx) error {
	tables, err := h.svc.ListTables(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tables})
}

func (h *Handler) GetTable(c *fiber.Ctx) error {
	ts, err := h.svc.Schema(c.UserContext(), c.Params("table"))
	if err != nil {
		return err
	}
	resp := tableResponse{TableSchema: ts, DisplayColumn: ts.DisplayColumn()}
	if col := ts.SoftDeleteColumn(); col != nil {
		resp.SoftDeleteColumn = col.Name
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Reload drops every cached schema so the next request re-introspects.
func (h *Handler) Reload(c *fiber.Ctx) error {
	h.registry.Reset()
	return c.JSON(fiber.Map{"data": fiber.Map{"reloaded": true}})
}
