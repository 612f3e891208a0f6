package engine

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"crud-admin/internal/config"
	"crud-admin/internal/logger"
)

type Handler struct {
	svc    *Service
	limits config.QueryConfig
}

func NewHandler(svc *Service, limits config.QueryConfig) *Handler {
	return &Handler{svc: svc, limits: limits}
}

// List handles GET /api/:table
func (h *Handler) List(c *fiber.Ctx) error {
	opts, err := ParseListOptions(c, h.limits)
	if err != nil {
		return err
	}
	result, err := h.svc.Read(c.UserContext(), c.Params("table"), opts)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Get handles GET /api/:table/:id
func (h *Handler) Get(c *fiber.Ctx) error {
	row, err := h.svc.ReadOne(c.UserContext(), c.Params("table"), c.Params("id"), splitAndTrim(c.Query("include")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": row})
}

// Create handles POST /api/:table
func (h *Handler) Create(c *fiber.Ctx) error {
	body, err := parseBody(c)
	if err != nil {
		return err
	}
	row, err := h.svc.Create(c.UserContext(), c.Params("table"), body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": row})
}

// Update handles PUT /api/:table/:id
func (h *Handler) Update(c *fiber.Ctx) error {
	body, err := parseBody(c)
	if err != nil {
		return err
	}
	row, err := h.svc.Update(c.UserContext(), c.Params("table"), c.Params("id"), body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": row})
}

// Delete handles DELETE /api/:table/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	row, err := h.svc.Delete(c.UserContext(), c.Params("table"), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": row})
}

// Options handles GET /api/:table/:column/options
func (h *Handler) Options(c *fiber.Ctx) error {
	opts, err := h.svc.ForeignKeyOptions(c.UserContext(), c.Params("table"), c.Params("column"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": opts})
}

func parseBody(c *fiber.Ctx) (Record, error) {
	var body Record
	if err := json.Unmarshal(c.Body(), &body); err != nil || body == nil {
		return nil, NewAppError("INVALID_PAYLOAD", fiber.StatusBadRequest, "Invalid JSON body: expected an object")
	}
	return body, nil
}

// ErrorHandler renders errors as {"error": {...}}. AppErrors keep their
// status; anything else is logged and reported as an internal error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= fiber.StatusInternalServerError {
			logger.Error("%s %s: %v", c.Method(), c.Path(), err)
		}
		status := appErr.Status
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(ErrorResponse{Error: appErr})
	}

	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		return c.Status(code).JSON(ErrorResponse{Error: NewAppError("HTTP_ERROR", code, fiberErr.Message)})
	}

	logger.Error("%s %s: %v", c.Method(), c.Path(), err)
	return c.Status(code).JSON(ErrorResponse{
		Error: NewAppError("INTERNAL_ERROR", code, "Internal server error"),
	})
}
