package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/docserver-api/internal/dto"
	"github.com/noah-isme/docserver-api/internal/service"
	"github.com/noah-isme/docserver-api/internal/utils"
)

// DocTypeHandler wires the document-type registry routes.
type DocTypeHandler struct {
	service service.DocTypeService
	logger  zerolog.Logger
}

// NewDocTypeHandler constructs the handler.
func NewDocTypeHandler(service service.DocTypeService, logger zerolog.Logger) *DocTypeHandler {
	return &DocTypeHandler{
		service: service,
		logger:  logger.With().Str("component", "doctype_handler").Logger(),
	}
}

// RegisterAdmin attaches the registry management endpoints.
func (h *DocTypeHandler) RegisterAdmin(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.editView)
	router.Put("/:id", h.update)
}

// RegisterDeadlines attaches the deadline management endpoints.
func (h *DocTypeHandler) RegisterDeadlines(router fiber.Router) {
	router.Get("", h.deadlineStatus)
	router.Put("", h.setDeadline)
}

// RegisterStudent attaches the read-only listing endpoint.
func (h *DocTypeHandler) RegisterStudent(router fiber.Router) {
	router.Get("", h.list)
}

func (h *DocTypeHandler) list(c *fiber.Ctx) error {
	departmentID, err := parseQueryUint(c, "departmentId")
	if err != nil || departmentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "departmentId is required")
	}

	docTypes, err := h.service.ListByDepartment(c.Context(), departmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "document types retrieved", docTypes)
}

func (h *DocTypeHandler) create(c *fiber.Ctx) error {
	departmentID, err := parseFormUint(c, "departmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.DocTypeCreateRequest{
		DepartmentID:   departmentID,
		Title:          c.FormValue("title"),
		RequiredFields: formValues(c, "requiredFields"),
		ExampleValues:  formValues(c, "exampleValues"),
	}

	template, err := c.FormFile("template")
	if err != nil {
		template = nil
	}

	view, err := h.service.Register(c.Context(), payload, template)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "document type registered", view)
}

func (h *DocTypeHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.DocTypeUpdateRequest{
		Title:          c.FormValue("title"),
		RequiredFields: formValues(c, "requiredFields"),
		ExampleValues:  formValues(c, "exampleValues"),
	}

	template, err := c.FormFile("template")
	if err != nil {
		template = nil
	}

	view, err := h.service.Update(c.Context(), id, payload, template)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "document type updated", view)
}

func (h *DocTypeHandler) editView(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.EditView(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "document type retrieved", view)
}

func (h *DocTypeHandler) setDeadline(c *fiber.Ctx) error {
	var payload dto.DeadlineRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	row, err := h.service.SetDeadline(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "deadline updated", row)
}

func (h *DocTypeHandler) deadlineStatus(c *fiber.Ctx) error {
	departmentID, err := parseQueryUint(c, "departmentId")
	if err != nil || departmentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "departmentId is required")
	}

	rows, err := h.service.DeadlineStatus(c.Context(), departmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "deadline status retrieved", rows)
}

// formValues reads a repeated multipart field.
func formValues(c *fiber.Ctx, key string) []string {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.Value[key]
}

func (h *DocTypeHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrDocTypeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "document type not found")
	case errors.Is(err, service.ErrDepartmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "department not found")
	case errors.Is(err, service.ErrInvalidFields):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *DocTypeHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
