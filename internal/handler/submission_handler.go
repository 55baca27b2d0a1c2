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

// SubmissionHandler wires the student-facing submission routes.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group. The /my route
// must be registered before /:id so Fiber does not treat "my" as an
// identifier.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("/my", h.listMine)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Post("/:id/submit", h.submit)
	router.Get("/:id/review-result", h.reviewResult)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	docTypeID, err := parseFormUint(c, "docTypeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	summary, err := h.service.Create(c.Context(), actorFromContext(c), docTypeID, c.FormValue("fieldsJson"), file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", summary)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.GetSummary(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", summary)
}

func (h *SubmissionHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	summary, err := h.service.Update(c.Context(), actorFromContext(c), id, c.FormValue("fieldsJson"), file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission updated", summary)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	summary, err := h.service.Submit(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission submitted", summary)
}

func (h *SubmissionHandler) listMine(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	rows, err := h.service.ListMine(c.Context(), actorFromContext(c), limit, c.Query("status"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", rows)
}

func (h *SubmissionHandler) reviewResult(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.ReviewResult(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review result retrieved", result)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrDocTypeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "document type not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusUnauthorized, "unknown student")
	case errors.Is(err, service.ErrFileRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	case errors.Is(err, service.ErrFileTypeNotAllowed):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDeadlinePassed):
		return utils.SendError(c, fiber.StatusBadRequest, "deadline has passed")
	case errors.Is(err, service.ErrModeRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "mode is required")
	case errors.Is(err, service.ErrInvalidFields):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotEditable):
		return utils.SendError(c, fiber.StatusConflict, "submission is not editable in its current status")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *SubmissionHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
