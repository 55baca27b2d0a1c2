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

// AdminSubmissionHandler wires the administrator review routes.
type AdminSubmissionHandler struct {
	service service.AdminSubmissionService
	logger  zerolog.Logger
}

// NewAdminSubmissionHandler constructs the handler.
func NewAdminSubmissionHandler(service service.AdminSubmissionService, logger zerolog.Logger) *AdminSubmissionHandler {
	return &AdminSubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_submission_handler").Logger(),
	}
}

// Register attaches admin review endpoints to the router group.
func (h *AdminSubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.queue)
	router.Get("/:id", h.detail)
	router.Post("/:id/approve", h.approve)
	router.Post("/:id/reject", h.reject)
}

func (h *AdminSubmissionHandler) queue(c *fiber.Ctx) error {
	departmentID, err := parseQueryUint(c, "departmentId")
	if err != nil || departmentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "departmentId is required")
	}

	queue, err := h.service.Queue(c.Context(), departmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review queue retrieved", queue)
}

func (h *AdminSubmissionHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.service.Detail(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission detail retrieved", detail)
}

func (h *AdminSubmissionHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := h.parseDecision(c)
	summary, err := h.service.Approve(c.Context(), actorFromContext(c), id, payload.Memo)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission approved", summary)
}

func (h *AdminSubmissionHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := h.parseDecision(c)
	summary, err := h.service.Reject(c.Context(), actorFromContext(c), id, payload.Memo)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission rejected", summary)
}

// parseDecision tolerates an absent or malformed body: the memo is optional.
func (h *AdminSubmissionHandler) parseDecision(c *fiber.Ctx) dto.AdminDecisionRequest {
	var payload dto.AdminDecisionRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&payload)
	}
	return payload
}

func (h *AdminSubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrNotAdmin):
		return utils.SendError(c, fiber.StatusForbidden, "administrator account required")
	case errors.Is(err, service.ErrNotReviewable):
		return utils.SendError(c, fiber.StatusConflict, "submission is not awaiting review")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *AdminSubmissionHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
