package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/pkg/core/model"
	"github.com/dineshxr/submithunt/pkg/core/scheduling"
	"github.com/dineshxr/submithunt/pkg/core/services"
	"github.com/dineshxr/submithunt/pkg/db"
)

// ErrorResponse is the JSON error envelope. Code carries the machine-
// readable reason so the form can react (e.g. clear a filled-up date).
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const (
	codeSlotFull       = "SLOT_FULL"
	codeInvalidWeekday = "INVALID_WEEKDAY"
	codeSlugTaken      = "SLUG_TAKEN"
	codeValidation     = "VALIDATION_FAILED"
	codeQueryFailure   = "QUERY_FAILURE"
)

type launchDatesResponse struct {
	Dates         []scheduling.DateSlot `json:"dates"`
	SuggestedPlan model.Plan            `json:"suggested_plan"`
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleAvailability reports the capacity picture for one launch date.
// The UI polls this; the answer is advisory and never errors out.
func (s *Server) handleAvailability(c fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "date query parameter is required",
			Code:  codeValidation,
		})
	}
	if _, err := time.Parse(model.DateFormat, date); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "date must be formatted YYYY-MM-DD",
			Code:  codeValidation,
		})
	}

	return c.JSON(s.allocator.Availability(c.Context(), date))
}

// handleLaunchDates returns the weekday candidates the date picker
// offers, plus the plan the form should preselect for the submitter
func (s *Server) handleLaunchDates(c fiber.Ctx) error {
	count := queryInt(c, "count", 5)
	lookahead := queryInt(c, "lookahead", scheduling.DefaultLookaheadDays)

	slots, err := s.allocator.NextAvailableDates(c.Context(), s.now(), count, lookahead)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  codeValidation,
		})
	}

	suggested := services.DefaultPlan(c.Context(), s.store, s.logger, c.Query("email"))

	return c.JSON(launchDatesResponse{
		Dates:         slots,
		SuggestedPlan: suggested,
	})
}

func (s *Server) handleGetSubmission(c fiber.Ctx) error {
	sub, err := s.store.GetBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "submission not found"})
		}
		s.logger.Error("Failed to fetch submission", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to fetch submission",
			Code:  codeQueryFailure,
		})
	}

	return c.JSON(sub)
}

func (s *Server) handleCreateSubmission(c fiber.Ctx) error {
	var req services.SubmitRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
			Code:  codeValidation,
		})
	}

	sub, err := services.SubmitStartup(c.Context(), s.store, s.allocator, s.logger, s.now(), req)
	if err != nil {
		return s.submitError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(sub)
}

// submitError maps service errors to HTTP responses. A race-lost date
// gets its own message, distinct from the advisory picker rejection.
func (s *Server) submitError(c fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, scheduling.ErrInvalidWeekday):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  codeInvalidWeekday,
		})
	case errors.Is(err, services.ErrDateJustFilled):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  codeSlotFull,
		})
	case errors.Is(err, scheduling.ErrSlotFull):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  codeSlotFull,
		})
	case errors.Is(err, db.ErrSlugTaken):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error: "a startup with a very similar name already exists",
			Code:  codeSlugTaken,
		})
	case errors.As(err, &validationErrs):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  codeValidation,
		})
	default:
		s.logger.Error("Failed to create submission", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to create submission",
			Code:  codeQueryFailure,
		})
	}
}

// handlePaymentWebhook applies a successful payment to a submission.
// This is the authoritative moment a paid slot becomes claimed.
func (s *Server) handlePaymentWebhook(c fiber.Ctx) error {
	var upgrade services.PaymentUpgrade
	if err := c.Bind().Body(&upgrade); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid webhook payload",
			Code:  codeValidation,
		})
	}

	sub, err := services.ApplyPaymentUpgrade(c.Context(), s.store, s.logger, s.now(), upgrade)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "submission not found"})
		}
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: err.Error(),
				Code:  codeValidation,
			})
		}
		s.logger.Error("Failed to apply payment upgrade", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to apply payment upgrade",
			Code:  codeQueryFailure,
		})
	}

	return c.JSON(sub)
}

func queryInt(c fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
