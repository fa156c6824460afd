package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"support-copilot/internal/composer"
	"support-copilot/internal/domain"
	"support-copilot/internal/pkg/logger"
	"support-copilot/internal/triage"
)

// AnalyzeRequest is the ticket submitted for analysis.
type AnalyzeRequest struct {
	Text string `json:"text" validate:"required,min=10,max=5000"`
}

// AnalyzeResponse combines triage output with the grounded reply.
type AnalyzeResponse struct {
	Category           string            `json:"category"`
	CategoryConfidence *float64          `json:"category_confidence"`
	Priority           string            `json:"priority"`
	Reply              string            `json:"reply"`
	FoundInKB          bool              `json:"found_in_kb"`
	Citations          []domain.Citation `json:"citations"`
}

// Composer is the slice of composition behavior the handler needs.
type Composer interface {
	Compose(ctx context.Context, ticketText string) (*domain.GroundedReply, error)
}

// TicketHandler serves the ticket-analysis endpoint.
type TicketHandler struct {
	composer   Composer
	classifier domain.Classifier
	validate   *validator.Validate
	logger     logger.Logger
}

// NewTicketHandler constructs the handler.
func NewTicketHandler(c Composer, cl domain.Classifier, log logger.Logger) *TicketHandler {
	return &TicketHandler{
		composer:   c,
		classifier: cl,
		validate:   validator.New(),
		logger:     log,
	}
}

// Analyze handles POST /analyze: triage the ticket, apply the priority rule
// and compose the grounded reply. A generation outage is the only fault that
// surfaces as an error status; a silent knowledge gap is a normal reply with
// found_in_kb=false.
func (h *TicketHandler) Analyze(c *fiber.Ctx) error {
	requestID := uuid.NewString()

	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text must be between 10 and 5000 characters"})
	}

	category, confidence, err := h.classifier.Predict(c.Context(), req.Text)
	if err != nil {
		// Triage must never block the grounded reply.
		h.logger.Warn("handler", "triage predict failed, degrading to Other", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		category, confidence = triage.CategoryOther, nil
	}

	reply, err := h.composer.Compose(c.Context(), req.Text)
	if err != nil {
		if errors.Is(err, composer.ErrGenerationUnavailable) {
			h.logger.Error("handler", "generation capability unavailable", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "answer generation is temporarily unavailable"})
		}
		h.logger.Error("handler", "compose failed", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	h.logger.Info("handler", "ticket analyzed", map[string]interface{}{
		"request_id":  requestID,
		"category":    category,
		"found_in_kb": reply.FoundInKB,
		"citations":   len(reply.Citations),
	})

	return c.JSON(AnalyzeResponse{
		Category:           category,
		CategoryConfidence: confidence,
		Priority:           triage.PriorityFor(req.Text),
		Reply:              reply.FinalReply,
		FoundInKB:          reply.FoundInKB,
		Citations:          reply.Citations,
	})
}

// Health handles GET /health.
func (h *TicketHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Root handles GET /.
func (h *TicketHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "Support Copilot API",
		"endpoints": fiber.Map{
			"analyze": "POST /analyze",
			"health":  "GET /health",
		},
	})
}
