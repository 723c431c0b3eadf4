package server

import (
	"context"
	"io"
	"strings"
	"time"

	"petconnect/internal/models"
	"petconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Gemini calls routinely outlive the default request budget.
const aiRequestTimeout = 60 * time.Second

func aiContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), aiRequestTimeout)
}

// sendModelJSON returns the model output verbatim as a JSON document.
func sendModelJSON(c *fiber.Ctx, body string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).SendString(body)
}

// PetAdvice handles POST /api/ai/advice
// @Summary Photo-based pet advice
// @Description Upload a pet photo (field "image", at most 10MB) and receive care advice as JSON
// @Tags ai
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Pet photo"
// @Success 200 {object} object
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /ai/advice [post]
func (s *Server) PetAdvice(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	if file.Size > maxImageBytes {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Image must be at most 10MB"))
	}
	mimeType := strings.ToLower(strings.TrimSpace(file.Header.Get(fiber.HeaderContentType)))
	if !strings.HasPrefix(mimeType, "image/") {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Only image files are allowed"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(io.LimitReader(src, maxImageBytes+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	ctx, cancel := aiContext(c)
	defer cancel()

	out, err := s.aiService.Advice(ctx, content, mimeType)
	if err != nil {
		return respondServiceError(c, err)
	}
	return sendModelJSON(c, out)
}

// DietAndProducts handles POST /api/ai/diet-product
// @Summary Diet plan with shop recommendations
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.DietRequest true "Pet profile"
// @Success 200 {object} object
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /ai/diet-product [post]
func (s *Server) DietAndProducts(c *fiber.Ctx) error {
	var req service.DietRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := aiContext(c)
	defer cancel()

	out, err := s.aiService.DietAndProducts(ctx, req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return sendModelJSON(c, out)
}
