package server

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"petconnect/internal/geo"
	"petconnect/internal/middleware"
	"petconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "userId" -> "Invalid user ID", "cartItemId" -> "Invalid cart item ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseQueryFloat reads an optional query parameter as a finite float,
// returning def when it is absent. Malformed, NaN and infinite values write a
// 400 and return errResponseWritten.
func parseQueryFloat(c *fiber.Ctx, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+name))
		return 0, errResponseWritten
	}
	return v, nil
}

// parseQueryPoint reads the optional lat/lon pair. Both must be given
// together and lie within coordinate bounds.
func parseQueryPoint(c *fiber.Ctx) (lat, lon *float64, err error) {
	if c.Query("lat") == "" && c.Query("lon") == "" {
		return nil, nil, nil
	}
	la, err := parseQueryFloat(c, "lat", math.NaN())
	if err != nil {
		return nil, nil, err
	}
	lo, err := parseQueryFloat(c, "lon", math.NaN())
	if err != nil {
		return nil, nil, err
	}
	if math.IsNaN(la) || math.IsNaN(lo) || !geo.ValidCoordinates(la, lo) {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("lat and lon must be given together as valid coordinates"))
		return nil, nil, errResponseWritten
	}
	return &la, &lo, nil
}

// parseBody decodes the JSON body into dst, writing a 400 on failure.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	// Split on camelCase boundary before the trailing "Id" suffix.
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// currentUserID returns the authenticated user set by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}

// requestContext bounds service calls made on behalf of a request.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	ctx := c.UserContext()
	if userID := currentUserID(c); userID != 0 {
		ctx = middleware.WithUserID(ctx, userID)
	}
	return context.WithTimeout(ctx, requestTimeout)
}

// respondServiceError maps a service error onto its HTTP status. Anything that
// is not an AppError is reported as a 500 without leaking the cause.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.RespondWithError(c, appErr.HTTPStatus(), appErr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewUnavailableError("Request timed out"))
	}
	middleware.Logger.Error("request failed",
		"path", c.Path(), "method", c.Method(), "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// optionalString trims s and returns nil when it is empty.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
