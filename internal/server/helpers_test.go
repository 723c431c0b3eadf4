package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"petconnect/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- humanizeParam (pure function, no HTTP) ---

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"commentId", "comment ID"},
		{"cartItemId", "cart item ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

// --- parsePagination ---

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, 25)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})

	tests := []struct {
		query         string
		limit, offset float64
	}{
		{"", 25, 0},
		{"?limit=10&offset=30", 10, 30},
		{"?limit=500", maxPaginationLimit, 0},
		{"?limit=-3&offset=-1", 25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.limit, body["limit"])
			assert.Equal(t, tt.offset, body["offset"])
		})
	}
}

// --- parseID ---

func TestParseID_ValidID(t *testing.T) {
	app := fiber.New()
	s := &Server{}
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestParseID_ContextSpecificErrorMessage(t *testing.T) {
	tests := []struct {
		param       string
		value       string
		expectedMsg string
	}{
		{"id", "abc", "Invalid ID"},
		{"id", "0", "Invalid ID"},
		{"userId", "-4", "Invalid user ID"},
		{"cartItemId", "x", "Invalid cart item ID"},
	}
	for _, tt := range tests {
		t.Run(tt.param+"="+tt.value, func(t *testing.T) {
			app := fiber.New()
			s := &Server{}
			app.Get("/items/:"+tt.param, func(c *fiber.Ctx) error {
				_, _ = s.parseID(c, tt.param)
				return nil
			})

			req := httptest.NewRequest(http.MethodGet, "/items/"+tt.value, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expectedMsg, body.Message)
			assert.Equal(t, models.CodeValidation, body.Error)
		})
	}
}

// --- parseQueryFloat ---

func TestParseQueryFloat(t *testing.T) {
	tests := []struct {
		query          string
		expectedStatus int
		expected       float64
	}{
		{"", http.StatusOK, 10},
		{"?radius=2.5", http.StatusOK, 2.5},
		{"?radius=abc", http.StatusBadRequest, 0},
		{"?radius=NaN", http.StatusBadRequest, 0},
		{"?radius=Inf", http.StatusBadRequest, 0},
		{"?radius=-Inf", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run("query "+tt.query, func(t *testing.T) {
			app := fiber.New()
			app.Get("/near", func(c *fiber.Ctx) error {
				v, err := parseQueryFloat(c, "radius", 10)
				if err != nil {
					return nil
				}
				return c.JSON(fiber.Map{"radius": v})
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/near"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusOK {
				var body map[string]float64
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expected, body["radius"])
				return
			}
			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "Invalid radius", body.Message)
		})
	}
}

// --- respondServiceError ---

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", models.NewNotFoundError("Post", 9), http.StatusNotFound, models.CodeNotFound, ""},
		{"out of stock", models.NewOutOfStockError("Kibble"), http.StatusConflict, models.CodeOutOfStock, ""},
		{"empty cart", models.NewEmptyCartError(), http.StatusBadRequest, models.CodeEmptyCart, ""},
		{"raw error hides cause", errors.New("pq: relation users does not exist"), http.StatusInternalServerError, models.CodeInternal, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondServiceError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.status, resp.StatusCode)
			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.status, body.StatusCode)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Message)
			}
			assert.NotContains(t, body.Message, "pq:")
		})
	}
}

func TestOptionalString(t *testing.T) {
	blank, padded := "  ", " tx-1 "
	assert.Nil(t, optionalString(nil))
	assert.Nil(t, optionalString(&blank))
	require.NotNil(t, optionalString(&padded))
	assert.Equal(t, "tx-1", *optionalString(&padded))
}
