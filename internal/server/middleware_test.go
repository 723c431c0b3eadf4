package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"petconnect/internal/config"
	"petconnect/internal/featureflags"
	"petconnect/internal/middleware"
	"petconnect/internal/models"
	"petconnect/internal/service"
	"petconnect/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string, excludeID uint) (bool, error) {
	args := m.Called(ctx, username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdateLocation(ctx context.Context, id uint, lat, lon float64) error {
	return m.Called(ctx, id, lat, lon).Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) ListWithLocation(ctx context.Context, excludeID uint) ([]models.User, error) {
	args := m.Called(ctx, excludeID)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.User, error) {
	args := m.Called(ctx, query, excludeID, limit)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Suggestions(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestServer_AuthRequired(t *testing.T) {
	secret := "test-secret-key-12345678901234567890123456789012"
	_, rdb := testutil.NewRedis(t)
	s := &Server{
		config:      &config.Config{JWTSecret: secret},
		redis:       rdb,
		authService: service.NewAuthService(nil, nil, nil, rdb, secret),
	}
	app := fiber.New()

	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	generateToken := func(userID uint, issuer, audience string, exp time.Duration) string {
		claims := jwt.MapClaims{
			"sub": strconv.FormatUint(uint64(userID), 10),
			"iss": issuer,
			"aud": audience,
			"exp": time.Now().Add(exp).Unix(),
			"jti": "test-jti-valid-length",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		str, _ := token.SignedString([]byte(secret))
		return str
	}

	valid, _, err := middleware.IssueToken(secret, 7, models.RoleUser, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Valid issued token", "Bearer " + valid, fiber.StatusOK},
		{"Valid hand-built token", "Bearer " + generateToken(1, middleware.TokenIssuer, middleware.TokenAudience, time.Hour), fiber.StatusOK},
		{"Missing header", "", fiber.StatusUnauthorized},
		{"Wrong scheme", "Token " + valid, fiber.StatusUnauthorized},
		{"Expired token", "Bearer " + generateToken(1, middleware.TokenIssuer, middleware.TokenAudience, -time.Hour), fiber.StatusUnauthorized},
		{"Wrong issuer", "Bearer " + generateToken(1, "someone-else", middleware.TokenAudience, time.Hour), fiber.StatusUnauthorized},
		{"Wrong audience", "Bearer " + generateToken(1, middleware.TokenIssuer, "other-client", time.Hour), fiber.StatusUnauthorized},
		{"Garbage", "Bearer not-a-jwt", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}

	t.Run("Revoked token", func(t *testing.T) {
		tok, claims, err := middleware.IssueToken(secret, 9, models.RoleUser, time.Now())
		require.NoError(t, err)
		require.NoError(t, rdb.Set(context.Background(), service.BlacklistKeyPrefix+claims.JTI, "1", time.Hour).Err())

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		var body models.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Token has been revoked", body.Message)
	})
}

// --- AdminRequired middleware ---

func adminApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	app.Get("/admin", s.AdminRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestAdminRequired(t *testing.T) {
	tests := []struct {
		name           string
		user           *models.User
		repoErr        error
		expectedStatus int
	}{
		{"Allows admin", &models.User{ID: 1, Role: models.RoleAdmin}, nil, http.StatusOK},
		{"Rejects user", &models.User{ID: 1, Role: models.RoleUser}, nil, http.StatusForbidden},
		{"Deleted account", nil, models.NewNotFoundError("User", 1), http.StatusUnauthorized},
		{"Repository failure", nil, models.NewInternalError(assert.AnError), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			repo.On("GetByID", mock.Anything, uint(1)).Return(tt.user, tt.repoErr)
			s := &Server{userRepo: repo}

			resp, err := adminApp(s, 1).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			repo.AssertExpectations(t)
		})
	}
}

func TestFeatureRequired(t *testing.T) {
	tests := []struct {
		name   string
		flags  string
		status int
	}{
		{"on", "ai_advice=on", http.StatusOK},
		{"off", "ai_advice=off", http.StatusForbidden},
		{"unset", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{featureFlags: featureflags.NewManager(tt.flags)}
			app := fiber.New()
			app.Get("/ai", s.FeatureRequired(featureflags.AIAdvice), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ai", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{"unknown path without token", http.MethodGet, "/api/does-not-exist", "", http.StatusNotFound},
		{"unknown path with token", http.MethodGet, "/api/does-not-exist", ts.token(alice), http.StatusNotFound},
		{"known protected path without token", http.MethodGet, "/api/users/me", "", http.StatusUnauthorized},
		{"unknown path under protected prefix", http.MethodGet, "/api/pets/1/vaccines", "", http.StatusUnauthorized},
		{"unknown path under protected prefix with token", http.MethodGet, "/api/pets/1/vaccines", ts.token(alice), http.StatusNotFound},
		{"public catalogue stays open", http.MethodGet, "/api/categories", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusNotFound {
				body := decode[models.ErrorResponse](t, resp)
				assert.Equal(t, models.CodeNotFound, body.Error)
			}
		})
	}
}
