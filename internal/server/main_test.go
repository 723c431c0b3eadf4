package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"petconnect/internal/config"
	"petconnect/internal/middleware"
	"petconnect/internal/models"
	"petconnect/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// captureMailer keeps the last code mailed to each address.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendOTP(_ context.Context, to, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[to] = code
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type testServer struct {
	t      *testing.T
	srv    *Server
	app    *fiber.App
	db     *gorm.DB
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	mailer *captureMailer
}

// newTestServer wires the real services over SQLite and miniredis. Routes are
// mounted without the global middleware so the per-IP limiter stays out of
// the way.
func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:    testSecret,
		Env:          "test",
		Port:         "0",
		FeatureFlags: "ai_advice=on,missing_pet_alerts=on",
	}
	for _, fn := range mutate {
		fn(cfg)
	}

	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewRedis(t)
	mailer := &captureMailer{}

	srv, err := NewServerWithDeps(cfg, db, rdb, Deps{Mailer: mailer})
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)

	return &testServer{t: t, srv: srv, app: app, db: db, mr: mr, rdb: rdb, mailer: mailer}
}

func (ts *testServer) token(u *models.User) string {
	ts.t.Helper()
	tok, _, err := middleware.IssueToken(testSecret, u.ID, u.Role, time.Now())
	require.NoError(ts.t, err)
	return tok
}

// do sends a JSON request. body may be nil, a string, or any JSON-encodable value.
func (ts *testServer) do(method, path, token string, body any) *http.Response {
	ts.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
