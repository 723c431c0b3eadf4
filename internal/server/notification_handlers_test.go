package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"petconnect/internal/config"
	"petconnect/internal/models"
	"petconnect/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationInbox(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")
	post := testutil.CreatePost(t, ts.db, alice.ID, "hello", models.VisibilityPublic)

	// two notifications for alice: a like and a connection request
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/like", post.ID), ts.token(bob), nil).StatusCode)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, fmt.Sprintf("/api/follows/%d", alice.ID), ts.token(bob), nil).StatusCode)

	token := ts.token(alice)
	unread := func() float64 {
		resp := ts.do(http.MethodGet, "/api/notifications/unread-count", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[map[string]float64](t, resp)["count"]
	}
	assert.Equal(t, float64(2), unread())

	resp := ts.do(http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decode[[]models.NotificationDTO](t, resp)
	require.Len(t, items, 2)
	assert.Equal(t, models.NotificationConnectionRequest, items[0].Type, "newest first")

	other := fmt.Sprintf("/api/notifications/%d/read", items[0].ID)
	resp = ts.do(http.MethodPut, other, ts.token(bob), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(http.MethodPut, other, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[models.NotificationDTO](t, resp).IsRead)
	assert.Equal(t, float64(1), unread())

	resp = ts.do(http.MethodPut, "/api/notifications/read-all", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decode[map[string]float64](t, resp)["updated"])
	assert.Zero(t, unread())
}

func TestPresignUpload(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		ts := newTestServer(t)
		alice := testutil.CreateUser(t, ts.db, "alice")
		resp := ts.do(http.MethodPost, "/api/uploads/presign", ts.token(alice),
			PresignRequest{FileName: "rex.png", ContentType: "image/png", Folder: "pets"})
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	ts := newTestServer(t, func(c *config.Config) {
		c.S3Endpoint = "http://minio.local:9000"
		c.S3Bucket = "petconnect"
		c.S3AccessKeyID = "access"
		c.S3SecretAccessKey = "secret"
	})
	alice := testutil.CreateUser(t, ts.db, "alice")
	token := ts.token(alice)

	resp := ts.do(http.MethodPost, "/api/uploads/presign", token,
		PresignRequest{FileName: "Rex.PNG", ContentType: "image/png", Folder: "pets"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)

	key, _ := body["key"].(string)
	assert.True(t, strings.HasPrefix(key, fmt.Sprintf("uploads/pets/%d/", alice.ID)), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "http://minio.local:9000/petconnect/"+key, body["fileUrl"])
	assert.Contains(t, body["uploadUrl"], "X-Amz-Signature=")
	assert.Equal(t, float64(900), body["expiresIn"])

	tests := []struct {
		name string
		body PresignRequest
	}{
		{"bad folder", PresignRequest{FileName: "a.png", ContentType: "image/png", Folder: "secrets"}},
		{"bad type", PresignRequest{FileName: "a.svg", ContentType: "image/svg+xml", Folder: "pets"}},
		{"no name", PresignRequest{ContentType: "image/png", Folder: "pets"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(http.MethodPost, "/api/uploads/presign", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}
