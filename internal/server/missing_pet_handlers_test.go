package server

import (
	"fmt"
	"net/http"
	"testing"

	"petconnect/internal/config"
	"petconnect/internal/models"
	"petconnect/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingReport(name string, lat, lon float64) MissingReportRequest {
	return MissingReportRequest{
		PetName:          name,
		Species:          "Dog",
		Description:      "Brown with a red collar",
		LastSeenLocation: "Riverside Park",
		Latitude:         ptr(lat),
		Longitude:        ptr(lon),
	}
}

func countNotifications(t *testing.T, ts *testServer, userID uint, typ models.NotificationType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, ts.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, typ).Count(&n).Error)
	return n
}

func TestCreateMissingReport_AlertsNeighbours(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, "owner", testutil.WithLocation(40.0, -74.0))
	near := testutil.CreateUser(t, ts.db, "near", testutil.WithLocation(40.02, -74.0))
	far := testutil.CreateUser(t, ts.db, "far", testutil.WithLocation(40.2, -74.0))

	resp := ts.do(http.MethodPost, "/api/missing-pets", ts.token(owner), missingReport("Rex", 40.0, -74.0))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	report := decode[models.MissingPetResponse](t, resp)
	assert.Equal(t, models.ReportStatusMissing, report.Status)
	assert.Equal(t, "owner Tester", report.ReporterName)

	assert.Equal(t, int64(1), countNotifications(t, ts, near.ID, models.NotificationUrgent))
	assert.Zero(t, countNotifications(t, ts, far.ID, models.NotificationUrgent))
	assert.Zero(t, countNotifications(t, ts, owner.ID, models.NotificationUrgent))

	var note models.Notification
	require.NoError(t, ts.db.Where("user_id = ?", near.ID).First(&note).Error)
	assert.Equal(t, "MISSING PET NEARBY: Rex (Dog) was last seen near Riverside Park", note.Message)
}

func TestCreateMissingReport_AlertsBehindFlag(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.FeatureFlags = "missing_pet_alerts=off" })
	owner := testutil.CreateUser(t, ts.db, "owner", testutil.WithLocation(40.0, -74.0))
	near := testutil.CreateUser(t, ts.db, "near", testutil.WithLocation(40.001, -74.0))

	resp := ts.do(http.MethodPost, "/api/missing-pets", ts.token(owner), missingReport("Rex", 40.0, -74.0))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Zero(t, countNotifications(t, ts, near.ID, models.NotificationUrgent))
}

func TestCreateMissingReport_Validation(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, "owner")
	other := testutil.CreateUser(t, ts.db, "other")
	pet := &models.Pet{Name: "Milo", Species: "Cat", UserID: other.ID}
	require.NoError(t, ts.db.Create(pet).Error)

	noCoords := missingReport("Rex", 0, 0)
	noCoords.Latitude = nil

	badStatus := missingReport("Rex", 1, 1)
	badStatus.Status = "REUNITED"

	notMine := missingReport("Milo", 1, 1)
	notMine.PetID = &pet.ID

	tests := []struct {
		name   string
		body   MissingReportRequest
		status int
	}{
		{"missing coordinates", noCoords, http.StatusBadRequest},
		{"out of range", missingReport("Rex", 95, 0), http.StatusBadRequest},
		{"missing name", missingReport("", 1, 1), http.StatusBadRequest},
		{"reunited is not a report status", badStatus, http.StatusBadRequest},
		{"someone else's pet", notMine, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(http.MethodPost, "/api/missing-pets", ts.token(owner), tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestMissingReport_MatchSuggestion(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.FeatureFlags = "" })
	loser := testutil.CreateUser(t, ts.db, "loser")
	finder := testutil.CreateUser(t, ts.db, "finder")

	resp := ts.do(http.MethodPost, "/api/missing-pets", ts.token(loser), missingReport("Rex", 40.0, -74.0))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	found := missingReport("Unknown dog", 40.05, -74.0)
	found.Status = "FOUND"
	resp = ts.do(http.MethodPost, "/api/missing-pets", ts.token(finder), found)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, int64(1), countNotifications(t, ts, loser.ID, models.NotificationMatchFound))
	assert.Equal(t, int64(1), countNotifications(t, ts, finder.ID, models.NotificationMatchFound))
}

func TestMissingReport_ContactAndLifecycle(t *testing.T) {
	ts := newTestServer(t)
	owner := testutil.CreateUser(t, ts.db, "owner")
	helper := testutil.CreateUser(t, ts.db, "helper")

	resp := ts.do(http.MethodPost, "/api/missing-pets", ts.token(owner), missingReport("Rex", 40.0, -74.0))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	report := decode[models.MissingPetResponse](t, resp)
	base := fmt.Sprintf("/api/missing-pets/%d", report.ID)

	resp = ts.do(http.MethodPost, base+"/contact", ts.token(owner), ContactRequest{Message: "me"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(http.MethodPost, base+"/contact", ts.token(helper), ContactRequest{Message: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(http.MethodPost, base+"/contact", ts.token(helper), ContactRequest{Message: "Saw him by the bridge"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	contact := decode[models.ContactResponse](t, resp)
	assert.Equal(t, "helper@example.com", contact.ContactEmail)
	assert.Equal(t, "555-0100", contact.ContactPhone)
	assert.Equal(t, "helper Tester", contact.ContactUserName)
	assert.Equal(t, int64(1), countNotifications(t, ts, owner.ID, models.NotificationUrgent))

	resp = ts.do(http.MethodGet, base+"/contacts", ts.token(helper), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(http.MethodGet, base+"/contacts", ts.token(owner), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.ContactResponse](t, resp), 1)

	resp = ts.do(http.MethodGet, base, ts.token(helper), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[models.MissingPetResponse](t, resp).ContactCount)

	resp = ts.do(http.MethodPatch, base+"/status", ts.token(helper), StatusRequest{Status: "FOUND"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(http.MethodPatch, base+"/status", ts.token(owner), StatusRequest{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(http.MethodPatch, base+"/status", ts.token(owner), StatusRequest{Status: "REUNITED"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ReportStatusReunited, decode[models.MissingPetResponse](t, resp).Status)

	resp = ts.do(http.MethodDelete, base, ts.token(helper), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(http.MethodDelete, base, ts.token(owner), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(http.MethodGet, base, ts.token(owner), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetNearbyMissingReports(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.FeatureFlags = "" })
	me := testutil.CreateUser(t, ts.db, "me", testutil.WithLocation(40.0, -74.0))
	nomad := testutil.CreateUser(t, ts.db, "nomad")
	other := testutil.CreateUser(t, ts.db, "other")

	for _, r := range []struct {
		user *models.User
		name string
		lat  float64
	}{
		{other, "close", 40.03},
		{other, "far", 41.0},
		{me, "mine far away", 45.0},
	} {
		resp := ts.do(http.MethodPost, "/api/missing-pets", ts.token(r.user), missingReport(r.name, r.lat, -74.0))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := ts.do(http.MethodGet, "/api/missing-pets/nearby", ts.token(me), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reports := decode[[]models.MissingPetResponse](t, resp)
	require.Len(t, reports, 2, "own reports are always included")
	assert.Equal(t, "close", reports[0].PetName)
	assert.InDelta(t, 3.34, reports[0].Distance, 0.01)
	assert.Equal(t, "mine far away", reports[1].PetName)

	resp = ts.do(http.MethodGet, "/api/missing-pets/nearby", ts.token(nomad), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[[]models.MissingPetResponse](t, resp)
	assert.Len(t, all, 3)
	for _, r := range all {
		assert.Zero(t, r.Distance)
	}

	resp = ts.do(http.MethodGet, "/api/missing-pets/me", ts.token(me), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.MissingPetResponse](t, resp), 1)

	resp = ts.do(http.MethodGet, "/api/missing-pets/nearby?radius=NaN", ts.token(me), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
