package service

import (
	"context"
	"testing"

	"petconnect/internal/featureflags"
	"petconnect/internal/models"
	"petconnect/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseLat, baseLon = 40.0, -74.0

func newMissingPetService(env *testEnv, alerts bool) *MissingPetService {
	flags := staticFlags{featureflags.MissingPetAlerts: alerts}
	return NewMissingPetService(env.reports, env.pets, env.users, env.notifier, flags)
}

func strPtr(s string) *string { return &s }

func TestMissingPetService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newMissingPetService(env, false)
	ctx := context.Background()

	owner := testutil.CreateUser(t, env.db, "owner")
	other := testutil.CreateUser(t, env.db, "other")
	pet := env.createPet(t, owner.ID, "Rex", "Dog", "Beagle")

	tests := []struct {
		name string
		in   CreateReportInput
		code string
	}{
		{"someone else's pet", CreateReportInput{ReporterID: other.ID, PetID: &pet.ID, Latitude: baseLat, Longitude: baseLon}, models.CodeForbidden},
		{"unknown pet", CreateReportInput{ReporterID: owner.ID, PetID: func() *uint { id := uint(999); return &id }(), Latitude: baseLat, Longitude: baseLon}, models.CodeNotFound},
		{"no name", CreateReportInput{ReporterID: owner.ID, Species: "Dog", Latitude: baseLat, Longitude: baseLon}, models.CodeValidation},
		{"bad latitude", CreateReportInput{ReporterID: owner.ID, PetName: "Rex", Species: "Dog", Latitude: 91, Longitude: baseLon}, models.CodeValidation},
		{"reunited on create", CreateReportInput{ReporterID: owner.ID, PetName: "Rex", Species: "Dog", Latitude: baseLat, Longitude: baseLon, Status: "REUNITED"}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateReport(ctx, tt.in)
			assert.Equal(t, tt.code, errCode(err))
		})
	}

	report, err := svc.CreateReport(ctx, CreateReportInput{
		ReporterID:       owner.ID,
		PetID:            &pet.ID,
		PetName:          "ignored",
		LastSeenLocation: "Central Park",
		Latitude:         baseLat,
		Longitude:        baseLon,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rex", report.PetName)
	assert.Equal(t, "Dog", report.Species)
	require.NotNil(t, report.Breed)
	assert.Equal(t, "Beagle", *report.Breed)
	assert.Equal(t, models.ReportStatusMissing, report.Status)
}

func TestMissingPetService_AlertsNearbyUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reporter := testutil.CreateUser(t, env.db, "reporter", testutil.WithLocation(baseLat, baseLon))
	near := testutil.CreateUser(t, env.db, "near", testutil.WithLocation(baseLat+0.02, baseLon))
	far := testutil.CreateUser(t, env.db, "far", testutil.WithLocation(baseLat+0.1, baseLon))
	nowhere := testutil.CreateUser(t, env.db, "nowhere")

	in := CreateReportInput{
		ReporterID:       reporter.ID,
		PetName:          "Milo",
		Species:          "Cat",
		LastSeenLocation: "Elm Street",
		Latitude:         baseLat,
		Longitude:        baseLon,
	}

	_, err := newMissingPetService(env, false).CreateReport(ctx, in)
	require.NoError(t, err)
	assert.Empty(t, env.notificationsFor(t, near.ID), "alerts are flag gated")

	_, err = newMissingPetService(env, true).CreateReport(ctx, in)
	require.NoError(t, err)

	got := env.notificationsFor(t, near.ID)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationUrgent, got[0].Type)
	assert.Equal(t, "MISSING PET NEARBY: Milo (Cat) was last seen near Elm Street", got[0].Message)
	assert.Empty(t, env.notificationsFor(t, far.ID))
	assert.Empty(t, env.notificationsFor(t, nowhere.ID))
	assert.Empty(t, env.notificationsFor(t, reporter.ID))
}

func TestMissingPetService_FoundReportsDoNotAlert(t *testing.T) {
	env := newTestEnv(t)
	svc := newMissingPetService(env, true)

	finder := testutil.CreateUser(t, env.db, "finder", testutil.WithLocation(baseLat, baseLon))
	near := testutil.CreateUser(t, env.db, "near", testutil.WithLocation(baseLat+0.01, baseLon))

	_, err := svc.CreateReport(context.Background(), CreateReportInput{
		ReporterID: finder.ID, PetName: "Stray", Species: "Dog", Status: "FOUND",
		Latitude: baseLat, Longitude: baseLon,
	})
	require.NoError(t, err)
	assert.Empty(t, env.notificationsFor(t, near.ID))
}

func TestMissingPetService_SuggestsMatches(t *testing.T) {
	env := newTestEnv(t)
	svc := newMissingPetService(env, false)
	ctx := context.Background()

	loser := testutil.CreateUser(t, env.db, "loser")
	finder := testutil.CreateUser(t, env.db, "finder")
	distant := testutil.CreateUser(t, env.db, "distant")
	otherBreed := testutil.CreateUser(t, env.db, "otherbreed")

	lost, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: loser.ID, PetName: "Bella", Species: "Dog", Breed: strPtr("Labrador"), Latitude: baseLat, Longitude: baseLon})
	require.NoError(t, err)
	_, err = svc.CreateReport(ctx, CreateReportInput{ReporterID: distant.ID, PetName: "Max", Species: "Dog", Breed: strPtr("Labrador"), Latitude: baseLat + 1, Longitude: baseLon})
	require.NoError(t, err)
	_, err = svc.CreateReport(ctx, CreateReportInput{ReporterID: otherBreed.ID, PetName: "Bo", Species: "Dog", Breed: strPtr("Poodle"), Latitude: baseLat, Longitude: baseLon})
	require.NoError(t, err)

	found, err := svc.CreateReport(ctx, CreateReportInput{
		ReporterID: finder.ID, PetName: "Unknown", Species: "Dog", Breed: strPtr("labrador"),
		Status: "FOUND", Latitude: baseLat + 0.03, Longitude: baseLon,
	})
	require.NoError(t, err)

	finderInbox := env.notificationsFor(t, finder.ID)
	require.Len(t, finderInbox, 1)
	assert.Equal(t, models.NotificationMatchFound, finderInbox[0].Type)
	assert.Equal(t, "A potential match for your found pet was reported nearby!", finderInbox[0].Message)
	require.NotNil(t, finderInbox[0].SenderID)
	assert.Equal(t, loser.ID, *finderInbox[0].SenderID)
	require.NotNil(t, finderInbox[0].RelatedReportID)
	assert.Equal(t, found.ID, *finderInbox[0].RelatedReportID)

	loserInbox := env.notificationsFor(t, loser.ID)
	require.Len(t, loserInbox, 1)
	assert.Equal(t, "A potential match for the pet you reported was just posted!", loserInbox[0].Message)
	require.NotNil(t, loserInbox[0].SenderID)
	assert.Equal(t, finder.ID, *loserInbox[0].SenderID)
	require.NotNil(t, loserInbox[0].RelatedReportID)
	assert.Equal(t, lost.ID, *loserInbox[0].RelatedReportID)

	assert.Empty(t, env.notificationsFor(t, distant.ID))
	assert.Empty(t, env.notificationsFor(t, otherBreed.ID))
}

func TestMissingPetService_MatchMessageNamesLostPet(t *testing.T) {
	env := newTestEnv(t)
	svc := newMissingPetService(env, false)
	ctx := context.Background()

	finder := testutil.CreateUser(t, env.db, "finder")
	owner := testutil.CreateUser(t, env.db, "owner")

	_, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: finder.ID, PetName: "Unknown", Species: "Cat", Status: "FOUND", Latitude: baseLat, Longitude: baseLon})
	require.NoError(t, err)
	_, err = svc.CreateReport(ctx, CreateReportInput{ReporterID: owner.ID, PetName: "Tom", Species: "cat", Latitude: baseLat + 0.01, Longitude: baseLon})
	require.NoError(t, err)

	inbox := env.notificationsFor(t, owner.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, "A potential match for your lost pet was reported nearby!", inbox[0].Message)
	require.NotNil(t, inbox[0].SenderID)
	assert.Equal(t, finder.ID, *inbox[0].SenderID)
}

func TestBreedsMatch(t *testing.T) {
	assert.True(t, breedsMatch(nil, nil))
	assert.True(t, breedsMatch(strPtr("Husky"), strPtr("HUSKY")))
	assert.False(t, breedsMatch(strPtr("Husky"), nil))
	assert.False(t, breedsMatch(nil, strPtr("Husky")))
	assert.False(t, breedsMatch(strPtr("Husky"), strPtr("Akita")))
}

func TestMissingPetService_Nearby(t *testing.T) {
	env := newTestEnv(t)
	svc := newMissingPetService(env, false)
	ctx := context.Background()

	me := testutil.CreateUser(t, env.db, "me", testutil.WithLocation(baseLat, baseLon))
	other := testutil.CreateUser(t, env.db, "other")
	lost := testutil.CreateUser(t, env.db, "lost")

	create := func(reporter uint, name string, lat float64) {
		t.Helper()
		_, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: reporter, PetName: name, Species: "Cat", Latitude: lat, Longitude: baseLon})
		require.NoError(t, err)
	}
	create(other.ID, "close", baseLat+0.05)
	create(other.ID, "closest", baseLat+0.01)
	create(other.ID, "faraway", baseLat+1)
	create(me.ID, "mine-far", baseLat+2)

	hits, err := svc.Nearby(ctx, me.ID, 10)
	require.NoError(t, err)
	names := make([]string, 0, len(hits))
	for _, h := range hits {
		names = append(names, h.PetName)
	}
	assert.Equal(t, []string{"closest", "close", "mine-far"}, names)
	assert.InDelta(t, 1.11, hits[0].Distance, 0.01)

	// without a location everything is listed newest first at distance 0
	all, err := svc.Nearby(ctx, lost.ID, 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "mine-far", all[0].PetName)
	for _, r := range all {
		assert.Zero(t, r.Distance)
	}
}

func TestMissingPetService_StatusAndDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := newMissingPetService(env, false)
	ctx := context.Background()

	owner := testutil.CreateUser(t, env.db, "owner")
	other := testutil.CreateUser(t, env.db, "other")
	report, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: owner.ID, PetName: "Rex", Species: "Dog", Latitude: baseLat, Longitude: baseLon})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, other.ID, report.ID, "REUNITED")
	assert.Equal(t, models.CodeForbidden, errCode(err))
	_, err = svc.UpdateStatus(ctx, owner.ID, report.ID, "LOST")
	assert.Equal(t, models.CodeValidation, errCode(err))

	updated, err := svc.UpdateStatus(ctx, owner.ID, report.ID, "reunited")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusReunited, updated.Status)

	assert.Equal(t, models.CodeForbidden, errCode(svc.DeleteReport(ctx, other.ID, report.ID)))
	require.NoError(t, svc.DeleteReport(ctx, owner.ID, report.ID))
	_, err = svc.GetReport(ctx, report.ID)
	assert.Equal(t, models.CodeNotFound, errCode(err))
}

func TestMissingPetService_Contact(t *testing.T) {
	env := newTestEnv(t)
	svc := newMissingPetService(env, false)
	ctx := context.Background()

	owner := testutil.CreateUser(t, env.db, "owner")
	helper := testutil.CreateUser(t, env.db, "helper")
	report, err := svc.CreateReport(ctx, CreateReportInput{ReporterID: owner.ID, PetName: "Rex", Species: "Dog", Latitude: baseLat, Longitude: baseLon})
	require.NoError(t, err)

	_, err = svc.Contact(ctx, owner.ID, report.ID, "found him?")
	assert.Equal(t, models.CodeValidation, errCode(err))
	_, err = svc.Contact(ctx, helper.ID, report.ID, "  ")
	assert.Equal(t, models.CodeValidation, errCode(err))

	contact, err := svc.Contact(ctx, helper.ID, report.ID, "I saw him near the lake")
	require.NoError(t, err)
	assert.Equal(t, "helper@example.com", contact.ContactEmail)
	assert.Equal(t, "555-0100", contact.ContactPhone)

	inbox := env.notificationsFor(t, owner.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationUrgent, inbox[0].Type)
	assert.Equal(t, "helper Tester contacted you about your missing pet report!", inbox[0].Message)
	require.NotNil(t, inbox[0].SenderID)
	assert.Equal(t, helper.ID, *inbox[0].SenderID)

	_, err = svc.ListContacts(ctx, helper.ID, report.ID)
	assert.Equal(t, models.CodeForbidden, errCode(err))
	contacts, err := svc.ListContacts(ctx, owner.ID, report.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	require.NotNil(t, contacts[0].ContactUser)
	assert.Equal(t, "helper Tester", contacts[0].ContactUser.FullName)

	fetched, err := svc.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.ContactCount)
}
