package repository

import (
	"context"
	"testing"

	"petconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingPetRepository_ContactCountAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMissingPetRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner")
	helper := createUser(t, db, "helper")

	report := &models.MissingPetReport{PetName: "Rex", Species: "Dog", ReporterID: owner.ID, Latitude: 10, Longitude: 10}
	require.NoError(t, repo.Create(ctx, report))
	assert.Equal(t, models.ReportStatusMissing, report.Status)

	for _, msg := range []string{"seen him", "again"} {
		require.NoError(t, repo.CreateContact(ctx, &models.MissingPetContact{
			ReportID: report.ID, ContactUserID: helper.ID, Message: msg, ContactEmail: helper.Email,
		}))
	}

	got, err := repo.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ContactCount)
	require.NotNil(t, got.Reporter)
	assert.Equal(t, owner.FullName, got.Reporter.FullName)

	contacts, err := repo.ListContacts(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	require.NotNil(t, contacts[0].ContactUser)
	assert.Equal(t, helper.FullName, contacts[0].ContactUser.FullName)

	require.NoError(t, repo.Delete(ctx, report.ID))
	var n int64
	db.Model(&models.MissingPetContact{}).Count(&n)
	assert.Zero(t, n)

	_, err = repo.GetByID(ctx, report.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestMissingPetRepository_MatchCandidates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMissingPetRepository(db)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	mk := func(reporter uint, species string, status models.ReportStatus) *models.MissingPetReport {
		r := &models.MissingPetReport{PetName: "x", Species: species, Status: status, ReporterID: reporter}
		require.NoError(t, repo.Create(ctx, r))
		return r
	}
	fresh := mk(a.ID, "Dog", models.ReportStatusMissing)
	found := mk(b.ID, "dog", models.ReportStatusFound)
	mk(b.ID, "Cat", models.ReportStatusFound)
	mk(b.ID, "Dog", models.ReportStatusMissing)
	mk(b.ID, "Dog", models.ReportStatusReunited)

	candidates, err := repo.ListMatchCandidates(ctx, fresh.ID, models.ReportStatusFound, "DOG")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, found.ID, candidates[0].ID)

	require.NoError(t, repo.UpdateStatus(ctx, found.ID, models.ReportStatusReunited))
	open, err := repo.CountByStatus(ctx, models.ReportStatusMissing)
	require.NoError(t, err)
	assert.Equal(t, int64(2), open)

	mine, err := repo.ListByReporter(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestNotificationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "u")
	other := createUser(t, db, "other")
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{UserID: u.ID, Type: models.NotificationLike, Message: "liked"}))
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: other.ID, Type: models.NotificationComment, Message: "c"}))

	list, err := repo.ListByUser(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Greater(t, list[0].ID, list[2].ID, "newest first")

	require.NoError(t, repo.MarkRead(ctx, list[0].ID))
	unread, err := repo.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	n, err := repo.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = repo.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestPetRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPetRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner")
	pet := &models.Pet{Name: "Rex", Species: "Dog", Breed: "Lab", Age: 3, UserID: owner.ID}
	require.NoError(t, repo.Create(ctx, pet))
	require.NotNil(t, pet.User)
	assert.Equal(t, owner.FullName, models.NewPetDTO(pet).OwnerName)

	pet.Age = 4
	pet.Name = "Rexy"
	require.NoError(t, repo.Update(ctx, pet))

	pets, err := repo.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, "Rexy", pets[0].Name)
	assert.Equal(t, 4, pets[0].Age)

	require.NoError(t, repo.Delete(ctx, pet.ID))
	_, err = repo.GetByID(ctx, pet.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
