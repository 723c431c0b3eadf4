package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"petconnect/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        uint
		mockBehavior  func()
		expectedUser  *models.User
		expectedCode  string
		expectedError bool
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).
					AddRow(1, "testuser", "test@example.com")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Username: "testuser", Email: "test@example.com"},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedCode:  models.CodeNotFound,
			expectedError: true,
		},
		{
			name:   "Database Error",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(2, 1).
					WillReturnError(errors.New("connection timeout"))
			},
			expectedCode:  models.CodeInternal,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedError {
				assert.Error(t, err)
				assert.True(t, models.IsCode(err, tt.expectedCode))
				assert.Nil(t, user)
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedUser.Username, user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		email := "test@example.com"
		rows := sqlmock.NewRows([]string{"id", "email", "password"}).AddRow(1, email, "hash")
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 ORDER BY "users"."id" LIMIT $2`)).
			WithArgs(email, 1).
			WillReturnRows(rows)

		user, err := repo.GetByEmail(ctx, email)
		assert.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "hash", user.Password)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		email := "ghost@example.com"
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
			WithArgs(email, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.GetByEmail(ctx, email)
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		user := &models.User{Username: "newuser", Email: "new@example.com"}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(ctx, user))
		assert.Equal(t, models.RoleUser, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate", func(t *testing.T) {
		user := &models.User{Username: "taken", Email: "taken@example.com"}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
			WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`))
		mock.ExpectRollback()

		err := repo.Create(ctx, user)
		assert.True(t, models.IsCode(err, models.CodeConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdateKeepsPassword(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "alice")
	// a cached copy has no password; updating from it must not blank the column
	edit := &models.User{ID: u.ID, Username: "alice2", Email: u.Email, FullName: "Alice Two", Bio: "hi"}
	require.NoError(t, repo.Update(ctx, edit))

	stored, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, "alice2", stored.Username)
	assert.Equal(t, "Alice Two", stored.FullName)
	assert.Equal(t, "hash", stored.Password)
	assert.Equal(t, models.RoleUser, stored.Role)
}

func TestUserRepository_ExistsExcludesSelf(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	taken, err := repo.ExistsByUsername(ctx, "alice", bob.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ExistsByUsername(ctx, "alice", alice.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.ExistsByEmail(ctx, "nobody@example.com", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepository_UpdateLocationAndRole(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "carol")
	require.NoError(t, repo.UpdateLocation(ctx, u.ID, 40.7, -74.0))
	require.NoError(t, repo.UpdateRole(ctx, u.ID, models.RoleAdmin))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.HasLocation())
	assert.InDelta(t, 40.7, *got.Latitude, 1e-9)
	assert.True(t, got.IsAdmin())

	err = repo.UpdateRole(ctx, 999, models.RoleUser)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	victim := createUser(t, db, "victim")
	other := createUser(t, db, "other")

	post := createPost(t, db, victim.ID, "mine", models.VisibilityPublic)
	otherPost := createPost(t, db, other.ID, "theirs", models.VisibilityPublic)
	require.NoError(t, db.Create(&models.PostLike{UserID: other.ID, PostID: post.ID}).Error)
	require.NoError(t, db.Create(&models.PostLike{UserID: victim.ID, PostID: otherPost.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{UserID: other.ID, PostID: post.ID, Content: "nice"}).Error)
	require.NoError(t, db.Create(&models.Pet{UserID: victim.ID, Name: "Rex", Species: "Dog"}).Error)
	connect(t, db, other.ID, victim.ID, models.FollowStatusAccepted)
	require.NoError(t, db.Create(&models.Notification{UserID: victim.ID, Type: models.NotificationLike, Message: "x"}).Error)
	report := &models.MissingPetReport{PetName: "Rex", Species: "Dog", ReporterID: victim.ID, Latitude: 1, Longitude: 1}
	require.NoError(t, db.Create(report).Error)
	require.NoError(t, db.Create(&models.MissingPetContact{ReportID: report.ID, ContactUserID: other.ID, Message: "seen"}).Error)
	product := createProduct(t, db, "Kibble", 10, 5)
	require.NoError(t, db.Create(&models.CartItem{UserID: victim.ID, ProductID: product.ID, Quantity: 1}).Error)
	require.NoError(t, db.Create(&models.Order{UserID: victim.ID, TotalPrice: 10, Status: models.OrderStatusPaid,
		Items: []models.OrderItem{{ProductID: product.ID, Quantity: 1, PriceAtPurchase: 10}}}).Error)

	require.NoError(t, repo.Delete(ctx, victim.ID))

	count := func(model any) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(1), count(&models.User{}))
	assert.Equal(t, int64(1), count(&models.Post{}))
	assert.Zero(t, count(&models.PostLike{}))
	assert.Zero(t, count(&models.Comment{}))
	assert.Zero(t, count(&models.Pet{}))
	assert.Zero(t, count(&models.Follow{}))
	assert.Zero(t, count(&models.Notification{}))
	assert.Zero(t, count(&models.MissingPetReport{}))
	assert.Zero(t, count(&models.MissingPetContact{}))
	assert.Zero(t, count(&models.CartItem{}))
	assert.Zero(t, count(&models.Order{}))
	assert.Zero(t, count(&models.OrderItem{}))

	err := repo.Delete(ctx, victim.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_SearchAndSuggestions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	me := createUser(t, db, "me")
	createUser(t, db, "root", asAdmin)
	friend := createUser(t, db, "friendly")
	pending := createUser(t, db, "pendingpal")
	stranger := createUser(t, db, "stranger")
	connect(t, db, me.ID, friend.ID, models.FollowStatusAccepted)
	connect(t, db, pending.ID, me.ID, models.FollowStatusPending)

	hits, err := repo.Search(ctx, "STRANGER", me.ID, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, stranger.ID, hits[0].ID)

	hits, err = repo.Search(ctx, "root", me.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "admins are never returned")

	suggestions, err := repo.Suggestions(ctx, me.ID, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, stranger.ID, suggestions[0].ID)
}

func TestUserRepository_ListWithLocation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	me := createUser(t, db, "me", withLocation(1, 1))
	located := createUser(t, db, "located", withLocation(1.01, 1.01))
	createUser(t, db, "nowhere")

	users, err := repo.ListWithLocation(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, located.ID, users[0].ID)
}
