package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"petconnect/internal/models"
	"petconnect/internal/repository"
	"petconnect/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type published struct {
	userID uint
	dto    models.NotificationDTO
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, userID uint, dto models.NotificationDTO) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{userID: userID, dto: dto})
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

type staticFlags map[string]bool

func (f staticFlags) Enabled(name string, _ uint) bool { return f[name] }

// testEnv wires real repositories over an in-memory SQLite database.
type testEnv struct {
	db            *gorm.DB
	users         repository.UserRepository
	pets          repository.PetRepository
	posts         repository.PostRepository
	comments      repository.CommentRepository
	follows       repository.FollowRepository
	notifications repository.NotificationRepository
	categories    repository.CategoryRepository
	products      repository.ProductRepository
	carts         repository.CartRepository
	orders        repository.OrderRepository
	reports       repository.MissingPetRepository
	publisher     *recordingPublisher
	notifier      *NotificationService
	isAdmin       func(context.Context, uint) (bool, error)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	e := &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		pets:          repository.NewPetRepository(db),
		posts:         repository.NewPostRepository(db),
		comments:      repository.NewCommentRepository(db),
		follows:       repository.NewFollowRepository(db),
		notifications: repository.NewNotificationRepository(db),
		categories:    repository.NewCategoryRepository(db),
		products:      repository.NewProductRepository(db),
		carts:         repository.NewCartRepository(db),
		orders:        repository.NewOrderRepository(db),
		reports:       repository.NewMissingPetRepository(db),
		publisher:     &recordingPublisher{},
	}
	e.notifier = NewNotificationService(e.notifications, e.publisher)
	e.isAdmin = AdminChecker(e.users)
	return e
}

func (e *testEnv) notificationsFor(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("id ASC").Find(&out).Error)
	return out
}

func (e *testEnv) createPet(t *testing.T, ownerID uint, name, species, breed string) *models.Pet {
	t.Helper()
	pet := &models.Pet{Name: name, Species: species, Breed: breed, Age: 3, UserID: ownerID}
	require.NoError(t, e.db.Create(pet).Error)
	return pet
}

func errCode(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
