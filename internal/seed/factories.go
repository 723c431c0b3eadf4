// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math"
	"time"

	"petconnect/internal/geo"
	"petconnect/internal/models"
	"petconnect/internal/observability"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the login password of every seeded account.
const DefaultPassword = "password123"

const kmPerDegreeLat = 111.32

var (
	speciesChoices  = []string{"Dog", "Dog", "Cat", "Cat", "Rabbit", "Bird"}
	landmarkSuffix  = []string{"Park", "Square", "Market", "Station", "Library", "Playground"}
	categoryCatalog = map[string][]string{
		"Food":        {"Grain-Free Kibble", "Salmon Pate", "Puppy Starter Mix", "Senior Cat Formula"},
		"Toys":        {"Rope Tug", "Feather Wand", "Squeaky Hedgehog", "Puzzle Feeder"},
		"Accessories": {"Reflective Leash", "Padded Harness", "Travel Crate", "ID Tag"},
		"Health":      {"Flea Drops", "Joint Chews", "Dental Sticks", "Probiotic Powder"},
		"Grooming":    {"Slicker Brush", "Oatmeal Shampoo", "Nail Clippers", "Deshedding Glove"},
	}
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	fake *gofakeit.Faker
	// synthetic ID counter when running in DryRun mode
	nextID uint
	hash   string
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A nil DB is
// only valid together with Options.DryRun.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts.withDefaults(), fake: gofakeit.New(seed), nextID: 1000}
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}

func (f *Factory) password() string {
	if f.opts.SkipBcrypt {
		return DefaultPassword
	}
	if f.hash == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return DefaultPassword
		}
		f.hash = string(hashed)
	}
	return f.hash
}

func (f *Factory) dryRun(ctx context.Context, kind string, fields map[string]any) {
	observability.GlobalLogger.InfoContext(ctx, "seed dry-run", "entity", kind, "fields", fields)
}

// createdAt spreads timestamps over the last MaxDays.
func (f *Factory) createdAt() time.Time {
	back := time.Duration(f.fake.Number(0, f.opts.MaxDays-1))*24*time.Hour +
		time.Duration(f.fake.Number(0, 23))*time.Hour +
		time.Duration(f.fake.Number(0, 59))*time.Minute
	return time.Now().Add(-back)
}

// RandomPoint returns a coordinate uniformly spread within the configured
// radius of the seed centre.
func (f *Factory) RandomPoint() (float64, float64) {
	dist := f.opts.RadiusKm * math.Sqrt(f.fake.Float64Range(0, 1))
	bearing := f.fake.Float64Range(0, 2*math.Pi)
	dLat := dist * math.Cos(bearing) / kmPerDegreeLat
	dLon := dist * math.Sin(bearing) / (kmPerDegreeLat * math.Cos(f.opts.CenterLat*math.Pi/180))
	return roundCoord(f.opts.CenterLat + dLat), roundCoord(f.opts.CenterLon + dLon)
}

func roundCoord(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// BuildUser constructs a user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := f.fake.FirstName(), f.fake.LastName()
	username := fmt.Sprintf("%s%d", f.fake.Username(), f.fake.Number(100, 999))
	if len(username) > 40 {
		username = username[:40]
	}
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: f.password(),
		FullName: first + " " + last,
		Phone:    f.fake.Phone(),
		Bio:      f.fake.Sentence(10),
		ImageURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.fake.UUID()),
		Role:     models.RoleUser,
	}
	if f.fake.Float64Range(0, 1) < f.opts.LocatedShare {
		lat, lon := f.RandomPoint()
		user.Latitude, user.Longitude = &lat, &lon
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a sample `models.User`.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if f.opts.DryRun {
		user.ID = f.syntheticID()
		f.dryRun(ctx, "user", map[string]any{"id": user.ID, "username": user.Username})
		return user, nil
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePet persists a pet owned by user.
func (f *Factory) CreatePet(ctx context.Context, user *models.User, overrides ...func(*models.Pet)) (*models.Pet, error) {
	species := speciesChoices[f.fake.Number(0, len(speciesChoices)-1)]
	pet := &models.Pet{
		Name:     f.fake.PetName(),
		Species:  species,
		Breed:    f.breed(species),
		Age:      f.fake.Number(0, 15),
		ImageURL: fmt.Sprintf("https://picsum.photos/seed/pet-%s/600/600", f.fake.UUID()),
		UserID:   user.ID,
	}
	for _, override := range overrides {
		override(pet)
	}
	if f.opts.DryRun {
		pet.ID = f.syntheticID()
		f.dryRun(ctx, "pet", map[string]any{"id": pet.ID, "name": pet.Name, "owner": user.ID})
		return pet, nil
	}
	if err := f.db.WithContext(ctx).Create(pet).Error; err != nil {
		return nil, err
	}
	return pet, nil
}

func (f *Factory) breed(species string) string {
	switch species {
	case "Dog":
		return f.fake.Dog()
	case "Cat":
		return f.fake.Cat()
	default:
		return ""
	}
}

// BuildPost constructs a post with a realistic created_at spread but does
// not persist it. Useful for batching.
func (f *Factory) BuildPost(user *models.User, vis models.Visibility, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Title:       f.fake.Sentence(5),
		Description: f.fake.Paragraph(1, 3, 12, "\n"),
		Visibility:  vis,
		UserID:      user.ID,
		CreatedAt:   f.createdAt(),
	}
	if f.fake.Bool() {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.fake.UUID())
	}
	post.UpdatedAt = post.CreatedAt
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in chunks of Options.BatchSize.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = f.syntheticID()
		}
		f.dryRun(ctx, "posts", map[string]any{"count": len(posts)})
		return nil
	}
	return f.db.WithContext(ctx).CreateInBatches(posts, f.opts.BatchSize).Error
}

// CreateComment constructs and persists a sample `models.Comment` on the
// provided post authored by the provided user.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content: f.fake.Sentence(8),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if f.opts.DryRun {
		comment.ID = f.syntheticID()
		return comment, nil
	}
	if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from `user` on `post`.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.WithContext(ctx).Create(&models.PostLike{UserID: user.ID, PostID: post.ID}).Error
}

// CreateFollow persists a follow edge between two users.
func (f *Factory) CreateFollow(ctx context.Context, follower, following *models.User, status models.FollowStatus) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.WithContext(ctx).Create(&models.Follow{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
		Status:      status,
	}).Error
}

// CreateCategory returns the named category, creating it when absent.
func (f *Factory) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	category := &models.Category{Name: name, Description: f.fake.Sentence(8)}
	if f.opts.DryRun {
		category.ID = f.syntheticID()
		return category, nil
	}
	err := f.db.WithContext(ctx).
		Where(models.Category{Name: name}).
		Attrs(models.Category{Description: category.Description}).
		FirstOrCreate(category).Error
	if err != nil {
		return nil, err
	}
	return category, nil
}

// CreateProduct persists a product in category. Some products are seeded
// out of stock so the unavailable path is visible in the shop.
func (f *Factory) CreateProduct(ctx context.Context, category *models.Category, name string) (*models.Product, error) {
	product := &models.Product{
		Name:        name,
		Description: f.fake.Paragraph(1, 2, 10, " "),
		Price:       geo.Round2(f.fake.Price(3, 80)),
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/product-%s/600/600", f.fake.UUID()),
		CategoryID:  category.ID,
	}
	if f.fake.Number(1, 10) > 1 {
		product.Quantity = f.fake.Number(1, 60)
	}
	product.SyncAvailability()
	if f.opts.DryRun {
		product.ID = f.syntheticID()
		return product, nil
	}
	if err := f.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// CreateMissingReport persists a report filed by reporter near the seed
// centre. A non-nil pet links the report to that pet.
func (f *Factory) CreateMissingReport(ctx context.Context, reporter *models.User, pet *models.Pet, status models.ReportStatus) (*models.MissingPetReport, error) {
	lat, lon := f.RandomPoint()
	report := &models.MissingPetReport{
		Description:      f.fake.Sentence(14),
		LastSeenLocation: fmt.Sprintf("%s %s", f.fake.LastName(), landmarkSuffix[f.fake.Number(0, len(landmarkSuffix)-1)]),
		Latitude:         lat,
		Longitude:        lon,
		ImageURL:         fmt.Sprintf("https://picsum.photos/seed/missing-%s/600/600", f.fake.UUID()),
		Status:           status,
		ReporterID:       reporter.ID,
	}
	if pet != nil {
		report.PetID = &pet.ID
		report.PetName = pet.Name
		report.Species = pet.Species
		if pet.Breed != "" {
			breed := pet.Breed
			report.Breed = &breed
		}
	} else {
		report.Species = speciesChoices[f.fake.Number(0, len(speciesChoices)-1)]
		report.PetName = "Unknown " + report.Species
	}
	if f.opts.DryRun {
		report.ID = f.syntheticID()
		f.dryRun(ctx, "missing_pet_report", map[string]any{"id": report.ID, "pet": report.PetName})
		return report, nil
	}
	if err := f.db.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}
