package seed

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"petconnect/internal/database"
	"petconnect/internal/models"
	"petconnect/internal/observability"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers       int
	NumPosts       int
	NumMissing     int
	ShouldClean    bool
	SkipBcrypt     bool
	DryRun         bool
	BatchSize      int
	MaxDays        int
	RandSeed       int64
	CenterLat      float64
	CenterLon      float64
	RadiusKm       float64
	LocatedShare   float64
	Visibility     Distribution
	FollowsPerUser int
}

// Distribution splits posts between visibilities. Shares are normalised.
type Distribution struct {
	Public      float64
	Connections float64
}

var defaultDistribution = Distribution{Public: 0.7, Connections: 0.3}

// Presets are named seeding sizes accepted by the seed command.
var Presets = map[string]Options{
	"small": {NumUsers: 10, NumPosts: 30, NumMissing: 3},
	"demo":  {NumUsers: 50, NumPosts: 200, NumMissing: 12},
	"large": {NumUsers: 500, NumPosts: 3000, NumMissing: 80, SkipBcrypt: true},
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.MaxDays <= 0 {
		o.MaxDays = 90
	}
	if o.CenterLat == 0 && o.CenterLon == 0 {
		o.CenterLat, o.CenterLon = 40.7128, -74.0060
	}
	if o.RadiusKm <= 0 {
		o.RadiusKm = 15
	}
	if o.LocatedShare <= 0 {
		o.LocatedShare = 0.8
	}
	if o.Visibility.Public+o.Visibility.Connections <= 0 {
		o.Visibility = defaultDistribution
	}
	if o.FollowsPerUser <= 0 {
		o.FollowsPerUser = 4
	}
	return o
}

// computeCounts splits total posts according to d.
func computeCounts(total int, d Distribution) (public, connections int) {
	sum := d.Public + d.Connections
	if total <= 0 || sum <= 0 {
		return 0, 0
	}
	public = int(math.Round(float64(total) * d.Public / sum))
	if public > total {
		public = total
	}
	return public, total - public
}

// Summary reports what a seeding run produced.
type Summary struct {
	Users    int
	Pets     int
	Posts    int
	Comments int
	Likes    int
	Follows  int
	Products int
	Missing  int
}

// Seeder orchestrates a full demo dataset.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	log     *observability.Logger
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	opts = opts.withDefaults()
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts), log: observability.GlobalLogger}
}

// ApplyPreset merges the named preset's sizes into the seeder options.
func (s *Seeder) ApplyPreset(name string) error {
	p, ok := Presets[strings.ToLower(name)]
	if !ok {
		names := make([]string, 0, len(Presets))
		for n := range Presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(names, ", "))
	}
	s.opts.NumUsers, s.opts.NumPosts, s.opts.NumMissing = p.NumUsers, p.NumPosts, p.NumMissing
	s.opts.SkipBcrypt = s.opts.SkipBcrypt || p.SkipBcrypt
	s.factory = NewFactory(s.db, s.opts)
	return nil
}

// ClearAll removes every row from the application tables.
func (s *Seeder) ClearAll(ctx context.Context) error {
	if s.opts.DryRun {
		return nil
	}
	s.log.InfoContext(ctx, "clearing existing data")
	all := database.PersistentModels()

	if s.db.Dialector.Name() == "postgres" {
		tables := make([]string, 0, len(all))
		for _, m := range all {
			stmt := &gorm.Statement{DB: s.db}
			if err := stmt.Parse(m); err != nil {
				return err
			}
			tables = append(tables, stmt.Schema.Table)
		}
		return s.db.WithContext(ctx).
			Exec("TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE").Error
	}

	// children first
	for i := len(all) - 1; i >= 0; i-- {
		if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	return nil
}

// Seed populates the database with a connected demo community.
func (s *Seeder) Seed(ctx context.Context) (*Summary, error) {
	s.log.InfoContext(ctx, "starting database seeding",
		"users", s.opts.NumUsers, "posts", s.opts.NumPosts, "dry_run", s.opts.DryRun)

	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	sum := &Summary{}
	users, err := s.SeedUsers(ctx, s.opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	sum.Users = len(users)

	pets, err := s.SeedPets(ctx, users)
	if err != nil {
		return nil, fmt.Errorf("failed to create pets: %w", err)
	}
	sum.Pets = len(pets)

	if sum.Follows, err = s.SeedSocialMesh(ctx, users); err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}

	posts, err := s.SeedPosts(ctx, users, s.opts.NumPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	sum.Posts = len(posts)

	if sum.Likes, sum.Comments, err = s.SeedEngagement(ctx, users, posts); err != nil {
		return nil, fmt.Errorf("failed to create engagement: %w", err)
	}

	if sum.Products, err = s.SeedCatalog(ctx); err != nil {
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}

	if sum.Missing, err = s.SeedMissingReports(ctx, users, pets, s.opts.NumMissing); err != nil {
		return nil, fmt.Errorf("failed to create missing pet reports: %w", err)
	}

	s.log.InfoContext(ctx, "database seeding completed",
		"users", sum.Users, "pets", sum.Pets, "posts", sum.Posts, "follows", sum.Follows,
		"likes", sum.Likes, "comments", sum.Comments, "products", sum.Products, "missing", sum.Missing)
	return sum, nil
}

// SeedUsers creates count users. The first two are the fixed accounts
// "admin" (ADMIN role) and "demo", both located at the seed centre.
func (s *Seeder) SeedUsers(ctx context.Context, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	lat, lon := s.opts.CenterLat, s.opts.CenterLon

	fixed := []struct {
		username string
		fullName string
		role     models.Role
	}{
		{"admin", "PetConnect Admin", models.RoleAdmin},
		{"demo", "Demo Owner", models.RoleUser},
	}
	for i := 0; i < len(fixed) && i < count; i++ {
		acc := fixed[i]
		u, err := s.factory.CreateUser(ctx, func(u *models.User) {
			u.Username = acc.username
			u.Email = acc.username + "@example.com"
			u.FullName = acc.fullName
			u.Role = acc.role
			u.Latitude, u.Longitude = &lat, &lon
		})
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	for i := len(users); i < count; i++ {
		idx := i
		u, err := s.factory.CreateUser(ctx, func(u *models.User) {
			// suffix keeps usernames unique across large runs
			u.Username = fmt.Sprintf("%s_%d", u.Username, idx)
			u.Email = u.Username + "@example.com"
		})
		if err != nil {
			return nil, err
		}
		users = append(users, u)
		if i > 0 && i%100 == 0 {
			s.log.InfoContext(ctx, "seeding users", "created", i)
		}
	}
	return users, nil
}

// SeedPets gives each user between zero and three pets.
func (s *Seeder) SeedPets(ctx context.Context, users []*models.User) ([]*models.Pet, error) {
	var pets []*models.Pet
	for _, u := range users {
		n := s.factory.fake.Number(0, 3)
		for j := 0; j < n; j++ {
			p, err := s.factory.CreatePet(ctx, u)
			if err != nil {
				return nil, err
			}
			pets = append(pets, p)
		}
	}
	return pets, nil
}

type pairKey struct{ a, b uint }

func unorderedPair(x, y uint) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{x, y}
}

// SeedSocialMesh connects every user with a handful of others. Most edges are
// accepted connections; the rest stay pending. At most one edge exists per
// pair of users.
func (s *Seeder) SeedSocialMesh(ctx context.Context, users []*models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	seen := make(map[pairKey]bool)
	created := 0
	for _, u := range users {
		for k := 0; k < s.opts.FollowsPerUser; k++ {
			other := users[s.factory.fake.Number(0, len(users)-1)]
			key := unorderedPair(u.ID, other.ID)
			if other.ID == u.ID || seen[key] {
				continue
			}
			seen[key] = true
			status := models.FollowStatusAccepted
			if s.factory.fake.Number(1, 10) > 7 {
				status = models.FollowStatusPending
			}
			if err := s.factory.CreateFollow(ctx, u, other, status); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// SeedPosts creates total posts split by the visibility distribution.
func (s *Seeder) SeedPosts(ctx context.Context, users []*models.User, total int) ([]*models.Post, error) {
	if len(users) == 0 || total <= 0 {
		return nil, nil
	}
	public, connections := computeCounts(total, s.opts.Visibility)
	posts := make([]*models.Post, 0, total)
	for i := 0; i < public+connections; i++ {
		vis := models.VisibilityPublic
		if i >= public {
			vis = models.VisibilityConnections
		}
		author := users[s.factory.fake.Number(0, len(users)-1)]
		posts = append(posts, s.factory.BuildPost(author, vis))
	}
	if err := s.factory.CreatePostsBatch(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SeedEngagement adds likes and comments from random users to each post.
func (s *Seeder) SeedEngagement(ctx context.Context, users []*models.User, posts []*models.Post) (likes, comments int, err error) {
	if len(users) == 0 {
		return 0, 0, nil
	}
	for _, p := range posts {
		likers := make(map[uint]bool)
		for k := s.factory.fake.Number(0, min(len(users), 8)); k > 0; k-- {
			u := users[s.factory.fake.Number(0, len(users)-1)]
			if likers[u.ID] {
				continue
			}
			likers[u.ID] = true
			if err := s.factory.CreateLike(ctx, u, p); err != nil {
				return likes, comments, err
			}
			likes++
		}
		for k := s.factory.fake.Number(0, 3); k > 0; k-- {
			u := users[s.factory.fake.Number(0, len(users)-1)]
			if _, err := s.factory.CreateComment(ctx, u, p); err != nil {
				return likes, comments, err
			}
			comments++
		}
	}
	return likes, comments, nil
}

// SeedCatalog creates the shop categories and their products.
func (s *Seeder) SeedCatalog(ctx context.Context) (int, error) {
	names := make([]string, 0, len(categoryCatalog))
	for name := range categoryCatalog {
		names = append(names, name)
	}
	sort.Strings(names)

	created := 0
	for _, name := range names {
		category, err := s.factory.CreateCategory(ctx, name)
		if err != nil {
			return created, err
		}
		for _, product := range categoryCatalog[name] {
			if _, err := s.factory.CreateProduct(ctx, category, product); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// SeedMissingReports files count reports. Roughly a third are FOUND reports
// filed by strangers; the rest are MISSING reports for seeded pets.
func (s *Seeder) SeedMissingReports(ctx context.Context, users []*models.User, pets []*models.Pet, count int) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	owners := make(map[uint]*models.User, len(users))
	for _, u := range users {
		owners[u.ID] = u
	}

	created := 0
	for i := 0; i < count; i++ {
		var (
			reporter *models.User
			pet      *models.Pet
			status   = models.ReportStatusMissing
		)
		if len(pets) > 0 && i%3 != 2 {
			pet = pets[s.factory.fake.Number(0, len(pets)-1)]
			reporter = owners[pet.UserID]
		}
		if reporter == nil {
			reporter = users[s.factory.fake.Number(0, len(users)-1)]
			pet = nil
			status = models.ReportStatusFound
		}
		if _, err := s.factory.CreateMissingReport(ctx, reporter, pet, status); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
