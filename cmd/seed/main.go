// Command main runs the database seeder for PetConnect.
package main

import (
	"context"
	"flag"
	"log"

	"petconnect/internal/bootstrap"
	"petconnect/internal/config"
	"petconnect/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	numMissing := flag.Int("missing", 12, "Number of missing pet reports to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a sizing preset (small, demo, large)")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	fast := flag.Bool("fast", false, "Store passwords unhashed (local development only)")
	randSeed := flag.Int64("rand-seed", 0, "Fixed random seed for reproducible data")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		NumMissing:  *numMissing,
		ShouldClean: *shouldClean,
		DryRun:      *dryRun,
		SkipBcrypt:  *fast,
		RandSeed:    *randSeed,
	})
	if *preset != "" {
		log.Printf("Applying preset: %s (ignoring size flags)\n", *preset)
		if err := s.ApplyPreset(*preset); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	sum, err := s.Seed(context.Background())
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Created %d users, %d pets, %d posts, %d products, %d missing pet reports",
		sum.Users, sum.Pets, sum.Posts, sum.Products, sum.Missing)
	log.Printf("📧 All seeded users have the password: %s (admin account: admin@example.com)", seed.DefaultPassword)
}
