// Command seed loads the demo marketplace, or generated fake data, into the database.
package main

import (
	"context"
	"flag"
	"log"

	"thrift/internal/config"
	"thrift/internal/database"
	"thrift/internal/seed"
)

func main() {
	numUsers := flag.Int("fake", 0, "Generate this many fake users instead of the demo dataset")
	itemsPerUser := flag.Int("items", 3, "Listings per fake user")
	fakeSeed := flag.Int64("seed", 0, "Random seed for fake data (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	ctx := context.Background()

	if *numUsers > 0 {
		users, err := seed.NewFactory(*fakeSeed).Populate(ctx, db, *numUsers, *itemsPerUser)
		if err != nil {
			log.Fatalf("Fake data seeding failed: %v", err)
		}
		log.Printf("Created %d users with %d listings each", len(users), *itemsPerUser)
		return
	}

	ds, err := seed.Demo()
	if err != nil {
		log.Fatalf("Failed to load demo data: %v", err)
	}
	seeded, err := seed.Apply(ctx, db, ds)
	if err != nil {
		log.Fatalf("Demo seeding failed: %v", err)
	}
	if !seeded {
		log.Println("Database already has users, demo data skipped")
		return
	}
	log.Printf("Seeded %d users, %d items and %d chats", len(ds.Users), len(ds.Items), len(ds.Chats))
}
