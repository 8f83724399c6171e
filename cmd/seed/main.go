package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/learnhub/learnhub-api/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	fmt.Println("LearnHub - Database Seeding")
	fmt.Println()

	if err := database.RunSeeds(store.DB()); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	fmt.Println()
	fmt.Println("🎉 Seeding completed successfully!")
	fmt.Println("Admin user is created from ADMIN_EMAIL and ADMIN_PASSWORD; when unset it is skipped.")
}
