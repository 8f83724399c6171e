package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/learnhub/learnhub-api/database"
	"github.com/learnhub/learnhub-api/model"
)

// Small ops tool: dumps the most recent scheduled-job runs so you can
// check counter reconciliation and cleanup health without a DB client.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	var logs []model.CronJobLog
	err = store.DB().Order("started_at DESC").Limit(20).Find(&logs).Error
	if err != nil {
		log.Fatalf("Failed to fetch cron job logs: %v", err)
	}

	separator := strings.Repeat("=", 72)
	fmt.Println(separator)
	fmt.Println("Recent scheduled job runs")
	fmt.Println(separator)

	if len(logs) == 0 {
		fmt.Println("No job runs recorded yet.")
		return
	}

	for _, entry := range logs {
		status := entry.Status
		if entry.ErrorMsg != "" {
			status = fmt.Sprintf("%s (%s)", status, entry.ErrorMsg)
		}
		fmt.Printf("%-28s %-10s started=%s duration=%dms\n",
			entry.JobName, status, entry.StartedAt.Format("2006-01-02 15:04:05"), entry.Duration)
	}
}
