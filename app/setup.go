package app

import (
	"fmt"
	"log"
	"os"

	"github.com/learnhub/learnhub-api/api"
	"github.com/learnhub/learnhub-api/config"
	"github.com/learnhub/learnhub-api/database"
	"github.com/learnhub/learnhub-api/router"
	"github.com/learnhub/learnhub-api/services/cron"
)

// SetupAndRunServer wires config, database, cron and routes, then serves
// until the listener stops.
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}
	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Println("Could not connect to Postgres; check that the database is running")
		return err
	}
	if err := store.Init(); err != nil {
		log.Println("Failed to run database migrations")
		return err
	}

	// Cron defaults to enabled; CRON_ENABLED=false turns it off for
	// one-off tooling and tests.
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" {
		cronManager = cron.NewCronManager(store.DB())
		if err := cronManager.Start(); err != nil {
			log.Printf("Warning: failed to start cron jobs: %v", err)
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	router.SetupRoutes(server.GetEngine(), store.DB())

	return server.Run()
}
