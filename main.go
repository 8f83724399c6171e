package main

import (
	"github.com/gofiber/fiber/v2/log"
	"github.com/learnhub/learnhub-api/app"
)

func main() {
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
