package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// APIServer owns the fiber app and its listen address.
type APIServer struct {
	app           *fiber.App
	listenAddress string
}

func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app:           fiber.New(),
		listenAddress: listenAddress,
	}
}

// GetEngine exposes the fiber app for route registration.
func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run blocks serving requests until the listener fails or is closed.
func (s *APIServer) Run() error {
	log.Printf("API server listening on %s", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}
