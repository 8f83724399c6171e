package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/utils/response"
	"gorm.io/gorm"
)

// HealthCheck reports API liveness and database connectivity.
func HealthCheck(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil {
			return response.ServiceUnavailable(c, "Database unavailable")
		}
		if err := sqlDB.PingContext(c.Context()); err != nil {
			return response.ServiceUnavailable(c, "Database unavailable")
		}
		return response.Success(c, fiber.Map{"status": "ok"})
	}
}
