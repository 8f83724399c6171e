package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/services"
)

// DomainError maps a service-layer error onto the standard response
// envelope. Every domain error is recovered here; nothing propagates as a
// panic or an unhandled 500 with internals leaked.
func DomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return NotFound(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return Forbidden(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		return Conflict(c, err.Error())
	case services.IsInvalidState(err):
		return Error(c, fiber.StatusBadRequest, err.Error(), "INVALID_STATE")
	default:
		return InternalServerError(c, "")
	}
}
