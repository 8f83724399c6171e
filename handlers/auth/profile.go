package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/utils/middleware"
	"github.com/learnhub/learnhub-api/utils/response"
	"github.com/learnhub/learnhub-api/utils/validation"
)

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Bio  string `json:"bio,omitempty" validate:"omitempty,max=1000"`
}

// GetProfile returns the authenticated user's profile.
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, toUserResponse(user))
}

// UpdateProfile applies partial updates to the authenticated user's
// profile. Empty fields are left untouched.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Name != "" {
		user.Name = validation.SanitizeString(req.Name)
	}
	if req.Bio != "" {
		user.Bio = validation.SanitizeString(req.Bio)
	}

	if err := h.db.Save(user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}
	return response.Success(c, toUserResponse(user))
}
