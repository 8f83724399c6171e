package enrollment

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/services"
	"github.com/learnhub/learnhub-api/utils/middleware"
	"github.com/learnhub/learnhub-api/utils/response"
	"gorm.io/gorm"
)

// EnrollmentHandler handles enrollment endpoints
type EnrollmentHandler struct {
	db          *gorm.DB
	enrollments *services.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(db *gorm.DB, enrollments *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{db: db, enrollments: enrollments}
}

// Enroll handles POST /api/v1/courses/:id/enroll
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	enrollment, err := h.enrollments.Enroll(c.Context(), user.ID, uint(courseID))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, enrollment)
}

// MyEnrollments handles GET /api/v1/enrollments/me
func (h *EnrollmentHandler) MyEnrollments(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollments, err := h.enrollments.ListForStudent(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Success(c, enrollments)
}
