package progress

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/services"
	"github.com/learnhub/learnhub-api/utils/middleware"
	"github.com/learnhub/learnhub-api/utils/response"
	"gorm.io/gorm"
)

// ProgressHandler handles lesson completion and progress endpoints
type ProgressHandler struct {
	db       *gorm.DB
	progress *services.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(db *gorm.DB, progress *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{db: db, progress: progress}
}

// CompleteLesson handles POST /api/v1/lessons/:id/complete
func (h *ProgressHandler) CompleteLesson(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	lessonID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	record, err := h.progress.CompleteLesson(c.Context(), user.ID, uint(lessonID))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, record)
}

// GetCourseProgress handles GET /api/v1/courses/:id/progress
func (h *ProgressHandler) GetCourseProgress(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	summary, err := h.progress.CourseProgress(c.Context(), user.ID, uint(courseID))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, summary)
}
