package review

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/model"
	"github.com/learnhub/learnhub-api/utils/middleware"
	"github.com/learnhub/learnhub-api/utils/response"
	"github.com/learnhub/learnhub-api/utils/validation"
	"gorm.io/gorm"
)

// ReviewHandler handles course review endpoints
type ReviewHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateReviewRequest represents the request body for reviewing a course
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// ReviewSummary aggregates ratings for a course
type ReviewSummary struct {
	AverageRating float64              `json:"average_rating"`
	TotalReviews  int64                `json:"total_reviews"`
	Reviews       []model.CourseReview `json:"reviews"`
}

// CreateReview handles POST /api/v1/courses/:id/reviews
//
// Only enrolled students may review, one review per course.
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var enrolled int64
	err = h.db.Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", user.ID, uint(courseID)).
		Count(&enrolled).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to check enrollment")
	}
	if enrolled == 0 {
		return response.Forbidden(c, "You must be enrolled in this course to review it")
	}

	review := model.CourseReview{
		StudentID: user.ID,
		CourseID:  uint(courseID),
		Rating:    req.Rating,
		Comment:   validation.SanitizeString(req.Comment),
	}
	if err := h.db.Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "You have already reviewed this course")
		}
		return response.InternalServerError(c, "Failed to create review")
	}

	return response.Created(c, review)
}

// ListReviews handles GET /api/v1/courses/:id/reviews
func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var summary ReviewSummary
	err = h.db.Model(&model.CourseReview{}).
		Where("course_id = ?", uint(courseID)).
		Select("COALESCE(AVG(rating), 0) AS average_rating, COUNT(*) AS total_reviews").
		Scan(&summary).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch review summary")
	}

	err = h.db.Where("course_id = ?", uint(courseID)).
		Preload("Student").
		Order("created_at DESC").
		Limit(50).
		Find(&summary.Reviews).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch reviews")
	}

	return response.Success(c, summary)
}
