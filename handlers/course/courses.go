package course

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/model"
	"github.com/learnhub/learnhub-api/services"
	"github.com/learnhub/learnhub-api/utils/middleware"
	"github.com/learnhub/learnhub-api/utils/response"
	"github.com/learnhub/learnhub-api/utils/validation"
	"gorm.io/gorm"
)

// CourseHandler handles course catalog and student content requests
type CourseHandler struct {
	db        *gorm.DB
	progress  *services.ProgressService
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, progress *services.ProgressService) *CourseHandler {
	return &CourseHandler{
		db:        db,
		progress:  progress,
		validator: validation.NewValidator(),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Category    string `json:"category" validate:"omitempty,max=100"`
	Published   bool   `json:"published"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title       string `json:"title" validate:"omitempty,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Category    string `json:"category" validate:"omitempty,max=100"`
	Published   *bool  `json:"published"`
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	// Parse query parameters
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")
	category := c.Query("category", "")

	// Build query: the public catalog only lists published courses
	query := h.db.Model(&model.Course{}).Where("published = ?", true)

	if search != "" {
		query = query.Where("title ILIKE ? OR description ILIKE ?",
			"%"+search+"%", "%"+search+"%")
	}

	if category != "" {
		query = query.Where("category = ?", category)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	// Calculate pagination
	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var courses []model.Course
	if err := query.Preload("Instructor").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, pagination)
}

// GetCourse handles GET /api/v1/courses/:id, the public catalog view.
// Lesson content is not included here; enrolled students use the content
// endpoint, unenrolled visitors only see titles and preview flags.
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	var course model.Course
	if err := h.db.Preload("Instructor").
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("modules.\"order\" ASC") }).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "module_id", "title", "\"order\"", "is_preview", "duration").
				Order("lessons.\"order\" ASC")
		}).
		First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// GetCourseContent handles GET /api/v1/courses/:id/content, the enrolled
// student's view with per-lesson lock and completion flags.
func (h *CourseHandler) GetCourseContent(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	view, err := h.progress.CourseContent(c.Context(), studentID, uint(courseID))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, view)
}

// GetLesson handles GET /api/v1/lessons/:id, the lesson detail view. It is
// blocked for locked lessons and open for previews.
func (h *CourseHandler) GetLesson(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	lessonID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	lesson, err := h.progress.LessonDetail(c.Context(), studentID, uint(lessonID))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, lesson)
}

// CreateCourse handles POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course := model.Course{
		InstructorID: user.ID,
		Title:        validation.SanitizeString(req.Title),
		Description:  validation.SanitizeString(req.Description),
		Category:     validation.SanitizeString(req.Category),
		Published:    req.Published,
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course, err := h.ownedCourse(c.Params("id"), user)
	if err != nil {
		return response.DomainError(c, err)
	}

	if req.Title != "" {
		course.Title = validation.SanitizeString(req.Title)
	}
	if req.Description != "" {
		course.Description = validation.SanitizeString(req.Description)
	}
	if req.Category != "" {
		course.Category = validation.SanitizeString(req.Category)
	}
	if req.Published != nil {
		course.Published = *req.Published
	}

	if err := h.db.Save(course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// ownedCourse loads a course and enforces instructor ownership. Admins may
// manage any course.
func (h *CourseHandler) ownedCourse(id string, user *model.User) (*model.Course, error) {
	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("course: %w", services.ErrNotFound)
		}
		return nil, err
	}

	if course.InstructorID != user.ID && user.Role != model.RoleAdmin {
		return nil, fmt.Errorf("you do not own this course: %w", services.ErrForbidden)
	}
	return &course, nil
}
