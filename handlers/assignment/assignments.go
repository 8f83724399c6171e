package assignment

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

// AssignmentHandler handles assignment endpoints
type AssignmentHandler struct {
	db          *gorm.DB
	assignments *services.AssignmentService
	validator   *validation.Validator
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(db *gorm.DB, assignments *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		db:          db,
		assignments: assignments,
		validator:   validation.NewValidator(),
	}
}

// CreateAssignmentRequest represents the request body for creating an assignment
type CreateAssignmentRequest struct {
	Title        string `json:"title" validate:"required,min=2,max=255"`
	Instructions string `json:"instructions" validate:"omitempty"`
}

// SubmitRequest represents the request body for a student submission
type SubmitRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// GradeRequest represents the request body for grading a submission
type GradeRequest struct {
	Grade    *float64 `json:"grade" validate:"required,min=0,max=100"`
	Feedback string   `json:"feedback" validate:"omitempty"`
}

// CreateAssignment handles POST /api/v1/lessons/:id/assignment
func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	lessonID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	if err := h.ensureOwnsLesson(user, uint(lessonID)); err != nil {
		return response.DomainError(c, err)
	}

	var existing int64
	if err := h.db.Model(&model.Assignment{}).Where("lesson_id = ?", lessonID).Count(&existing).Error; err != nil {
		return response.InternalServerError(c, "Failed to check existing assignment")
	}
	if existing > 0 {
		return response.Conflict(c, "Lesson already has an assignment")
	}

	assignment := model.Assignment{
		LessonID:     uint(lessonID),
		Title:        validation.SanitizeString(req.Title),
		Instructions: req.Instructions,
	}
	if err := h.db.Create(&assignment).Error; err != nil {
		return response.InternalServerError(c, "Failed to create assignment")
	}

	return response.Created(c, assignment)
}

// Submit handles POST /api/v1/assignments/:id/submissions
func (h *AssignmentHandler) Submit(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	assignmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid assignment ID")
	}

	submission, err := h.assignments.Submit(c.Context(), user.ID, uint(assignmentID), req.Content)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, submission)
}

// Grade handles PUT /api/v1/submissions/:id/grade
func (h *AssignmentHandler) Grade(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req GradeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	submissionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid submission ID")
	}

	submission, err := h.assignments.Grade(c.Context(), user.ID, uint(submissionID), *req.Grade, req.Feedback)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, submission)
}

// ListSubmissions handles GET /api/v1/assignments/:id/submissions
func (h *AssignmentHandler) ListSubmissions(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	assignmentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid assignment ID")
	}

	submissions, err := h.assignments.ListForAssignment(c.Context(), user.ID, uint(assignmentID))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, submissions)
}

// MySubmissions handles GET /api/v1/submissions/me
func (h *AssignmentHandler) MySubmissions(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var submissions []model.AssignmentSubmission
	err := h.db.Where("student_id = ?", user.ID).
		Order("created_at DESC").
		Find(&submissions).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch submissions")
	}

	return response.Success(c, submissions)
}

func (h *AssignmentHandler) ensureOwnsLesson(user *model.User, lessonID uint) error {
	var lesson model.Lesson
	err := h.db.Preload("Module.Course").First(&lesson, lessonID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("lesson: %w", services.ErrNotFound)
		}
		return err
	}
	if user.Role != model.RoleAdmin && lesson.Module.Course.InstructorID != user.ID {
		return fmt.Errorf("you do not own this course: %w", services.ErrForbidden)
	}
	return nil
}
