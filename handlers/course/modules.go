package course

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/model"
	"github.com/learnhub/learnhub-api/utils/middleware"
	"github.com/learnhub/learnhub-api/utils/response"
	"github.com/learnhub/learnhub-api/utils/validation"
	"gorm.io/gorm"
)

// CreateModuleRequest represents the request body for creating a module
type CreateModuleRequest struct {
	Title string `json:"title" validate:"required,min=2,max=255"`
	Order int    `json:"order" validate:"required,min=1"`
}

// CreateLessonRequest represents the request body for creating a lesson
type CreateLessonRequest struct {
	Title     string `json:"title" validate:"required,min=2,max=255"`
	Content   string `json:"content" validate:"omitempty"`
	Order     int    `json:"order" validate:"required,min=1"`
	IsPreview bool   `json:"is_preview"`
	Duration  int    `json:"duration" validate:"omitempty,min=0"`
}

// CreateModule handles POST /api/v1/courses/:id/modules
func (h *CourseHandler) CreateModule(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateModuleRequest
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

	// Order is unique per course; a clash is a client-correctable conflict
	var clash int64
	if err := h.db.Model(&model.Module{}).
		Where("course_id = ? AND \"order\" = ?", course.ID, req.Order).
		Count(&clash).Error; err != nil {
		return response.InternalServerError(c, "Failed to check module order")
	}
	if clash > 0 {
		return response.Conflict(c, "A module with this order already exists")
	}

	module := model.Module{
		CourseID: course.ID,
		Title:    validation.SanitizeString(req.Title),
		Order:    req.Order,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&module).Error; err != nil {
			return err
		}
		// Cached counter; bumped atomically, reconciled by cron
		return tx.Model(&model.Course{}).
			Where("id = ?", course.ID).
			UpdateColumn("total_modules", gorm.Expr("total_modules + ?", 1)).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create module")
	}

	return response.Created(c, module)
}

// CreateLesson handles POST /api/v1/modules/:id/lessons
func (h *CourseHandler) CreateLesson(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	moduleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid module ID")
	}

	var module model.Module
	if err := h.db.First(&module, uint(moduleID)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Module not found")
		}
		return response.InternalServerError(c, "Failed to fetch module")
	}

	if _, err := h.ownedCourse(strconv.FormatUint(uint64(module.CourseID), 10), user); err != nil {
		return response.DomainError(c, err)
	}

	var clash int64
	if err := h.db.Model(&model.Lesson{}).
		Where("module_id = ? AND \"order\" = ?", module.ID, req.Order).
		Count(&clash).Error; err != nil {
		return response.InternalServerError(c, "Failed to check lesson order")
	}
	if clash > 0 {
		return response.Conflict(c, "A lesson with this order already exists")
	}

	lesson := model.Lesson{
		ModuleID:  module.ID,
		Title:     validation.SanitizeString(req.Title),
		Content:   req.Content,
		Order:     req.Order,
		IsPreview: req.IsPreview,
		Duration:  req.Duration,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lesson).Error; err != nil {
			return err
		}
		return tx.Model(&model.Course{}).
			Where("id = ?", module.CourseID).
			UpdateColumn("total_lessons", gorm.Expr("total_lessons + ?", 1)).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create lesson")
	}

	return response.Created(c, lesson)
}
