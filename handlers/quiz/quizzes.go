package quiz

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/model"
	"github.com/learnhub/learnhub-api/services"
	"github.com/learnhub/learnhub-api/utils/middleware"
	"github.com/learnhub/learnhub-api/utils/response"
	"github.com/learnhub/learnhub-api/utils/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizHandler handles quiz endpoints
type QuizHandler struct {
	db        *gorm.DB
	quizzes   *services.QuizService
	validator *validation.Validator
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(db *gorm.DB, quizzes *services.QuizService) *QuizHandler {
	return &QuizHandler{
		db:        db,
		quizzes:   quizzes,
		validator: validation.NewValidator(),
	}
}

// CreateQuizRequest represents the request body for creating a quiz
type CreateQuizRequest struct {
	Title        string  `json:"title" validate:"required,min=2,max=255"`
	PassingScore float64 `json:"passing_score" validate:"required,min=0,max=100"`
}

// CreateQuestionRequest represents the request body for adding a question
type CreateQuestionRequest struct {
	Text          string   `json:"text" validate:"required,min=2"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	Order         int      `json:"order" validate:"required,min=1"`
}

// SubmitAttemptRequest represents the request body for submitting answers
type SubmitAttemptRequest struct {
	// Keyed by question ID; unanswered questions count as incorrect
	Answers map[string]string `json:"answers" validate:"required"`
}

// GetQuiz handles GET /api/v1/quizzes/:id
//
// The student view never includes correct answers.
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	quizID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid quiz ID")
	}

	view, err := h.quizzes.QuizForStudent(c.Context(), user.ID, uint(quizID))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, view)
}

// SubmitAttempt handles POST /api/v1/quizzes/:id/attempts
func (h *QuizHandler) SubmitAttempt(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req SubmitAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	quizID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid quiz ID")
	}

	result, err := h.quizzes.SubmitAttempt(c.Context(), user.ID, uint(quizID), req.Answers)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, result)
}

// GetBestAttempt handles GET /api/v1/quizzes/:id/attempts/best
func (h *QuizHandler) GetBestAttempt(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	quizID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid quiz ID")
	}

	best, err := h.quizzes.BestAttemptFor(c.Context(), user.ID, uint(quizID))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, best)
}

// CreateQuiz handles POST /api/v1/lessons/:id/quiz
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateQuizRequest
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
	if err := h.db.Model(&model.Quiz{}).Where("lesson_id = ?", lessonID).Count(&existing).Error; err != nil {
		return response.InternalServerError(c, "Failed to check existing quiz")
	}
	if existing > 0 {
		return response.Conflict(c, "Lesson already has a quiz")
	}

	quiz := model.Quiz{
		LessonID:     uint(lessonID),
		Title:        validation.SanitizeString(req.Title),
		PassingScore: req.PassingScore,
	}
	if err := h.db.Create(&quiz).Error; err != nil {
		return response.InternalServerError(c, "Failed to create quiz")
	}

	return response.Created(c, quiz)
}

// CreateQuestion handles POST /api/v1/quizzes/:id/questions
func (h *QuizHandler) CreateQuestion(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	quizID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid quiz ID")
	}

	var quiz model.Quiz
	if err := h.db.First(&quiz, uint(quizID)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Quiz not found")
		}
		return response.InternalServerError(c, "Failed to fetch quiz")
	}

	if err := h.ensureOwnsLesson(user, quiz.LessonID); err != nil {
		return response.DomainError(c, err)
	}

	options, err := optionsToJSON(req.Options)
	if err != nil {
		return response.BadRequest(c, "Invalid options")
	}

	var clash int64
	if err := h.db.Model(&model.Question{}).
		Where("quiz_id = ? AND \"order\" = ?", quiz.ID, req.Order).
		Count(&clash).Error; err != nil {
		return response.InternalServerError(c, "Failed to check question order")
	}
	if clash > 0 {
		return response.Conflict(c, "A question with this order already exists")
	}

	question := model.Question{
		QuizID:        quiz.ID,
		Text:          validation.SanitizeString(req.Text),
		Options:       options,
		CorrectAnswer: req.CorrectAnswer,
		Order:         req.Order,
	}
	if err := h.db.Create(&question).Error; err != nil {
		return response.InternalServerError(c, "Failed to create question")
	}

	return response.Created(c, question)
}

// ensureOwnsLesson verifies the lesson exists and belongs to one of the
// caller's courses. Admins may manage any course's quizzes.
func (h *QuizHandler) ensureOwnsLesson(user *model.User, lessonID uint) error {
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

func optionsToJSON(options []string) (datatypes.JSON, error) {
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
