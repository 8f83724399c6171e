package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnhub/learnhub-api/model"
	"gorm.io/gorm"
)

// AssignmentService handles student submissions and instructor grading.
// Assignment grades do not feed the lesson-completion ledger; students
// complete assignment lessons explicitly like any other lesson.
type AssignmentService struct {
	db            *gorm.DB
	progress      *ProgressService
	notifications *NotificationService
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db *gorm.DB, progress *ProgressService) *AssignmentService {
	return &AssignmentService{
		db:            db,
		progress:      progress,
		notifications: NewNotificationService(db),
	}
}

// Submit creates a PENDING submission. A second submission while one is
// still pending review is rejected; resubmission after grading is allowed.
func (s *AssignmentService) Submit(ctx context.Context, studentID, assignmentID uint, content string) (*model.AssignmentSubmission, error) {
	var assignment model.Assignment
	if err := s.db.WithContext(ctx).
		Preload("Lesson.Module").
		First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment: %w", ErrNotFound)
		}
		return nil, err
	}

	courseID := assignment.Lesson.Module.CourseID
	if err := s.progress.EnsureLessonAccessible(ctx, studentID, &assignment.Lesson, courseID); err != nil {
		return nil, err
	}

	var pendingCount int64
	if err := s.db.WithContext(ctx).
		Model(&model.AssignmentSubmission{}).
		Where("assignment_id = ? AND student_id = ? AND status = ?",
			assignmentID, studentID, model.SubmissionStatusPending).
		Count(&pendingCount).Error; err != nil {
		return nil, err
	}
	if pendingCount > 0 {
		return nil, NewInvalidState("a previous submission is still pending review")
	}

	submission := model.AssignmentSubmission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      content,
		Status:       model.SubmissionStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// Grade records a grade and feedback on a PENDING submission. Only the
// instructor owning the course may grade.
func (s *AssignmentService) Grade(ctx context.Context, instructorID, submissionID uint, grade float64, feedback string) (*model.AssignmentSubmission, error) {
	var submission model.AssignmentSubmission
	if err := s.db.WithContext(ctx).
		Preload("Assignment.Lesson.Module.Course").
		First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission: %w", ErrNotFound)
		}
		return nil, err
	}

	if submission.Assignment.Lesson.Module.Course.InstructorID != instructorID {
		return nil, fmt.Errorf("submission belongs to another instructor's course: %w", ErrForbidden)
	}
	if submission.Status != model.SubmissionStatusPending {
		return nil, NewInvalidState("submission is already graded")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":    model.SubmissionStatusGraded,
		"grade":     grade,
		"feedback":  feedback,
		"graded_at": now,
	}
	if err := s.db.WithContext(ctx).Model(&submission).Updates(updates).Error; err != nil {
		return nil, err
	}
	submission.Status = model.SubmissionStatusGraded
	submission.Grade = &grade
	submission.Feedback = feedback
	submission.GradedAt = &now

	_, _ = s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   submission.StudentID,
		Type:     model.NotificationTypeInfo,
		Category: model.NotificationCategoryAssignment,
		Title:    "Assignment graded",
		Message:  fmt.Sprintf("Your submission for %q was graded: %.0f/100.", submission.Assignment.Title, grade),
		Metadata: map[string]interface{}{"submission_id": submission.ID},
	})

	return &submission, nil
}

// ListForAssignment returns all submissions for an assignment owned by the
// instructor.
func (s *AssignmentService) ListForAssignment(ctx context.Context, instructorID, assignmentID uint) ([]model.AssignmentSubmission, error) {
	var assignment model.Assignment
	if err := s.db.WithContext(ctx).
		Preload("Lesson.Module.Course").
		First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment: %w", ErrNotFound)
		}
		return nil, err
	}
	if assignment.Lesson.Module.Course.InstructorID != instructorID {
		return nil, fmt.Errorf("assignment belongs to another instructor's course: %w", ErrForbidden)
	}

	var submissions []model.AssignmentSubmission
	err := s.db.WithContext(ctx).
		Preload("Student").
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC").
		Find(&submissions).Error
	return submissions, err
}
