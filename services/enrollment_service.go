package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/learnhub/learnhub-api/model"
	"gorm.io/gorm"
)

// EnrollmentService creates enrollments and keeps the denormalized
// student counters on courses and instructors in step.
type EnrollmentService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{
		db:            db,
		notifications: NewNotificationService(db),
	}
}

// Enroll creates an ACTIVE enrollment with progress 0. A duplicate
// enrollment is a Conflict, surfaced distinctly from validation errors.
// Counter updates are atomic column expressions, never read-modify-write.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID uint) (*model.Enrollment, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course: %w", ErrNotFound)
		}
		return nil, err
	}
	if !course.Published {
		return nil, NewInvalidState("course is not open for enrollment")
	}

	enrollment := model.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    model.EnrollmentStatusActive,
		Progress:  0,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("already enrolled in this course: %w", ErrConflict)
			}
			return err
		}

		if err := tx.Model(&model.Course{}).
			Where("id = ?", courseID).
			UpdateColumn("total_students", gorm.Expr("total_students + ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).
			Where("id = ?", course.InstructorID).
			UpdateColumn("total_students", gorm.Expr("total_students + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}

	_, _ = s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   studentID,
		Type:     model.NotificationTypeInfo,
		Category: model.NotificationCategoryEnrollment,
		Title:    "Enrolled",
		Message:  fmt.Sprintf("You are enrolled in %q.", course.Title),
		Metadata: map[string]interface{}{"course_id": course.ID},
	})

	return &enrollment, nil
}

// ListForStudent returns the student's enrollments with course summaries.
func (s *EnrollmentService) ListForStudent(ctx context.Context, studentID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}
