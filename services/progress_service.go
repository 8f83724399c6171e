package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnhub/learnhub-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService owns the lesson-completion ledger, the derived enrollment
// progress, and the ACTIVE -> COMPLETED transition. All aggregate state is
// recomputed from lesson_progress rows on every write; nothing is
// incrementally maintained.
type ProgressService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewProgressService creates a new progress service
func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{
		db:            db,
		notifications: NewNotificationService(db),
	}
}

// courseLessonCountQuery counts the live lessons of a course. Correlated
// form so it can run inside atomic UPDATE statements on both PostgreSQL
// and SQLite.
const courseLessonCountQuery = `
SELECT COUNT(*) FROM lessons
JOIN modules ON modules.id = lessons.module_id AND modules.deleted_at IS NULL
WHERE modules.course_id = enrollments.course_id AND lessons.deleted_at IS NULL`

// CompleteLesson records that a student finished a lesson and recomputes
// the owning enrollment's aggregate progress. Idempotent: an existing
// (student, lesson) row is returned unchanged. Sequential gating is
// enforced here at the write boundary too, so a direct API call cannot
// complete a locked lesson.
func (s *ProgressService) CompleteLesson(ctx context.Context, studentID, lessonID uint) (*model.LessonProgress, error) {
	var lesson model.Lesson
	if err := s.db.WithContext(ctx).Preload("Module").First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lesson: %w", ErrNotFound)
		}
		return nil, err
	}
	courseID := lesson.Module.CourseID

	// Completion always requires an enrollment, previews included: the
	// ledger row feeds this enrollment's percentage.
	enrollment, err := s.findEnrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	if !lesson.IsPreview {
		if err := s.ensureUnlocked(ctx, studentID, courseID, lessonID); err != nil {
			return nil, err
		}
	}

	progressRow := model.LessonProgress{
		StudentID:   studentID,
		LessonID:    lessonID,
		CourseID:    courseID,
		Completed:   true,
		CompletedAt: time.Now(),
	}

	var completedCourse bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The unique (student_id, lesson_id) index resolves concurrent
		// duplicates; "already exists" is a success path here.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).Create(&progressRow).Error; err != nil {
			return err
		}

		if err := tx.Where("student_id = ? AND lesson_id = ?", studentID, lessonID).
			First(&progressRow).Error; err != nil {
			return err
		}

		transitioned, err := s.recomputeEnrollment(tx, enrollment.ID)
		if err != nil {
			return err
		}
		completedCourse = transitioned
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completedCourse {
		s.notifyCourseCompleted(ctx, enrollment)
	}
	return &progressRow, nil
}

// recomputeEnrollment recomputes Enrollment.progress from the ledger and
// applies the one-way ACTIVE -> COMPLETED transition. Both statements are
// atomic UPDATEs so racing lesson completions for the same enrollment
// cannot lose updates. Returns true when this call performed the
// transition.
func (s *ProgressService) recomputeEnrollment(tx *gorm.DB, enrollmentID uint) (bool, error) {
	// A course with no lessons is a defined 0, never a division by zero.
	recompute := fmt.Sprintf(`
UPDATE enrollments SET progress = CASE
  WHEN (%[1]s) = 0 THEN 0
  ELSE (SELECT COUNT(*) FROM lesson_progress
        WHERE lesson_progress.student_id = enrollments.student_id
          AND lesson_progress.course_id = enrollments.course_id
          AND lesson_progress.completed = ?) * 100.0 / (%[1]s)
END
WHERE id = ?`, courseLessonCountQuery)

	if err := tx.Exec(recompute, true, enrollmentID).Error; err != nil {
		return false, err
	}

	// COMPLETED is terminal and completed_at is written once; a recompute
	// below 100 never regresses the status.
	result := tx.Model(&model.Enrollment{}).
		Where("id = ? AND progress >= 100 AND status = ?", enrollmentID, model.EnrollmentStatusActive).
		Updates(map[string]interface{}{
			"status":       model.EnrollmentStatusCompleted,
			"completed_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CourseProgressSummary is the student-facing progress report for a course.
type CourseProgressSummary struct {
	CourseID           uint       `json:"course_id"`
	CompletedLessonIDs []uint     `json:"completed_lesson_ids"`
	CompletedCount     int64      `json:"completed_count"`
	TotalLessons       int64      `json:"total_lessons"`
	Progress           float64    `json:"progress"`
	Status             string     `json:"status"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// CourseProgress returns the ledger-derived progress summary for one
// enrollment.
func (s *ProgressService) CourseProgress(ctx context.Context, studentID, courseID uint) (*CourseProgressSummary, error) {
	enrollment, err := s.findEnrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	var completedIDs []uint
	if err := s.db.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Where("student_id = ? AND course_id = ? AND completed = ?", studentID, courseID, true).
		Order("completed_at ASC").
		Pluck("lesson_id", &completedIDs).Error; err != nil {
		return nil, err
	}

	total, err := s.countCourseLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return &CourseProgressSummary{
		CourseID:           courseID,
		CompletedLessonIDs: completedIDs,
		CompletedCount:     int64(len(completedIDs)),
		TotalLessons:       total,
		Progress:           enrollment.Progress,
		Status:             enrollment.Status,
		CompletedAt:        enrollment.CompletedAt,
	}, nil
}

// LessonView is a lesson annotated with the student's lock and completion
// state. Locks are derived on every read, never stored.
type LessonView struct {
	model.Lesson
	IsLocked  bool `json:"is_locked"`
	Completed bool `json:"completed"`
}

// ModuleView is a module with annotated lessons.
type ModuleView struct {
	model.Module
	Lessons []LessonView `json:"lessons"`
}

// CourseContentView is the full annotated content tree for an enrolled
// student.
type CourseContentView struct {
	Course     model.Course      `json:"course"`
	Modules    []ModuleView      `json:"modules"`
	Enrollment *model.Enrollment `json:"enrollment"`
}

// CourseContent returns the course tree with per-lesson is_locked flags for
// the student. Requires an enrollment; the public catalog endpoint serves
// unenrolled visitors.
func (s *ProgressService) CourseContent(ctx context.Context, studentID, courseID uint) (*CourseContentView, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("modules.\"order\" ASC") }).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("lessons.\"order\" ASC") }).
		First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course: %w", ErrNotFound)
		}
		return nil, err
	}

	enrollment, err := s.findEnrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	completed, err := s.completedSet(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	ordered := FlattenLessons(course.Modules)
	locks := EvaluateLocks(ordered, completed)

	view := &CourseContentView{Enrollment: enrollment}
	view.Modules = make([]ModuleView, 0, len(course.Modules))
	for _, m := range course.Modules {
		mv := ModuleView{Module: m, Lessons: make([]LessonView, 0, len(m.Lessons))}
		mv.Module.Lessons = nil
		for _, l := range m.Lessons {
			mv.Lessons = append(mv.Lessons, LessonView{
				Lesson:    l,
				IsLocked:  locks[l.ID],
				Completed: completed[l.ID],
			})
		}
		view.Modules = append(view.Modules, mv)
	}
	course.Modules = nil
	view.Course = course

	return view, nil
}

// LessonDetail returns one lesson for a student, enforcing the enrollment
// and sequential-unlock checks. Preview lessons bypass both.
func (s *ProgressService) LessonDetail(ctx context.Context, studentID, lessonID uint) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := s.db.WithContext(ctx).
		Preload("Module").
		Preload("Quiz").
		Preload("Assignment").
		First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lesson: %w", ErrNotFound)
		}
		return nil, err
	}

	if lesson.IsPreview {
		return &lesson, nil
	}

	courseID := lesson.Module.CourseID
	if _, err := s.findEnrollment(ctx, studentID, courseID); err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(ctx, studentID, courseID, lessonID); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// EnsureLessonAccessible verifies that the student may interact with the
// lesson (quiz submission, assignment submission). Shared by the other
// services so gating is enforced in one place.
func (s *ProgressService) EnsureLessonAccessible(ctx context.Context, studentID uint, lesson *model.Lesson, courseID uint) error {
	if _, err := s.findEnrollment(ctx, studentID, courseID); err != nil {
		return err
	}
	if lesson.IsPreview {
		return nil
	}
	return s.ensureUnlocked(ctx, studentID, courseID, lesson.ID)
}

func (s *ProgressService) findEnrollment(ctx context.Context, studentID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("not enrolled in this course: %w", ErrForbidden)
		}
		return nil, err
	}
	return &enrollment, nil
}

func (s *ProgressService) ensureUnlocked(ctx context.Context, studentID, courseID, lessonID uint) error {
	ordered, err := s.courseSequence(ctx, courseID)
	if err != nil {
		return err
	}
	completed, err := s.completedSet(ctx, studentID, courseID)
	if err != nil {
		return err
	}

	locks := EvaluateLocks(ordered, completed)
	if !locks[lessonID] {
		return nil
	}
	if prereq := Prerequisite(ordered, lessonID); prereq != nil {
		return NewInvalidState("this lesson is locked: complete %q first", prereq.Title)
	}
	return NewInvalidState("this lesson is locked")
}

func (s *ProgressService) courseSequence(ctx context.Context, courseID uint) ([]model.Lesson, error) {
	var modules []model.Module
	if err := s.db.WithContext(ctx).
		Preload("Lessons").
		Where("course_id = ?", courseID).
		Find(&modules).Error; err != nil {
		return nil, err
	}
	return FlattenLessons(modules), nil
}

func (s *ProgressService) completedSet(ctx context.Context, studentID, courseID uint) (map[uint]bool, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Where("student_id = ? AND course_id = ? AND completed = ?", studentID, courseID, true).
		Pluck("lesson_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (s *ProgressService) countCourseLessons(ctx context.Context, courseID uint) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&model.Lesson{}).
		Joins("JOIN modules ON modules.id = lessons.module_id AND modules.deleted_at IS NULL").
		Where("modules.course_id = ?", courseID).
		Count(&total).Error
	return total, err
}

func (s *ProgressService) notifyCourseCompleted(ctx context.Context, enrollment *model.Enrollment) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, enrollment.CourseID).Error; err != nil {
		return
	}
	// Notification failures never fail the completing request.
	_, _ = s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   enrollment.StudentID,
		Type:     model.NotificationTypeSuccess,
		Category: model.NotificationCategoryEnrollment,
		Title:    "Course completed",
		Message:  fmt.Sprintf("You completed %q. You can now request your certificate.", course.Title),
		Metadata: map[string]interface{}{"course_id": course.ID},
	})
}
