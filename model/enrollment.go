package model

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses
const (
	EnrollmentStatusActive    = "ACTIVE"
	EnrollmentStatusCompleted = "COMPLETED"
)

// Enrollment binds one student to one course and carries the derived
// progress state. Progress is always recomputed from lesson_progress rows,
// never incremented. Invariant: Progress == 100 iff Status == COMPLETED
// iff CompletedAt is set; COMPLETED is a one-way transition.
type Enrollment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	StudentID   uint           `gorm:"not null;index:idx_enrollments_student_course,unique" json:"student_id"`
	CourseID    uint           `gorm:"not null;index:idx_enrollments_student_course,unique" json:"course_id"`
	Status      string         `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"` // ACTIVE, COMPLETED
	Progress    float64        `gorm:"default:0" json:"progress"`                                // 0-100
	CompletedAt *time.Time     `json:"completed_at"`

	// Relationships
	Student User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Course  Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// IsCompleted reports whether the enrollment reached the terminal state.
func (e *Enrollment) IsCompleted() bool {
	return e.Status == EnrollmentStatusCompleted
}

// LessonProgress is an immutable-once-created fact recording that a student
// completed a lesson. The unique (student_id, lesson_id) index is the
// authoritative de-duplication mechanism for concurrent completions.
// Rows are never deleted or flipped back by the progression engine.
type LessonProgress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StudentID   uint      `gorm:"not null;index:idx_lesson_progress_student_lesson,unique" json:"student_id"`
	LessonID    uint      `gorm:"not null;index:idx_lesson_progress_student_lesson,unique" json:"lesson_id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"` // denormalized for per-course counting
	Completed   bool      `gorm:"not null;default:true" json:"completed"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`

	// Relationships
	Student User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Lesson  Lesson `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for LessonProgress
func (LessonProgress) TableName() string {
	return "lesson_progress"
}
