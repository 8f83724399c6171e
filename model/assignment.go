package model

import (
	"time"

	"gorm.io/gorm"
)

// Assignment submission statuses
const (
	SubmissionStatusPending = "PENDING"
	SubmissionStatusGraded  = "GRADED"
)

// Assignment belongs to a lesson and collects graded student submissions.
type Assignment struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	LessonID     uint           `gorm:"not null;uniqueIndex" json:"lesson_id"`
	Title        string         `gorm:"not null" json:"title"`
	Instructions string         `gorm:"type:text" json:"instructions"`

	// Relationships
	Lesson      Lesson                 `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
	Submissions []AssignmentSubmission `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// AssignmentSubmission is one student submission. A student may not submit
// again while a PENDING submission exists; resubmission after grading is
// allowed.
type AssignmentSubmission struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	AssignmentID uint           `gorm:"not null;index:idx_submissions_assignment_student" json:"assignment_id"`
	StudentID    uint           `gorm:"not null;index:idx_submissions_assignment_student" json:"student_id"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	Status       string         `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"` // PENDING, GRADED
	Grade        *float64       `json:"grade"`                                                     // 0-100, set at grading
	Feedback     string         `gorm:"type:text" json:"feedback"`
	GradedAt     *time.Time     `json:"graded_at"`

	// Relationships
	Assignment Assignment `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"-"`
	Student    User       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}
