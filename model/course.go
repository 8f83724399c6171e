package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a published course owned by an instructor
type Course struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	InstructorID uint           `gorm:"not null;index" json:"instructor_id"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Category     string         `gorm:"type:varchar(100)" json:"category"`
	Published    bool           `gorm:"default:false" json:"published"`

	// Denormalized counters. TotalModules/TotalLessons cache the live content
	// counts; TotalStudents is bumped atomically on enroll. All three are
	// reconciled against live counts by a cron job.
	TotalModules  int64 `gorm:"default:0" json:"total_modules"`
	TotalLessons  int64 `gorm:"default:0" json:"total_lessons"`
	TotalStudents int64 `gorm:"default:0" json:"total_students"`

	// Relationships
	Instructor  User           `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Modules     []Module       `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"modules,omitempty"`
	Enrollments []Enrollment   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Reviews     []CourseReview `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// Module represents an ordered section of lessons within a course
type Module struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index:idx_modules_course_order,unique" json:"course_id"`
	Title     string         `gorm:"not null" json:"title"`
	Order     int            `gorm:"not null;index:idx_modules_course_order,unique" json:"order"`

	// Relationships
	Course  Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Lessons []Lesson `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

// Lesson represents a single unit of content within a module.
// Preview lessons are accessible without enrollment and bypass gating.
type Lesson struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	ModuleID  uint           `gorm:"not null;index:idx_lessons_module_order,unique" json:"module_id"`
	Title     string         `gorm:"not null" json:"title"`
	Content   string         `gorm:"type:text" json:"content"`
	Order     int            `gorm:"not null;index:idx_lessons_module_order,unique" json:"order"`
	IsPreview bool           `gorm:"default:false" json:"is_preview"`
	Duration  int            `gorm:"default:0" json:"duration"` // minutes

	// Relationships
	Module     Module      `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"-"`
	Quiz       *Quiz       `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"quiz,omitempty"`
	Assignment *Assignment `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"assignment,omitempty"`
}
