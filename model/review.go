package model

import (
	"time"

	"gorm.io/gorm"
)

// CourseReview is one student's rating of a course. One review per
// (student, course); duplicates surface as a conflict, not a validation
// error, so clients can react accordingly.
type CourseReview struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	StudentID uint           `gorm:"not null;index:idx_reviews_student_course,unique" json:"student_id"`
	CourseID  uint           `gorm:"not null;index:idx_reviews_student_course,unique" json:"course_id"`
	Rating    int            `gorm:"not null" json:"rating"` // 1-5
	Comment   string         `gorm:"type:text" json:"comment"`

	// Relationships
	Student User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Course  Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}
