package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Quiz belongs to a lesson. Passing the quiz counts as completing the
// owning lesson.
type Quiz struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	LessonID     uint           `gorm:"not null;uniqueIndex" json:"lesson_id"`
	Title        string         `gorm:"not null" json:"title"`
	PassingScore float64        `gorm:"not null;default:70" json:"passing_score"` // 0-100

	// Relationships
	Lesson    Lesson        `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
	Questions []Question    `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	Attempts  []QuizAttempt `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"-"`
}

// Question is a single quiz question. CorrectAnswer is never serialized to
// JSON; students only ever see the prompt and options before grading.
type Question struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	QuizID        uint           `gorm:"not null;index:idx_questions_quiz_order,unique" json:"quiz_id"`
	Order         int            `gorm:"not null;index:idx_questions_quiz_order,unique" json:"order"`
	Text          string         `gorm:"type:text;not null" json:"text"`
	Options       datatypes.JSON `gorm:"type:jsonb" json:"options"`
	CorrectAnswer string         `gorm:"not null" json:"-"`

	// Relationships
	Quiz Quiz `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"-"`
}

// QuizAttempt is one graded submission of answers to a quiz. The score is
// always computed server-side; multiple attempts per (student, quiz) are
// allowed and kept forever.
type QuizAttempt struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	QuizID    uint              `gorm:"not null;index:idx_quiz_attempts_quiz_student" json:"quiz_id"`
	StudentID uint              `gorm:"not null;index:idx_quiz_attempts_quiz_student" json:"student_id"`
	Score     float64           `gorm:"not null" json:"score"` // 0-100
	Passed    bool              `gorm:"not null" json:"passed"`
	Answers   datatypes.JSONMap `gorm:"type:jsonb" json:"answers"` // questionID -> submitted answer

	// Relationships
	Quiz    Quiz `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"-"`
	Student User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}
