package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, instructor, admin
	Bio          string         `gorm:"type:text" json:"bio"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Denormalized counter for instructors, maintained with atomic increments
	// and reconciled by a cron job.
	TotalStudents int64 `gorm:"default:0" json:"total_students"`

	// Relationships
	Courses        []Course            `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments    []Enrollment        `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	LessonProgress []LessonProgress    `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	QuizAttempts   []QuizAttempt       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Certificates   []Certificate       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Notifications  []UserNotification  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsInstructor reports whether the user can own and manage courses.
func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor || u.Role == RoleAdmin
}
