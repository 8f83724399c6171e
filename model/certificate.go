package model

import (
	"time"

	"gorm.io/gorm"
)

// Certificate statuses
const (
	CertificateStatusPending  = "PENDING"
	CertificateStatusIssued   = "ISSUED"
	CertificateStatusRejected = "REJECTED"
)

// Certificate is an instructor-approved proof of course completion.
// One per (student, course); moves PENDING -> ISSUED or PENDING -> REJECTED
// exactly once. VerificationCode is set at issuance and is publicly
// resolvable without authentication.
type Certificate struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	StudentID        uint           `gorm:"not null;index:idx_certificates_student_course,unique" json:"student_id"`
	CourseID         uint           `gorm:"not null;index:idx_certificates_student_course,unique" json:"course_id"`
	EnrollmentID     uint           `gorm:"not null;index" json:"enrollment_id"`
	Status           string         `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"` // PENDING, ISSUED, REJECTED
	VerificationCode *string        `gorm:"uniqueIndex" json:"verification_code,omitempty"`
	IssuedAt         *time.Time     `json:"issued_at"`
	RejectedReason   string         `gorm:"type:text" json:"rejected_reason,omitempty"`

	// Relationships
	Student    User       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Course     Course     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Enrollment Enrollment `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
}
