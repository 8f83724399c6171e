package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType represents the severity/kind of a notification
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
)

// NotificationCategory groups notifications by the event that produced them
type NotificationCategory string

const (
	NotificationCategoryEnrollment  NotificationCategory = "enrollment"
	NotificationCategoryCertificate NotificationCategory = "certificate"
	NotificationCategoryAssignment  NotificationCategory = "assignment"
)

// UserNotification is an in-app notification produced by progression and
// certificate events for a collaborator (UI, email worker) to consume.
type UserNotification struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	DeletedAt gorm.DeletedAt       `gorm:"index" json:"-"`
	UserID    uint                 `gorm:"not null;index" json:"user_id"`
	Type      NotificationType     `gorm:"type:varchar(20);not null" json:"type"`
	Category  NotificationCategory `gorm:"type:varchar(30);not null;index" json:"category"`
	Title     string               `gorm:"not null" json:"title"`
	Message   string               `gorm:"type:text" json:"message"`
	Read      bool                 `gorm:"default:false;index" json:"read"`
	ReadAt    *time.Time           `json:"read_at"`
	Metadata  datatypes.JSONMap    `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for UserNotification
func (UserNotification) TableName() string {
	return "user_notifications"
}
