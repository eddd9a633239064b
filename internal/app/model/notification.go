package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type NotificationType string
type NotificationStatus string

const (
	NotificationTypeFormCreated        NotificationType = "form_created"
	NotificationTypeFormSubmitted      NotificationType = "form_submitted"
	NotificationTypeAdminFormSubmitted NotificationType = "admin_form_submitted"
	NotificationTypeFormApproved       NotificationType = "form_approved"
	NotificationTypeFormRejected       NotificationType = "form_rejected"
	NotificationTypeForm1099Issued     NotificationType = "form_1099_issued"

	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
)

// W9Notification is an append-only audit row for every dispatch attempt.
// A row stays pending when the email send fails; dispatch is best-effort.
type W9Notification struct {
	ID                 uint               `gorm:"primarykey" json:"id"`
	W9FormID           uint               `gorm:"not null;index" json:"w9_form_id"`
	UserID             uint               `gorm:"not null;index" json:"user_id"` // recipient
	NotificationType   NotificationType   `gorm:"type:varchar(40);not null;index" json:"notification_type"`
	Subject            string             `gorm:"type:text;not null" json:"subject"`
	Message            string             `gorm:"type:text;not null" json:"message"`
	NotificationStatus NotificationStatus `gorm:"type:varchar(20);default:'pending';index" json:"notification_status"`
	SentAt             *time.Time         `json:"sent_at,omitempty"`
	IsRead             bool               `gorm:"default:false;index" json:"is_read"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	DeletedAt          gorm.DeletedAt     `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (W9Notification) TableName() string {
	return "w9_notifications"
}

// NotificationSettings controls which form events an administrator is
// fanned out to. Payees always receive events about their own forms.
type NotificationSettings struct {
	ID           uint  `gorm:"primarykey" json:"id"`
	UserID       uint  `gorm:"uniqueIndex;not null" json:"user_id"`
	User         *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EmailEnabled bool  `gorm:"default:true" json:"email_enabled"`

	// Event types this admin subscribes to, e.g. ["admin_form_submitted"].
	// Empty means all events.
	SubscribedEvents pq.StringArray `gorm:"type:text[];default:'{}';not null" json:"subscribed_events"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (NotificationSettings) TableName() string {
	return "notification_settings"
}

// Subscribed reports whether the settings opt in to the event type. An
// empty subscription list means all events.
func (s *NotificationSettings) Subscribed(t NotificationType) bool {
	if len(s.SubscribedEvents) == 0 {
		return true
	}
	for _, e := range s.SubscribedEvents {
		if e == string(t) {
			return true
		}
	}
	return false
}
