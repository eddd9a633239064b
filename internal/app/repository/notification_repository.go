package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/brandlift/w9-backend/internal/app/model"
)

// NotificationRepository is the notification audit-log persistence interface
type NotificationRepository interface {
	Create(notification *model.W9Notification) error
	FindByID(id uint) (*model.W9Notification, error)
	FindByUser(userID uint, limit, offset int) ([]model.W9Notification, int64, error)
	UnreadCount(userID uint) (int64, error)
	MarkSent(id uint, sentAt time.Time) error
	MarkRead(id uint) error

	GetSettings(userID uint) (*model.NotificationSettings, error)
	SaveSettings(settings *model.NotificationSettings) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *model.W9Notification) error {
	return r.db.Create(notification).Error
}

func (r *notificationRepository) FindByID(id uint) (*model.W9Notification, error) {
	var notification model.W9Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) FindByUser(userID uint, limit, offset int) ([]model.W9Notification, int64, error) {
	var notifications []model.W9Notification
	var total int64

	query := r.db.Model(&model.W9Notification{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *notificationRepository) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.W9Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkSent(id uint, sentAt time.Time) error {
	return r.db.Model(&model.W9Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"notification_status": model.NotificationStatusSent,
			"sent_at":             sentAt,
		}).Error
}

func (r *notificationRepository) MarkRead(id uint) error {
	return r.db.Model(&model.W9Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

// GetSettings returns the user's notification settings, creating defaults
// on first access.
func (r *notificationRepository) GetSettings(userID uint) (*model.NotificationSettings, error) {
	var settings model.NotificationSettings
	err := r.db.Where("user_id = ?", userID).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		settings = model.NotificationSettings{
			UserID:           userID,
			EmailEnabled:     true,
			SubscribedEvents: []string{},
		}
		if err := r.db.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *notificationRepository) SaveSettings(settings *model.NotificationSettings) error {
	return r.db.Save(settings).Error
}
