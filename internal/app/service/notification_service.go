package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/brandlift/w9-backend/internal/app/model"
	"github.com/brandlift/w9-backend/internal/app/repository"
	"github.com/brandlift/w9-backend/internal/websocket"
	"github.com/brandlift/w9-backend/pkg/logger"
	"github.com/brandlift/w9-backend/pkg/mailer"
)

// ErrNotificationNotFound is returned when a notification does not exist or
// belongs to another user.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService records form lifecycle notifications and delivers
// them over email and websocket. Delivery is best effort: a failed send
// leaves the row in pending status and never fails the calling operation.
type NotificationService interface {
	Notify(userID, formID uint, ntype model.NotificationType, subject, message string)
	NotifyAdmins(formID uint, ntype model.NotificationType, subject, message string)
	List(userID uint, page, pageSize int) ([]model.W9Notification, int64, int64, error)
	MarkRead(notificationID, userID uint) error
	GetSettings(userID uint) (*model.NotificationSettings, error)
	UpdateSettings(userID uint, emailEnabled bool, subscribedEvents []string) (*model.NotificationSettings, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	sender           mailer.Sender
	hub              *websocket.Hub
}

// wsNotification is the payload pushed to connected browser sessions.
type wsNotification struct {
	Type    string `json:"type"`
	FormID  uint   `json:"form_id"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// NewNotificationService creates a notification service. Both sender and
// hub may be nil; the corresponding channel is skipped.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	sender mailer.Sender,
	hub *websocket.Hub,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		sender:           sender,
		hub:              hub,
	}
}

func (s *notificationService) Notify(userID, formID uint, ntype model.NotificationType, subject, message string) {
	notification := &model.W9Notification{
		W9FormID:           formID,
		UserID:             userID,
		NotificationType:   ntype,
		Subject:            subject,
		Message:            message,
		NotificationStatus: model.NotificationStatusPending,
	}

	if err := s.notificationRepo.Create(notification); err != nil {
		logger.Error("Failed to record notification", err, map[string]interface{}{
			"user_id":           userID,
			"w9_form_id":        formID,
			"notification_type": ntype,
		})
		return
	}

	if s.deliverEmail(notification) {
		if err := s.notificationRepo.MarkSent(notification.ID, time.Now()); err != nil {
			logger.Error("Failed to mark notification as sent", err, map[string]interface{}{
				"notification_id": notification.ID,
			})
		}
	}

	if s.hub != nil {
		payload := wsNotification{
			Type:    string(ntype),
			FormID:  formID,
			Subject: subject,
			Message: message,
		}
		if err := s.hub.SendToUser(userID, payload); err != nil {
			logger.Error("Failed to push notification over websocket", err, map[string]interface{}{
				"notification_id": notification.ID,
				"user_id":         userID,
			})
		}
	}
}

func (s *notificationService) NotifyAdmins(formID uint, ntype model.NotificationType, subject, message string) {
	admins, err := s.userRepo.FindAdmins()
	if err != nil {
		logger.Error("Failed to load admins for notification fan-out", err, map[string]interface{}{
			"notification_type": ntype,
			"w9_form_id":        formID,
		})
		return
	}
	for _, admin := range admins {
		s.Notify(admin.ID, formID, ntype, subject, message)
	}
}

// deliverEmail attempts email delivery and reports whether it succeeded.
func (s *notificationService) deliverEmail(notification *model.W9Notification) bool {
	if s.sender == nil {
		return false
	}

	user, err := s.userRepo.FindByID(notification.UserID)
	if err != nil {
		logger.Error("Failed to load notification recipient", err, map[string]interface{}{
			"notification_id": notification.ID,
			"user_id":         notification.UserID,
		})
		return false
	}

	settings, err := s.notificationRepo.GetSettings(user.ID)
	if err != nil {
		logger.Error("Failed to load notification settings", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return false
	}
	if !settings.EmailEnabled || !settings.Subscribed(notification.NotificationType) {
		return false
	}

	if err := s.sender.Send(user.Email, user.Name, notification.Subject, notification.Message); err != nil {
		logger.Error("Failed to send notification email", err, map[string]interface{}{
			"notification_id": notification.ID,
			"user_id":         user.ID,
		})
		return false
	}
	return true
}

func (s *notificationService) List(userID uint, page, pageSize int) ([]model.W9Notification, int64, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	notifications, total, err := s.notificationRepo.FindByUser(userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, 0, err
	}
	unread, err := s.notificationRepo.UnreadCount(userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return notifications, total, unread, nil
}

func (s *notificationService) MarkRead(notificationID, userID uint) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if notification.UserID != userID {
		return ErrNotificationNotFound
	}
	return s.notificationRepo.MarkRead(notificationID)
}

func (s *notificationService) GetSettings(userID uint) (*model.NotificationSettings, error) {
	return s.notificationRepo.GetSettings(userID)
}

func (s *notificationService) UpdateSettings(userID uint, emailEnabled bool, subscribedEvents []string) (*model.NotificationSettings, error) {
	settings, err := s.notificationRepo.GetSettings(userID)
	if err != nil {
		return nil, err
	}
	settings.EmailEnabled = emailEnabled
	if subscribedEvents != nil {
		settings.SubscribedEvents = subscribedEvents
	}
	if err := s.notificationRepo.SaveSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}
