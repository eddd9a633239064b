package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandlift/w9-backend/internal/app/model"
)

// recordingSender captures outbound email instead of sending it.
type recordingSender struct {
	sent []string
	err  error
}

func (s *recordingSender) Send(toEmail, toName, subject, message string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, toEmail)
	return nil
}

func TestNotificationService_SuccessfulSendMarksSent(t *testing.T) {
	f := setupServiceTest(t)
	sender := &recordingSender{}
	svc := NewNotificationService(f.notificationRepo, f.userRepo, sender, nil)

	svc.Notify(f.payee.ID, 1, model.NotificationTypeFormApproved, "Approved", "Your form was approved.")

	notifications, _, err := f.notificationRepo.FindByUser(f.payee.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationStatusSent, notifications[0].NotificationStatus)
	assert.NotNil(t, notifications[0].SentAt)
	assert.Equal(t, []string{"payee@example.com"}, sender.sent)
}

func TestNotificationService_FailedSendLeavesPending(t *testing.T) {
	f := setupServiceTest(t)
	sender := &recordingSender{err: errors.New("smtp unreachable")}
	svc := NewNotificationService(f.notificationRepo, f.userRepo, sender, nil)

	// Must not panic or surface the error
	svc.Notify(f.payee.ID, 1, model.NotificationTypeFormRejected, "Rejected", "Your form was rejected.")

	notifications, _, err := f.notificationRepo.FindByUser(f.payee.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1, "the audit row is recorded even when delivery fails")
	assert.Equal(t, model.NotificationStatusPending, notifications[0].NotificationStatus)
	assert.Nil(t, notifications[0].SentAt)
}

func TestNotificationService_EmailDisabledSkipsSend(t *testing.T) {
	f := setupServiceTest(t)
	sender := &recordingSender{}
	svc := NewNotificationService(f.notificationRepo, f.userRepo, sender, nil)

	_, err := svc.UpdateSettings(f.payee.ID, false, nil)
	require.NoError(t, err)

	svc.Notify(f.payee.ID, 1, model.NotificationTypeFormApproved, "Approved", "Your form was approved.")

	assert.Empty(t, sender.sent)
	notifications, _, err := f.notificationRepo.FindByUser(f.payee.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationStatusPending, notifications[0].NotificationStatus)
}

func TestNotificationService_NotifyAdminsFansOut(t *testing.T) {
	f := setupServiceTest(t)

	second := &model.User{
		Email:        "admin2@example.com",
		PasswordHash: "hash",
		Name:         "Second Admin",
		Role:         model.RoleAdmin,
	}
	require.NoError(t, f.db.Create(second).Error)

	f.notificationService.NotifyAdmins(1, model.NotificationTypeAdminFormSubmitted,
		"Form awaiting review", "Form #1 needs review.")

	for _, adminID := range []uint{f.admin.ID, second.ID} {
		notifications, _, err := f.notificationRepo.FindByUser(adminID, 10, 0)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, model.NotificationTypeAdminFormSubmitted, notifications[0].NotificationType)
	}

	// Payees are not part of the admin fan-out
	notifications, _, err := f.notificationRepo.FindByUser(f.payee.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestNotificationService_ListAndMarkRead(t *testing.T) {
	f := setupServiceTest(t)

	f.notificationService.Notify(f.payee.ID, 1, model.NotificationTypeFormCreated, "Created", "first")
	f.notificationService.Notify(f.payee.ID, 1, model.NotificationTypeFormSubmitted, "Submitted", "second")

	notifications, total, unread, err := f.notificationService.List(f.payee.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(2), unread)
	require.Len(t, notifications, 2)

	require.NoError(t, f.notificationService.MarkRead(notifications[0].ID, f.payee.ID))

	_, _, unread, err = f.notificationService.List(f.payee.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestNotificationService_MarkReadScopedToOwner(t *testing.T) {
	f := setupServiceTest(t)

	f.notificationService.Notify(f.payee.ID, 1, model.NotificationTypeFormCreated, "Created", "body")
	notifications, _, err := f.notificationRepo.FindByUser(f.payee.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	err = f.notificationService.MarkRead(notifications[0].ID, f.admin.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	err = f.notificationService.MarkRead(9999, f.payee.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestNotificationSettings_Subscribed(t *testing.T) {
	settings := &model.NotificationSettings{}
	assert.True(t, settings.Subscribed(model.NotificationTypeFormApproved),
		"empty subscription list means all events")

	settings.SubscribedEvents = []string{string(model.NotificationTypeAdminFormSubmitted)}
	assert.True(t, settings.Subscribed(model.NotificationTypeAdminFormSubmitted))
	assert.False(t, settings.Subscribed(model.NotificationTypeFormApproved))
}
