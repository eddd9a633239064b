package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brandlift/w9-backend/internal/app/model"
	"github.com/brandlift/w9-backend/internal/app/repository"
	"github.com/brandlift/w9-backend/internal/db"
	"github.com/brandlift/w9-backend/pkg/crypto"
)

// serviceFixture wires real repositories over an in-memory database so
// service tests exercise the full persistence path.
type serviceFixture struct {
	db               *gorm.DB
	codec            *crypto.Codec
	formRepo         repository.TaxFormRepository
	submissionRepo   repository.SubmissionRepository
	verificationRepo repository.VerificationRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository

	formService         W9FormService
	verificationService VerificationService
	notificationService NotificationService
	reportingService    ReportingService

	payee *model.User
	admin *model.User
}

func setupServiceTest(t *testing.T) *serviceFixture {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	codec, err := crypto.NewCodec("service-test-secret")
	require.NoError(t, err)

	f := &serviceFixture{
		db:               testDB,
		codec:            codec,
		formRepo:         repository.NewTaxFormRepository(testDB),
		submissionRepo:   repository.NewSubmissionRepository(testDB),
		verificationRepo: repository.NewVerificationRepository(testDB),
		notificationRepo: repository.NewNotificationRepository(testDB),
		userRepo:         repository.NewUserRepository(testDB),
	}
	f.notificationService = NewNotificationService(f.notificationRepo, f.userRepo, nil, nil)
	f.verificationService = NewVerificationService(f.verificationRepo, f.formRepo, codec, nil)
	f.formService = NewW9FormService(f.formRepo, codec, f.verificationService, f.notificationService)
	f.reportingService = NewReportingService(f.submissionRepo, f.formRepo, codec, f.notificationService)

	f.payee = &model.User{
		Email:        "payee@example.com",
		PasswordHash: "hash",
		Name:         "Jane Doe",
		Role:         model.RolePayee,
	}
	require.NoError(t, testDB.Create(f.payee).Error)

	f.admin = &model.User{
		Email:        "admin@example.com",
		PasswordHash: "hash",
		Name:         "Site Admin",
		Role:         model.RoleAdmin,
	}
	require.NoError(t, testDB.Create(f.admin).Error)

	return f
}

func completeFormInput() *W9FormInput {
	return &W9FormInput{
		PayeeName:    "Jane Doe",
		BusinessType: model.BusinessTypeIndividual,
		TINType:      model.TINTypeSSN,
		TaxIDNumber:  "123-45-6789",
		Address:      "1 Main St",
		City:         "Springfield",
		State:        "IL",
		ZipCode:      "62704",
		IsCertified:  true,
	}
}

func (f *serviceFixture) createSubmittedForm(t *testing.T) *model.TaxForm {
	t.Helper()
	form, err := f.formService.Create(f.payee.ID, completeFormInput())
	require.NoError(t, err)
	form, err = f.formService.Submit(form.ID, f.payee.ID)
	require.NoError(t, err)
	return form
}

func TestW9FormService_CreateEncryptsTaxID(t *testing.T) {
	f := setupServiceTest(t)

	form, err := f.formService.Create(f.payee.ID, completeFormInput())
	require.NoError(t, err)

	assert.Equal(t, model.FormStatusDraft, form.Status)
	assert.False(t, form.IsValid)
	assert.NotNil(t, form.CertificationDate)
	assert.NotContains(t, form.TaxIDEncrypted, "123456789")
	assert.NotContains(t, form.TaxIDEncrypted, "123-45-6789")

	plaintext, err := f.codec.Decrypt(form.TaxIDEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "123-45-6789", plaintext)

	expectedExpiry := time.Now().AddDate(model.FormValidityYears, 0, 0)
	assert.WithinDuration(t, expectedExpiry, form.ExpirationDate, time.Minute)
}

func TestW9FormService_CreateNotifiesOwner(t *testing.T) {
	f := setupServiceTest(t)

	form, err := f.formService.Create(f.payee.ID, completeFormInput())
	require.NoError(t, err)

	notifications, _, err := f.notificationRepo.FindByUser(f.payee.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationTypeFormCreated, notifications[0].NotificationType)
	assert.Equal(t, form.ID, notifications[0].W9FormID)
}

func TestW9FormService_UpdateDraft(t *testing.T) {
	f := setupServiceTest(t)

	form, err := f.formService.Create(f.payee.ID, completeFormInput())
	require.NoError(t, err)

	newCity := "Chicago"
	newTaxID := "987-65-4321"
	updated, err := f.formService.Update(form.ID, f.payee.ID, &W9FormUpdateInput{
		City:        &newCity,
		TaxIDNumber: &newTaxID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Chicago", updated.City)
	plaintext, err := f.codec.Decrypt(updated.TaxIDEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "987-65-4321", plaintext)
	// Untouched fields survive a partial update
	assert.Equal(t, "Jane Doe", updated.PayeeName)
}

func TestW9FormService_UpdateRejectedAfterSubmit(t *testing.T) {
	f := setupServiceTest(t)
	form := f.createSubmittedForm(t)

	newCity := "Chicago"
	_, err := f.formService.Update(form.ID, f.payee.ID, &W9FormUpdateInput{City: &newCity})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestW9FormService_OwnershipScoping(t *testing.T) {
	f := setupServiceTest(t)

	form, err := f.formService.Create(f.payee.ID, completeFormInput())
	require.NoError(t, err)

	_, err = f.formService.GetForUser(form.ID, f.admin.ID)
	assert.ErrorIs(t, err, ErrFormNotFound)

	_, err = f.formService.GetForUser(9999, f.payee.ID)
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestW9FormService_SubmitHappyPath(t *testing.T) {
	f := setupServiceTest(t)

	form, err := f.formService.Create(f.payee.ID, completeFormInput())
	require.NoError(t, err)

	submitted, err := f.formService.Submit(form.ID, f.payee.ID)
	require.NoError(t, err)

	assert.Equal(t, model.FormStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	assert.False(t, submitted.IsValid, "submission alone never makes a form valid")

	// A pending verification record is opened on submit
	verification, err := f.verificationRepo.FindLatestByForm(form.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationResultPending, verification.VerificationResult)

	// Admins are fanned out to
	adminNotifications, _, err := f.notificationRepo.FindByUser(f.admin.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, adminNotifications, 1)
	assert.Equal(t, model.NotificationTypeAdminFormSubmitted, adminNotifications[0].NotificationType)
}

func TestW9FormService_SubmitBlockedByValidation(t *testing.T) {
	f := setupServiceTest(t)

	input := completeFormInput()
	input.ZipCode = ""
	input.TaxIDNumber = "1234"
	form, err := f.formService.Create(f.payee.ID, input)
	require.NoError(t, err)

	_, err = f.formService.Submit(form.ID, f.payee.ID)
	require.Error(t, err)

	var validationErr *ValidationFailedError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Errors, "ZIP code is required")
	assert.Contains(t, validationErr.Errors, "SSN must be exactly 9 digits")

	// Failed submission leaves the form editable
	current, err := f.formService.GetForUser(form.ID, f.payee.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FormStatusDraft, current.Status)
}

func TestW9FormService_SubmitTwice(t *testing.T) {
	f := setupServiceTest(t)
	form := f.createSubmittedForm(t)

	_, err := f.formService.Submit(form.ID, f.payee.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestW9FormService_ReviewApprove(t *testing.T) {
	f := setupServiceTest(t)
	form := f.createSubmittedForm(t)

	approved, err := f.formService.Review(form.ID, f.admin.ID, ReviewActionApprove, "looks good")
	require.NoError(t, err)

	assert.Equal(t, model.FormStatusApproved, approved.Status)
	assert.True(t, approved.IsValid)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, f.admin.ID, *approved.ReviewedBy)
	assert.NotNil(t, approved.ReviewedAt)
	assert.NotNil(t, approved.LastVerifiedAt)

	notifications, _, err := f.notificationRepo.FindByUser(f.payee.ID, 10, 0)
	require.NoError(t, err)
	var types []model.NotificationType
	for _, n := range notifications {
		types = append(types, n.NotificationType)
	}
	assert.Contains(t, types, model.NotificationTypeFormApproved)
}

func TestW9FormService_ReviewReject(t *testing.T) {
	f := setupServiceTest(t)
	form := f.createSubmittedForm(t)

	rejected, err := f.formService.Review(form.ID, f.admin.ID, ReviewActionReject, "SSN mismatch")
	require.NoError(t, err)

	assert.Equal(t, model.FormStatusRejected, rejected.Status)
	assert.False(t, rejected.IsValid)
	assert.Equal(t, "SSN mismatch", rejected.ReviewNotes)

	notifications, _, err := f.notificationRepo.FindByUser(f.payee.ID, 10, 0)
	require.NoError(t, err)
	var rejection *model.W9Notification
	for i := range notifications {
		if notifications[i].NotificationType == model.NotificationTypeFormRejected {
			rejection = &notifications[i]
		}
	}
	require.NotNil(t, rejection)
	assert.Contains(t, rejection.Message, "SSN mismatch")
}

func TestW9FormService_ReviewRequiresSubmittedStatus(t *testing.T) {
	f := setupServiceTest(t)

	form, err := f.formService.Create(f.payee.ID, completeFormInput())
	require.NoError(t, err)

	_, err = f.formService.Review(form.ID, f.admin.ID, ReviewActionApprove, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// A decided form cannot be re-reviewed
	submitted := f.createSubmittedForm(t)
	_, err = f.formService.Review(submitted.ID, f.admin.ID, ReviewActionApprove, "")
	require.NoError(t, err)
	_, err = f.formService.Review(submitted.ID, f.admin.ID, ReviewActionReject, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestW9FormService_ApproveBlockedByFailedVerification(t *testing.T) {
	f := setupServiceTest(t)
	form := f.createSubmittedForm(t)

	verification, err := f.verificationRepo.FindLatestByForm(form.ID)
	require.NoError(t, err)
	now := time.Now()
	verification.VerificationResult = model.VerificationResultFailed
	verification.VerifiedAt = &now
	require.NoError(t, f.verificationRepo.Update(verification))

	_, err = f.formService.Review(form.ID, f.admin.ID, ReviewActionApprove, "")
	assert.ErrorIs(t, err, ErrVerificationFailed)

	// Rejection is still allowed
	rejected, err := f.formService.Review(form.ID, f.admin.ID, ReviewActionReject, "verification failed")
	require.NoError(t, err)
	assert.Equal(t, model.FormStatusRejected, rejected.Status)
}

func TestW9FormService_MaskedTaxID(t *testing.T) {
	f := setupServiceTest(t)

	form, err := f.formService.Create(f.payee.ID, completeFormInput())
	require.NoError(t, err)

	masked, err := f.formService.MaskedTaxID(form)
	require.NoError(t, err)
	assert.Equal(t, "***-**-6789", masked)
}

func TestW9FormService_ExpireOverdue(t *testing.T) {
	f := setupServiceTest(t)
	form := f.createSubmittedForm(t)

	_, err := f.formService.Review(form.ID, f.admin.ID, ReviewActionApprove, "")
	require.NoError(t, err)

	// Backdate the expiration to simulate an aged form
	require.NoError(t, f.db.Model(&model.TaxForm{}).
		Where("id = ?", form.ID).
		Update("expiration_date", time.Now().AddDate(0, 0, -1)).Error)

	expired, err := f.formService.ExpireOverdue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	current, err := f.formService.Get(form.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FormStatusExpired, current.Status)
	assert.False(t, current.IsValid)
}
