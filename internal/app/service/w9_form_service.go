package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/brandlift/w9-backend/internal/app/model"
	"github.com/brandlift/w9-backend/internal/app/repository"
	"github.com/brandlift/w9-backend/pkg/crypto"
	"github.com/brandlift/w9-backend/pkg/logger"
)

var (
	// ErrFormNotFound covers both a missing form and a form owned by
	// someone else; callers cannot distinguish the two.
	ErrFormNotFound = errors.New("w9 form not found")
	// ErrInvalidStatus is returned when an operation is attempted against a
	// form whose lifecycle state does not allow it.
	ErrInvalidStatus = errors.New("w9 form status does not allow this operation")
	// ErrVerificationFailed blocks approval of a form whose latest TIN
	// verification attempt failed.
	ErrVerificationFailed = errors.New("latest tin verification failed")
)

// ValidationFailedError carries the validator output when a submission is
// blocked by validation errors.
type ValidationFailedError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationFailedError) Error() string {
	return "w9 validation failed: " + strings.Join(e.Errors, "; ")
}

// ReviewAction is an admin decision on a submitted form.
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

// W9FormInput is the payload for creating a draft form. TaxIDNumber arrives
// in plaintext over TLS and is encrypted before it touches the database.
type W9FormInput struct {
	BusinessName                 string             `json:"business_name"`
	BusinessType                 model.BusinessType `json:"business_type"`
	TaxClassification            string             `json:"tax_classification"`
	PayeeName                    string             `json:"payee_name"`
	Address                      string             `json:"address"`
	City                         string             `json:"city"`
	State                        string             `json:"state"`
	ZipCode                      string             `json:"zip_code"`
	TINType                      model.TINType      `json:"tin_type"`
	TaxIDNumber                  string             `json:"tax_id_number"`
	IsSubjectToBackupWithholding bool               `json:"is_subject_to_backup_withholding"`
	BackupWithholdingReason      string             `json:"backup_withholding_reason"`
	IsCertified                  bool               `json:"is_certified"`
	Signature                    string             `json:"signature"`
	ContestID                    *uint              `json:"contest_id"`
	GiveawayID                   *uint              `json:"giveaway_id"`
}

// W9FormUpdateInput patches a draft. Nil fields are left untouched.
type W9FormUpdateInput struct {
	BusinessName                 *string             `json:"business_name"`
	BusinessType                 *model.BusinessType `json:"business_type"`
	TaxClassification            *string             `json:"tax_classification"`
	PayeeName                    *string             `json:"payee_name"`
	Address                      *string             `json:"address"`
	City                         *string             `json:"city"`
	State                        *string             `json:"state"`
	ZipCode                      *string             `json:"zip_code"`
	TINType                      *model.TINType      `json:"tin_type"`
	TaxIDNumber                  *string             `json:"tax_id_number"`
	IsSubjectToBackupWithholding *bool               `json:"is_subject_to_backup_withholding"`
	BackupWithholdingReason      *string             `json:"backup_withholding_reason"`
	IsCertified                  *bool               `json:"is_certified"`
	Signature                    *string             `json:"signature"`
}

// W9FormService owns the form lifecycle: draft, submitted, approved or
// rejected, expired. Status transitions are guarded compare-and-swap
// updates so concurrent requests cannot double-apply a transition.
type W9FormService interface {
	Create(userID uint, input *W9FormInput) (*model.TaxForm, error)
	Update(formID, userID uint, input *W9FormUpdateInput) (*model.TaxForm, error)
	Validate(formID, userID uint) (*ValidationResult, error)
	Submit(formID, userID uint) (*model.TaxForm, error)
	Review(formID, reviewerID uint, action ReviewAction, notes string) (*model.TaxForm, error)
	GetForUser(formID, userID uint) (*model.TaxForm, error)
	Get(formID uint) (*model.TaxForm, error)
	ListForUser(userID uint) ([]model.TaxForm, error)
	ListByStatus(status model.FormStatus, page, pageSize int) ([]model.TaxForm, int64, error)
	// MaskedTaxID returns the form's taxpayer ID reduced to its last four
	// digits, for admin display and document rendering.
	MaskedTaxID(form *model.TaxForm) (string, error)
	ExpireOverdue(now time.Time) (int64, error)
}

type w9FormService struct {
	formRepo            repository.TaxFormRepository
	codec               *crypto.Codec
	verificationService VerificationService
	notificationService NotificationService
}

func NewW9FormService(
	formRepo repository.TaxFormRepository,
	codec *crypto.Codec,
	verificationService VerificationService,
	notificationService NotificationService,
) W9FormService {
	return &w9FormService{
		formRepo:            formRepo,
		codec:               codec,
		verificationService: verificationService,
		notificationService: notificationService,
	}
}

func (s *w9FormService) Create(userID uint, input *W9FormInput) (*model.TaxForm, error) {
	now := time.Now()
	form := &model.TaxForm{
		UserID:                       userID,
		ContestID:                    input.ContestID,
		GiveawayID:                   input.GiveawayID,
		BusinessName:                 input.BusinessName,
		BusinessType:                 input.BusinessType,
		TaxClassification:            input.TaxClassification,
		PayeeName:                    input.PayeeName,
		Address:                      input.Address,
		City:                         input.City,
		State:                        input.State,
		ZipCode:                      input.ZipCode,
		TINType:                      input.TINType,
		IsSubjectToBackupWithholding: input.IsSubjectToBackupWithholding,
		BackupWithholdingReason:      input.BackupWithholdingReason,
		IsCertified:                  input.IsCertified,
		Signature:                    input.Signature,
		Status:                       model.FormStatusDraft,
		ExpirationDate:               now.AddDate(model.FormValidityYears, 0, 0),
	}
	if input.IsCertified {
		form.CertificationDate = &now
	}

	if input.TaxIDNumber != "" {
		encrypted, err := s.codec.Encrypt(input.TaxIDNumber)
		if err != nil {
			return nil, fmt.Errorf("encrypt taxpayer id: %w", err)
		}
		form.TaxIDEncrypted = encrypted
	}

	if err := s.formRepo.Create(form); err != nil {
		return nil, fmt.Errorf("create w9 form: %w", err)
	}

	logger.Info("W9 form created", map[string]interface{}{
		"w9_form_id": form.ID,
		"user_id":    userID,
	})
	s.notificationService.Notify(userID, form.ID, model.NotificationTypeFormCreated,
		"W9 form created",
		"Your W9 form has been created. Complete and submit it for review.")
	return form, nil
}

func (s *w9FormService) Update(formID, userID uint, input *W9FormUpdateInput) (*model.TaxForm, error) {
	form, err := s.findOwned(formID, userID)
	if err != nil {
		return nil, err
	}
	if !form.Editable() {
		return nil, ErrInvalidStatus
	}

	changes := map[string]interface{}{}
	if input.BusinessName != nil {
		changes["business_name"] = *input.BusinessName
	}
	if input.BusinessType != nil {
		changes["business_type"] = *input.BusinessType
	}
	if input.TaxClassification != nil {
		changes["tax_classification"] = *input.TaxClassification
	}
	if input.PayeeName != nil {
		changes["payee_name"] = *input.PayeeName
	}
	if input.Address != nil {
		changes["address"] = *input.Address
	}
	if input.City != nil {
		changes["city"] = *input.City
	}
	if input.State != nil {
		changes["state"] = *input.State
	}
	if input.ZipCode != nil {
		changes["zip_code"] = *input.ZipCode
	}
	if input.TINType != nil {
		changes["tin_type"] = *input.TINType
	}
	if input.TaxIDNumber != nil {
		encrypted, err := s.codec.Encrypt(*input.TaxIDNumber)
		if err != nil {
			return nil, fmt.Errorf("encrypt taxpayer id: %w", err)
		}
		changes["tax_id_encrypted"] = encrypted
	}
	if input.IsSubjectToBackupWithholding != nil {
		changes["is_subject_to_backup_withholding"] = *input.IsSubjectToBackupWithholding
	}
	if input.BackupWithholdingReason != nil {
		changes["backup_withholding_reason"] = *input.BackupWithholdingReason
	}
	if input.IsCertified != nil {
		changes["is_certified"] = *input.IsCertified
		if *input.IsCertified && !form.IsCertified {
			changes["certification_date"] = time.Now()
		}
	}
	if input.Signature != nil {
		changes["signature"] = *input.Signature
	}

	if len(changes) == 0 {
		return form, nil
	}

	// Guard on draft so a concurrent submit cannot interleave with edits.
	affected, err := s.formRepo.UpdateStatusIf(formID, model.FormStatusDraft, changes)
	if err != nil {
		return nil, fmt.Errorf("update w9 form: %w", err)
	}
	if affected == 0 {
		return nil, ErrInvalidStatus
	}
	return s.findOwned(formID, userID)
}

func (s *w9FormService) Validate(formID, userID uint) (*ValidationResult, error) {
	form, err := s.findOwned(formID, userID)
	if err != nil {
		return nil, err
	}
	data, err := decryptFormData(s.codec, form)
	if err != nil {
		return nil, err
	}
	result := ValidateW9(data)
	return &result, nil
}

func (s *w9FormService) Submit(formID, userID uint) (*model.TaxForm, error) {
	form, err := s.findOwned(formID, userID)
	if err != nil {
		return nil, err
	}
	if form.Status != model.FormStatusDraft {
		return nil, ErrInvalidStatus
	}

	data, err := decryptFormData(s.codec, form)
	if err != nil {
		return nil, err
	}
	result := ValidateW9(data)
	if !result.IsValid {
		return nil, &ValidationFailedError{Errors: result.Errors, Warnings: result.Warnings}
	}

	now := time.Now()
	affected, err := s.formRepo.UpdateStatusIf(formID, model.FormStatusDraft, map[string]interface{}{
		"status":       model.FormStatusSubmitted,
		"submitted_at": now,
	})
	if err != nil {
		return nil, fmt.Errorf("submit w9 form: %w", err)
	}
	if affected == 0 {
		return nil, ErrInvalidStatus
	}

	if _, err := s.verificationService.InitiateVerification(formID); err != nil {
		logger.Error("Failed to open verification record on submit", err, map[string]interface{}{
			"w9_form_id": formID,
		})
	}

	logger.Info("W9 form submitted", map[string]interface{}{
		"w9_form_id": formID,
		"user_id":    userID,
	})
	s.notificationService.Notify(userID, formID, model.NotificationTypeFormSubmitted,
		"W9 form submitted",
		"Your W9 form has been submitted and is awaiting review.")
	s.notificationService.NotifyAdmins(formID, model.NotificationTypeAdminFormSubmitted,
		"W9 form awaiting review",
		fmt.Sprintf("Form #%d has been submitted and needs review.", formID))

	return s.findOwned(formID, userID)
}

func (s *w9FormService) Review(formID, reviewerID uint, action ReviewAction, notes string) (*model.TaxForm, error) {
	form, err := s.Get(formID)
	if err != nil {
		return nil, err
	}
	if form.Status != model.FormStatusSubmitted {
		return nil, ErrInvalidStatus
	}

	now := time.Now()
	changes := map[string]interface{}{
		"reviewed_at":  now,
		"reviewed_by":  reviewerID,
		"review_notes": notes,
	}

	var ntype model.NotificationType
	var subject, message string
	switch action {
	case ReviewActionApprove:
		failed, err := s.verificationService.LatestFailed(formID)
		if err != nil {
			return nil, fmt.Errorf("check verification history: %w", err)
		}
		if failed {
			return nil, ErrVerificationFailed
		}
		changes["status"] = model.FormStatusApproved
		changes["is_valid"] = true
		changes["last_verified_at"] = now
		ntype = model.NotificationTypeFormApproved
		subject = "W9 form approved"
		message = "Your W9 form has been approved and is valid for payouts."
	case ReviewActionReject:
		changes["status"] = model.FormStatusRejected
		changes["is_valid"] = false
		ntype = model.NotificationTypeFormRejected
		subject = "W9 form rejected"
		message = "Your W9 form was rejected. Please review the notes and submit a new form."
		if notes != "" {
			message = fmt.Sprintf("Your W9 form was rejected: %s. Please review the notes and submit a new form.", notes)
		}
	default:
		return nil, fmt.Errorf("unknown review action %q", action)
	}

	affected, err := s.formRepo.UpdateStatusIf(formID, model.FormStatusSubmitted, changes)
	if err != nil {
		return nil, fmt.Errorf("review w9 form: %w", err)
	}
	if affected == 0 {
		return nil, ErrInvalidStatus
	}

	logger.Info("W9 form reviewed", map[string]interface{}{
		"w9_form_id":  formID,
		"reviewer_id": reviewerID,
		"action":      action,
	})
	s.notificationService.Notify(form.UserID, formID, ntype, subject, message)

	return s.Get(formID)
}

func (s *w9FormService) GetForUser(formID, userID uint) (*model.TaxForm, error) {
	return s.findOwned(formID, userID)
}

func (s *w9FormService) Get(formID uint) (*model.TaxForm, error) {
	form, err := s.formRepo.FindByID(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return form, nil
}

func (s *w9FormService) ListForUser(userID uint) ([]model.TaxForm, error) {
	return s.formRepo.FindByUser(userID)
}

func (s *w9FormService) ListByStatus(status model.FormStatus, page, pageSize int) ([]model.TaxForm, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.formRepo.FindByStatus(status, pageSize, (page-1)*pageSize)
}

func (s *w9FormService) MaskedTaxID(form *model.TaxForm) (string, error) {
	if form.TaxIDEncrypted == "" {
		return "", nil
	}
	taxID, err := s.codec.Decrypt(form.TaxIDEncrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt taxpayer id for form %d: %w", form.ID, err)
	}
	return MaskTIN(taxID, form.TINType), nil
}

func (s *w9FormService) ExpireOverdue(now time.Time) (int64, error) {
	return s.formRepo.ExpireOverdue(now)
}

func (s *w9FormService) findOwned(formID, userID uint) (*model.TaxForm, error) {
	form, err := s.formRepo.FindByIDAndUser(formID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return form, nil
}

// decryptFormData builds the transient plaintext view of a form used by
// validation and verification. The plaintext TIN lives only on the stack.
func decryptFormData(codec *crypto.Codec, form *model.TaxForm) (W9FormData, error) {
	data := W9FormData{
		PayeeName:                    form.PayeeName,
		BusinessName:                 form.BusinessName,
		BusinessType:                 form.BusinessType,
		TINType:                      form.TINType,
		Address:                      form.Address,
		City:                         form.City,
		State:                        form.State,
		ZipCode:                      form.ZipCode,
		IsCertified:                  form.IsCertified,
		IsSubjectToBackupWithholding: form.IsSubjectToBackupWithholding,
		BackupWithholdingReason:      form.BackupWithholdingReason,
	}
	if form.TaxIDEncrypted != "" {
		taxID, err := codec.Decrypt(form.TaxIDEncrypted)
		if err != nil {
			return W9FormData{}, fmt.Errorf("decrypt taxpayer id for form %d: %w", form.ID, err)
		}
		data.TaxIDNumber = taxID
	}
	return data, nil
}
