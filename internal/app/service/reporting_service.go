package service

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/brandlift/w9-backend/internal/app/model"
	"github.com/brandlift/w9-backend/internal/app/repository"
	"github.com/brandlift/w9-backend/pkg/crypto"
	"github.com/brandlift/w9-backend/pkg/logger"
)

// ErrFormNotUsable is returned when a payout submission is attempted
// against a form that is not approved, not valid, or already expired.
var ErrFormNotUsable = errors.New("w9 form is not usable for payouts")

// W9RequirementResult answers whether a payout still needs a W9 filed.
// Required flips back to false once a valid form already satisfies it.
type W9RequirementResult struct {
	Required     bool           `json:"required"`
	Reason       string         `json:"reason,omitempty"`
	ExistingForm *model.TaxForm `json:"existing_form,omitempty"`
	Threshold    float64        `json:"threshold"`
}

// PayoutGateResult is the same threshold decision shaped for a payout
// workflow, which needs both facts separately.
type PayoutGateResult struct {
	Required     bool   `json:"required"`
	HasValidForm bool   `json:"has_valid_form"`
	FormID       *uint  `json:"form_id,omitempty"`
	Message      string `json:"message"`
}

// Batch1099Result summarizes one 1099 generation run. Failures are
// collected per row; one bad submission never aborts the batch.
type Batch1099Result struct {
	Year      int      `json:"year"`
	Processed int      `json:"processed"`
	Errors    []string `json:"errors,omitempty"`
}

// SubmissionInput creates a payout-to-form link.
type SubmissionInput struct {
	W9FormID       uint                 `json:"w9_form_id"`
	SubmissionType model.SubmissionType `json:"submission_type"`
	ContextID      *uint                `json:"context_id"`
	PrizeValue     *float64             `json:"prize_value"`
}

// ReportingService owns the IRS reporting side: the $600 threshold check,
// payout gating, and year-end 1099 batch generation and export.
type ReportingService interface {
	// CheckW9Requirement reports whether the user still needs to file a W9
	// for a payout of the given value. A nil prize value never requires one.
	CheckW9Requirement(userID uint, submissionType model.SubmissionType, prizeValue *float64) (*W9RequirementResult, error)
	// CheckW9RequirementForPayout is the gate a payout workflow calls
	// before releasing funds at or above the reporting threshold.
	CheckW9RequirementForPayout(userID uint, prizeValue float64, contextType model.SubmissionType, contextID *uint) (*PayoutGateResult, error)
	CreateSubmission(userID uint, input *SubmissionInput) (*model.W9Submission, error)
	ListSubmissions(userID uint) ([]model.W9Submission, error)
	// Generate1099Forms processes every reportable submission for the year
	// that has not been sent a 1099 yet. Safe to run repeatedly.
	Generate1099Forms(year int) (*Batch1099Result, error)
	// Export1099Report builds an XLSX workbook of the year's reportable
	// submissions. Taxpayer IDs appear masked to their last four digits.
	Export1099Report(year int) ([]byte, error)
}

type reportingService struct {
	submissionRepo      repository.SubmissionRepository
	formRepo            repository.TaxFormRepository
	codec               *crypto.Codec
	notificationService NotificationService
}

func NewReportingService(
	submissionRepo repository.SubmissionRepository,
	formRepo repository.TaxFormRepository,
	codec *crypto.Codec,
	notificationService NotificationService,
) ReportingService {
	return &reportingService{
		submissionRepo:      submissionRepo,
		formRepo:            formRepo,
		codec:               codec,
		notificationService: notificationService,
	}
}

func (s *reportingService) CheckW9Requirement(userID uint, submissionType model.SubmissionType, prizeValue *float64) (*W9RequirementResult, error) {
	result := &W9RequirementResult{Threshold: model.ReportingThreshold}

	if prizeValue == nil || *prizeValue < model.ReportingThreshold {
		return result, nil
	}

	form, err := s.formRepo.FindValidForUser(userID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Required = true
			result.Reason = fmt.Sprintf(
				"a W9 form is required for a %s prize of $%.2f or more",
				submissionType, model.ReportingThreshold)
			return result, nil
		}
		return nil, err
	}

	// Already satisfied by a form on file
	result.ExistingForm = form
	return result, nil
}

func (s *reportingService) CheckW9RequirementForPayout(userID uint, prizeValue float64, contextType model.SubmissionType, contextID *uint) (*PayoutGateResult, error) {
	result := &PayoutGateResult{}

	if prizeValue < model.ReportingThreshold {
		result.Message = "No W9 form is required for this payout"
		return result, nil
	}

	result.Required = true
	form, err := s.formRepo.FindValidForUser(userID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Message = "A valid W9 form must be on file before this payout can be released"
			return result, nil
		}
		return nil, err
	}

	result.HasValidForm = true
	result.FormID = &form.ID
	result.Message = "An approved W9 form is on file; the payout may proceed"
	return result, nil
}

func (s *reportingService) CreateSubmission(userID uint, input *SubmissionInput) (*model.W9Submission, error) {
	form, err := s.formRepo.FindByIDAndUser(input.W9FormID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	now := time.Now()
	if !form.UsableForPayout(now) {
		return nil, ErrFormNotUsable
	}

	submission := &model.W9Submission{
		W9FormID:       form.ID,
		UserID:         userID,
		SubmissionType: input.SubmissionType,
		ContextID:      input.ContextID,
		PrizeValue:     input.PrizeValue,
		ReportingYear:  now.Year(),
	}
	if input.PrizeValue != nil && *input.PrizeValue >= model.ReportingThreshold {
		submission.NeedsReporting = true
	}

	if err := s.submissionRepo.Create(submission); err != nil {
		return nil, fmt.Errorf("create w9 submission: %w", err)
	}

	logger.Info("W9 submission recorded", map[string]interface{}{
		"submission_id":   submission.ID,
		"w9_form_id":      form.ID,
		"user_id":         userID,
		"needs_reporting": submission.NeedsReporting,
	})
	return submission, nil
}

func (s *reportingService) ListSubmissions(userID uint) ([]model.W9Submission, error) {
	return s.submissionRepo.FindByUser(userID)
}

func (s *reportingService) Generate1099Forms(year int) (*Batch1099Result, error) {
	submissions, err := s.submissionRepo.FindReportable(year)
	if err != nil {
		return nil, fmt.Errorf("load reportable submissions: %w", err)
	}

	result := &Batch1099Result{Year: year}
	for _, submission := range submissions {
		if err := s.issue1099(&submission); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("submission %d: %v", submission.ID, err))
			continue
		}
		result.Processed++
	}

	logger.Info("1099 batch completed", map[string]interface{}{
		"year":      year,
		"processed": result.Processed,
		"failed":    len(result.Errors),
	})
	return result, nil
}

func (s *reportingService) issue1099(submission *model.W9Submission) error {
	if err := s.submissionRepo.MarkForm1099Sent(submission.ID, time.Now()); err != nil {
		return fmt.Errorf("mark 1099 sent: %w", err)
	}

	var prize float64
	if submission.PrizeValue != nil {
		prize = *submission.PrizeValue
	}
	s.notificationService.Notify(submission.UserID, submission.W9FormID,
		model.NotificationTypeForm1099Issued,
		fmt.Sprintf("Your %d Form 1099 is ready", submission.ReportingYear),
		fmt.Sprintf("A Form 1099 has been issued for your %d prize winnings of $%.2f.",
			submission.ReportingYear, prize))
	return nil
}

func (s *reportingService) Export1099Report(year int) ([]byte, error) {
	reportable, err := s.submissionRepo.FindReportable(year)
	if err != nil {
		return nil, fmt.Errorf("load reportable submissions: %w", err)
	}
	reported, err := s.submissionRepo.FindReported(year)
	if err != nil {
		return nil, fmt.Errorf("load reported submissions: %w", err)
	}
	submissions := append(reported, reportable...)

	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("1099 %d", year)
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Submission ID", "Payee Name", "Email", "TIN (masked)", "TIN Type",
		"Prize Value", "Submission Type", "Form ID", "1099 Sent", "1099 Sent At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, submission := range submissions {
		masked := ""
		if submission.W9Form.TaxIDEncrypted != "" {
			taxID, err := s.codec.Decrypt(submission.W9Form.TaxIDEncrypted)
			if err != nil {
				return nil, fmt.Errorf("decrypt taxpayer id for form %d: %w", submission.W9FormID, err)
			}
			masked = MaskTIN(taxID, submission.W9Form.TINType)
		}

		var prize float64
		if submission.PrizeValue != nil {
			prize = *submission.PrizeValue
		}
		sentAt := ""
		if submission.Form1099SentAt != nil {
			sentAt = submission.Form1099SentAt.Format(time.RFC3339)
		}

		values := []interface{}{
			submission.ID,
			submission.User.Name,
			submission.User.Email,
			masked,
			string(submission.W9Form.TINType),
			prize,
			string(submission.SubmissionType),
			submission.W9FormID,
			submission.Form1099Sent,
			sentAt,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write 1099 workbook: %w", err)
	}
	return buf.Bytes(), nil
}
