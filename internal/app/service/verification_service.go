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

// TINVerifier checks a decrypted form against an identity source and
// returns the outcome plus a short provider note. Implementations must not
// retain or log the plaintext taxpayer ID.
type TINVerifier interface {
	Provider() string
	Verify(data W9FormData) (model.VerificationResult, string, error)
}

// VerificationService manages the TIN verification history of a form.
// Verification outcomes are recorded but never change form validity; only
// an admin review decision does that.
type VerificationService interface {
	// InitiateVerification opens a pending verification record for a newly
	// submitted form.
	InitiateVerification(formID uint) (*model.W9Verification, error)
	// VerifyTIN runs the configured verifier against the form and records
	// the outcome on the latest pending record, or a fresh one.
	VerifyTIN(formID uint) (*model.W9Verification, error)
	History(formID uint) ([]model.W9Verification, error)
	// LatestFailed reports whether the form's most recent verification
	// attempt failed. No history at all is not a failure.
	LatestFailed(formID uint) (bool, error)
}

type verificationService struct {
	verificationRepo repository.VerificationRepository
	formRepo         repository.TaxFormRepository
	codec            *crypto.Codec
	verifier         TINVerifier
}

func NewVerificationService(
	verificationRepo repository.VerificationRepository,
	formRepo repository.TaxFormRepository,
	codec *crypto.Codec,
	verifier TINVerifier,
) VerificationService {
	if verifier == nil {
		verifier = &internalVerifier{}
	}
	return &verificationService{
		verificationRepo: verificationRepo,
		formRepo:         formRepo,
		codec:            codec,
		verifier:         verifier,
	}
}

func (s *verificationService) InitiateVerification(formID uint) (*model.W9Verification, error) {
	verification := &model.W9Verification{
		W9FormID:             formID,
		VerificationType:     model.VerificationTypeTINMatch,
		VerificationProvider: s.verifier.Provider(),
		VerificationResult:   model.VerificationResultPending,
	}
	if err := s.verificationRepo.Create(verification); err != nil {
		return nil, fmt.Errorf("create verification record: %w", err)
	}
	return verification, nil
}

func (s *verificationService) VerifyTIN(formID uint) (*model.W9Verification, error) {
	form, err := s.formRepo.FindByID(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	data, err := decryptFormData(s.codec, form)
	if err != nil {
		return nil, err
	}

	result, note, err := s.verifier.Verify(data)
	if err != nil {
		return nil, fmt.Errorf("run tin verification: %w", err)
	}

	verification, err := s.verificationRepo.FindLatestByForm(formID)
	if err != nil || verification.VerificationResult != model.VerificationResultPending {
		verification = &model.W9Verification{
			W9FormID:             formID,
			VerificationType:     model.VerificationTypeTINMatch,
			VerificationProvider: s.verifier.Provider(),
		}
		if err := s.verificationRepo.Create(verification); err != nil {
			return nil, fmt.Errorf("create verification record: %w", err)
		}
	}

	now := time.Now()
	verification.VerificationResult = result
	verification.VerificationData = note
	verification.VerifiedAt = &now
	if err := s.verificationRepo.Update(verification); err != nil {
		return nil, fmt.Errorf("record verification outcome: %w", err)
	}

	if result == model.VerificationResultVerified {
		if err := s.formRepo.Updates(formID, map[string]interface{}{"last_verified_at": now}); err != nil {
			logger.Error("Failed to stamp last verification time", err, map[string]interface{}{
				"w9_form_id": formID,
			})
		}
	}

	logger.Info("TIN verification completed", map[string]interface{}{
		"w9_form_id": formID,
		"result":     result,
		"provider":   verification.VerificationProvider,
	})
	return verification, nil
}

func (s *verificationService) History(formID uint) ([]model.W9Verification, error) {
	return s.verificationRepo.FindByForm(formID)
}

func (s *verificationService) LatestFailed(formID uint) (bool, error) {
	latest, err := s.verificationRepo.FindLatestByForm(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return latest.VerificationResult == model.VerificationResultFailed, nil
}

// internalVerifier is a structural TIN check used until a real IRS TIN
// matching provider is wired in. It never contacts an external service.
type internalVerifier struct{}

func (v *internalVerifier) Provider() string {
	return model.VerificationProviderInternal
}

func (v *internalVerifier) Verify(data W9FormData) (model.VerificationResult, string, error) {
	digits := digitsOnly(data.TaxIDNumber)
	if len(digits) != tinDigits {
		return model.VerificationResultFailed, "tin is not nine digits", nil
	}
	if strings.Count(digits, string(digits[0])) == len(digits) {
		return model.VerificationResultFailed, "tin is a repeated digit sequence", nil
	}
	if strings.TrimSpace(data.PayeeName) == "" {
		return model.VerificationResultFailed, "payee name missing", nil
	}
	return model.VerificationResultVerified, "structural checks passed", nil
}
