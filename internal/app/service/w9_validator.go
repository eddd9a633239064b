package service

import (
	"strings"

	"github.com/brandlift/w9-backend/internal/app/model"
)

// W9FormData is the decrypted view of a form used for validation and
// verification. It exists only on the call stack; the plaintext tax ID is
// never persisted or logged.
type W9FormData struct {
	PayeeName                    string
	BusinessName                 string
	BusinessType                 model.BusinessType
	TINType                      model.TINType
	TaxIDNumber                  string
	Address                      string
	City                         string
	State                        string
	ZipCode                      string
	IsCertified                  bool
	IsSubjectToBackupWithholding bool
	BackupWithholdingReason      string
}

// ValidationResult is the outcome of validating a form. Warnings never
// block submission; IsValid is true exactly when Errors is empty.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// tinDigits is the required length of an SSN or EIN after stripping
// formatting characters.
const tinDigits = 9

// ValidateW9 checks a form against W9 submission rules. Pure function, no
// side effects.
func ValidateW9(data W9FormData) ValidationResult {
	var errs []string
	var warnings []string

	if strings.TrimSpace(data.PayeeName) == "" {
		errs = append(errs, "Payee name is required")
	}
	if strings.TrimSpace(data.Address) == "" {
		errs = append(errs, "Address is required")
	}
	if strings.TrimSpace(data.City) == "" {
		errs = append(errs, "City is required")
	}
	if strings.TrimSpace(data.State) == "" {
		errs = append(errs, "State is required")
	}

	if strings.TrimSpace(data.ZipCode) == "" {
		errs = append(errs, "ZIP code is required")
	} else if n := len(digitsOnly(data.ZipCode)); n != 5 && n != 9 {
		errs = append(errs, "ZIP code must be 5 or 9 digits")
	}

	if data.BusinessType == "" {
		errs = append(errs, "Business type is required")
	}

	if data.TINType == "" {
		errs = append(errs, "TIN type is required")
	}

	if strings.TrimSpace(data.TaxIDNumber) == "" {
		errs = append(errs, "Tax ID number is required")
	} else if len(digitsOnly(data.TaxIDNumber)) != tinDigits {
		switch data.TINType {
		case model.TINTypeEIN:
			errs = append(errs, "EIN must be exactly 9 digits")
		default:
			errs = append(errs, "SSN must be exactly 9 digits")
		}
	}

	if !data.IsCertified {
		errs = append(errs, "The form must be certified before submission")
	}

	if data.BusinessType == model.BusinessTypeIndividual && strings.TrimSpace(data.BusinessName) != "" {
		warnings = append(warnings, "A business name is not typically needed for individuals")
	}
	if data.BusinessType != "" && data.BusinessType != model.BusinessTypeIndividual &&
		strings.TrimSpace(data.BusinessName) == "" {
		warnings = append(warnings, "A business name is recommended for this business type")
	}

	if data.IsSubjectToBackupWithholding && strings.TrimSpace(data.BackupWithholdingReason) == "" {
		warnings = append(warnings, "A reason is recommended when subject to backup withholding")
	}

	return ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskTIN reduces a taxpayer ID to its last four digits for display and
// rendering, e.g. "***-**-6789".
func MaskTIN(taxID string, tinType model.TINType) string {
	digits := digitsOnly(taxID)
	if len(digits) < 4 {
		return "*********"
	}
	last4 := digits[len(digits)-4:]
	if tinType == model.TINTypeEIN {
		return "**-***" + last4
	}
	return "***-**-" + last4
}
