package model

import (
	"time"

	"gorm.io/gorm"
)

type VerificationResult string

const (
	VerificationResultPending  VerificationResult = "pending"
	VerificationResultVerified VerificationResult = "verified"
	VerificationResultFailed   VerificationResult = "failed"

	VerificationTypeTINMatch     = "tin_match"
	VerificationProviderInternal = "internal"
)

// W9Verification records one TIN verification attempt for a form. Attempts
// are append-only; history is kept, never overwritten.
type W9Verification struct {
	ID                   uint               `gorm:"primarykey" json:"id"`
	W9FormID             uint               `gorm:"not null;index" json:"w9_form_id"`
	VerificationType     string             `gorm:"type:varchar(30);not null" json:"verification_type"`
	VerificationProvider string             `gorm:"type:varchar(30);not null" json:"verification_provider"`
	VerificationResult   VerificationResult `gorm:"type:varchar(20);default:'pending';index" json:"verification_result"`
	VerificationData     string             `gorm:"type:text" json:"verification_data,omitempty"`
	VerifiedAt           *time.Time         `json:"verified_at,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	DeletedAt            gorm.DeletedAt     `gorm:"index" json:"-"`

	W9Form TaxForm `gorm:"foreignKey:W9FormID" json:"-"`
}

func (W9Verification) TableName() string {
	return "w9_verifications"
}
