package model

import (
	"time"

	"gorm.io/gorm"
)

type FormStatus string   // W9 form lifecycle state
type BusinessType string // federal tax classification of the payee
type TINType string      // taxpayer identification number kind

const (
	FormStatusDraft     FormStatus = "draft"     // editable by the owner
	FormStatusSubmitted FormStatus = "submitted" // locked, awaiting review
	FormStatusApproved  FormStatus = "approved"  // usable for payouts
	FormStatusRejected  FormStatus = "rejected"  // review failed
	FormStatusExpired   FormStatus = "expired"   // aged out after 3 years

	BusinessTypeIndividual     BusinessType = "individual"
	BusinessTypeSoleProprietor BusinessType = "sole_proprietor"
	BusinessTypePartnership    BusinessType = "partnership"
	BusinessTypeCorporation    BusinessType = "corporation"
	BusinessTypeLLC            BusinessType = "llc"
	BusinessTypeSCorp          BusinessType = "s_corp"
	BusinessTypeTrust          BusinessType = "trust"
	BusinessTypeEstate         BusinessType = "estate"
	BusinessTypeOther          BusinessType = "other"

	TINTypeSSN TINType = "ssn"
	TINTypeEIN TINType = "ein"
)

// FormValidityYears is how long an approved W9 remains usable.
const FormValidityYears = 3

// TaxForm is a payee W9 record. The taxpayer ID is stored encrypted and is
// decrypted only transiently for validation, rendering, or admin inspection.
type TaxForm struct {
	ID         uint  `gorm:"primarykey" json:"id"`
	UserID     uint  `gorm:"not null;index" json:"user_id"` // owning payee
	ContestID  *uint `gorm:"index" json:"contest_id,omitempty"`
	GiveawayID *uint `gorm:"index" json:"giveaway_id,omitempty"`

	// Profile
	BusinessName      string       `json:"business_name,omitempty"`
	BusinessType      BusinessType `gorm:"type:varchar(30)" json:"business_type"`
	TaxClassification string       `json:"tax_classification,omitempty"`
	PayeeName         string       `json:"payee_name"`
	Address           string       `json:"address"`
	City              string       `json:"city"`
	State             string       `gorm:"type:varchar(10)" json:"state"`
	ZipCode           string       `gorm:"type:varchar(12)" json:"zip_code"`

	// Identification. TaxIDEncrypted holds "iv_hex:cipher_hex"; the
	// plaintext TIN never appears in this struct, the database, or logs.
	TINType        TINType `gorm:"type:varchar(10)" json:"tin_type"`
	TaxIDEncrypted string  `gorm:"type:text" json:"-"`

	// Compliance
	IsSubjectToBackupWithholding bool       `gorm:"default:false" json:"is_subject_to_backup_withholding"`
	BackupWithholdingReason      string     `gorm:"type:text" json:"backup_withholding_reason,omitempty"`
	IsCertified                  bool       `gorm:"default:false" json:"is_certified"`
	CertificationDate            *time.Time `json:"certification_date,omitempty"`
	Signature                    string     `gorm:"type:text" json:"-"` // opaque blob (base64 image)

	// Lifecycle
	Status         FormStatus `gorm:"type:varchar(20);default:'draft';index" json:"status"`
	IsValid        bool       `gorm:"default:false;index" json:"is_valid"`
	ExpirationDate time.Time  `json:"expiration_date"` // fixed at creation, never recomputed
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy     *uint      `json:"reviewed_by,omitempty"`
	ReviewNotes    string     `gorm:"type:text" json:"review_notes,omitempty"`
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`

	// Rendering cache
	FormFileURL string `gorm:"type:text" json:"form_file_url,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (TaxForm) TableName() string {
	return "w9_forms"
}

// Editable reports whether the form may still be changed by its owner.
func (f *TaxForm) Editable() bool {
	return f.Status == FormStatusDraft
}

// UsableForPayout reports whether the form can back a new submission.
func (f *TaxForm) UsableForPayout(now time.Time) bool {
	return f.IsValid && f.Status == FormStatusApproved && f.ExpirationDate.After(now)
}
