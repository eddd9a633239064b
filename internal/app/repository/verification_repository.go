package repository

import (
	"gorm.io/gorm"

	"github.com/brandlift/w9-backend/internal/app/model"
)

// VerificationRepository is the TIN verification persistence interface.
// Records are append-only; attempts update in place, history is never deleted.
type VerificationRepository interface {
	Create(verification *model.W9Verification) error
	Update(verification *model.W9Verification) error
	FindLatestByForm(formID uint) (*model.W9Verification, error)
	FindByForm(formID uint) ([]model.W9Verification, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) Create(verification *model.W9Verification) error {
	return r.db.Create(verification).Error
}

func (r *verificationRepository) Update(verification *model.W9Verification) error {
	return r.db.Save(verification).Error
}

func (r *verificationRepository) FindLatestByForm(formID uint) (*model.W9Verification, error) {
	var verification model.W9Verification
	err := r.db.Where("w9_form_id = ?", formID).
		Order("created_at DESC").
		First(&verification).Error
	if err != nil {
		return nil, err
	}
	return &verification, nil
}

func (r *verificationRepository) FindByForm(formID uint) ([]model.W9Verification, error) {
	var verifications []model.W9Verification
	err := r.db.Where("w9_form_id = ?", formID).
		Order("created_at DESC").
		Find(&verifications).Error
	return verifications, err
}
