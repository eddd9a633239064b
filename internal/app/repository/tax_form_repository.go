package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/brandlift/w9-backend/internal/app/model"
)

// TaxFormRepository is the W9 form persistence interface
type TaxFormRepository interface {
	Create(form *model.TaxForm) error
	FindByID(id uint) (*model.TaxForm, error)
	FindByIDAndUser(id, userID uint) (*model.TaxForm, error)
	FindByUser(userID uint) ([]model.TaxForm, error)
	FindByStatus(status model.FormStatus, limit, offset int) ([]model.TaxForm, int64, error)
	// FindValidForUser returns the user's most recently verified form that is
	// approved, valid, and unexpired, or gorm.ErrRecordNotFound.
	FindValidForUser(userID uint, now time.Time) (*model.TaxForm, error)
	Updates(id uint, changes map[string]interface{}) error
	// UpdateStatusIf applies changes only when the form still has the
	// expected status. Returns the number of rows changed; zero means the
	// guard failed (a concurrent transition won).
	UpdateStatusIf(id uint, expected model.FormStatus, changes map[string]interface{}) (int64, error)
	// ExpireOverdue flips approved forms past their expiration date to
	// expired and clears the valid flag. Returns the number of rows aged out.
	ExpireOverdue(now time.Time) (int64, error)
}

type taxFormRepository struct {
	db *gorm.DB
}

func NewTaxFormRepository(db *gorm.DB) TaxFormRepository {
	return &taxFormRepository{db: db}
}

func (r *taxFormRepository) Create(form *model.TaxForm) error {
	return r.db.Create(form).Error
}

func (r *taxFormRepository) FindByID(id uint) (*model.TaxForm, error) {
	var form model.TaxForm
	if err := r.db.First(&form, id).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *taxFormRepository) FindByIDAndUser(id, userID uint) (*model.TaxForm, error) {
	var form model.TaxForm
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *taxFormRepository) FindByUser(userID uint) ([]model.TaxForm, error) {
	var forms []model.TaxForm
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&forms).Error
	return forms, err
}

func (r *taxFormRepository) FindByStatus(status model.FormStatus, limit, offset int) ([]model.TaxForm, int64, error) {
	var forms []model.TaxForm
	var total int64

	query := r.db.Model(&model.TaxForm{}).Where("status = ?", status)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("submitted_at ASC").Preload("User")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&forms).Error; err != nil {
		return nil, 0, err
	}
	return forms, total, nil
}

func (r *taxFormRepository) FindValidForUser(userID uint, now time.Time) (*model.TaxForm, error) {
	var form model.TaxForm
	err := r.db.
		Where("user_id = ? AND is_valid = ? AND status = ? AND expiration_date >= ?",
			userID, true, model.FormStatusApproved, now).
		Order("last_verified_at DESC").
		First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *taxFormRepository) Updates(id uint, changes map[string]interface{}) error {
	return r.db.Model(&model.TaxForm{}).Where("id = ?", id).Updates(changes).Error
}

func (r *taxFormRepository) UpdateStatusIf(id uint, expected model.FormStatus, changes map[string]interface{}) (int64, error) {
	res := r.db.Model(&model.TaxForm{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(changes)
	return res.RowsAffected, res.Error
}

func (r *taxFormRepository) ExpireOverdue(now time.Time) (int64, error) {
	res := r.db.Model(&model.TaxForm{}).
		Where("status = ? AND expiration_date < ?", model.FormStatusApproved, now).
		Updates(map[string]interface{}{
			"status":   model.FormStatusExpired,
			"is_valid": false,
		})
	return res.RowsAffected, res.Error
}
