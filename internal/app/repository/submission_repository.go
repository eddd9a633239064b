package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/brandlift/w9-backend/internal/app/model"
)

// SubmissionRepository is the W9 submission persistence interface
type SubmissionRepository interface {
	Create(submission *model.W9Submission) error
	FindByID(id uint) (*model.W9Submission, error)
	FindByUser(userID uint) ([]model.W9Submission, error)
	// FindReportable returns submissions for the year that still need a 1099
	// issued. Rows already marked sent are excluded, which makes the batch
	// naturally idempotent.
	FindReportable(year int) ([]model.W9Submission, error)
	FindReported(year int) ([]model.W9Submission, error)
	MarkForm1099Sent(id uint, sentAt time.Time) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(submission *model.W9Submission) error {
	return r.db.Create(submission).Error
}

func (r *submissionRepository) FindByID(id uint) (*model.W9Submission, error) {
	var submission model.W9Submission
	if err := r.db.First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindByUser(userID uint) ([]model.W9Submission, error) {
	var submissions []model.W9Submission
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) FindReportable(year int) ([]model.W9Submission, error) {
	var submissions []model.W9Submission
	err := r.db.
		Where("reporting_year = ? AND needs_reporting = ? AND form_1099_sent = ?", year, true, false).
		Preload("User").
		Preload("W9Form").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) FindReported(year int) ([]model.W9Submission, error) {
	var submissions []model.W9Submission
	err := r.db.
		Where("reporting_year = ? AND needs_reporting = ? AND form_1099_sent = ?", year, true, true).
		Preload("User").
		Preload("W9Form").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) MarkForm1099Sent(id uint, sentAt time.Time) error {
	return r.db.Model(&model.W9Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"form_1099_sent":    true,
			"form_1099_sent_at": sentAt,
		}).Error
}
