package model

import (
	"time"

	"gorm.io/gorm"
)

type SubmissionType string // what triggered the payout needing a W9

const (
	SubmissionTypeContestWin     SubmissionType = "contest_win"
	SubmissionTypeGiveawayWin    SubmissionType = "giveaway_win"
	SubmissionTypePaymentRequest SubmissionType = "payment_request"
)

// ReportingThreshold is the IRS 1099 reporting floor in dollars. Prizes at
// or above this amount require a valid W9 and year-end reporting.
const ReportingThreshold = 600.0

// W9Submission links one payout event to the W9 form that covers it. A form
// may back many submissions; a submission is only created against a form
// that is approved and valid at creation time.
type W9Submission struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	W9FormID       uint           `gorm:"not null;index" json:"w9_form_id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	SubmissionType SubmissionType `gorm:"type:varchar(30);not null" json:"submission_type"`
	ContextID      *uint          `gorm:"index" json:"context_id,omitempty"` // contest or giveaway id
	PrizeValue     *float64       `json:"prize_value,omitempty"`
	NeedsReporting bool           `gorm:"default:false;index" json:"needs_reporting"` // prize >= ReportingThreshold
	ReportingYear  int            `gorm:"not null;index" json:"reporting_year"`
	Form1099Sent   bool           `gorm:"column:form_1099_sent;default:false;index" json:"form_1099_sent"`
	Form1099SentAt *time.Time     `gorm:"column:form_1099_sent_at" json:"form_1099_sent_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	W9Form TaxForm `gorm:"foreignKey:W9FormID" json:"w9_form,omitempty"`
	User   User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (W9Submission) TableName() string {
	return "w9_submissions"
}
