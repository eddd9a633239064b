package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brandlift/w9-backend/internal/app/model"
	"github.com/brandlift/w9-backend/internal/db"
)

func setupSubmissionTest(t *testing.T) (*gorm.DB, SubmissionRepository, *model.TaxForm) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	user := &model.User{Email: "payee@example.com", PasswordHash: "hash", Name: "Jane Doe", Role: model.RolePayee}
	require.NoError(t, testDB.Create(user).Error)

	form := &model.TaxForm{
		UserID:         user.ID,
		PayeeName:      "Jane Doe",
		BusinessType:   model.BusinessTypeIndividual,
		TINType:        model.TINTypeSSN,
		TaxIDEncrypted: "aabb:ccdd",
		Status:         model.FormStatusApproved,
		IsValid:        true,
		ExpirationDate: time.Now().AddDate(model.FormValidityYears, 0, 0),
	}
	require.NoError(t, testDB.Create(form).Error)

	return testDB, NewSubmissionRepository(testDB), form
}

func TestSubmissionRepository_FindReportable(t *testing.T) {
	testDB, repo, form := setupSubmissionTest(t)
	year := time.Now().Year()
	prize := 750.0
	small := 100.0

	reportable := &model.W9Submission{
		W9FormID:       form.ID,
		UserID:         form.UserID,
		SubmissionType: model.SubmissionTypeContestWin,
		PrizeValue:     &prize,
		NeedsReporting: true,
		ReportingYear:  year,
	}
	require.NoError(t, repo.Create(reportable))

	belowThreshold := &model.W9Submission{
		W9FormID:       form.ID,
		UserID:         form.UserID,
		SubmissionType: model.SubmissionTypeGiveawayWin,
		PrizeValue:     &small,
		NeedsReporting: false,
		ReportingYear:  year,
	}
	require.NoError(t, repo.Create(belowThreshold))

	alreadySent := &model.W9Submission{
		W9FormID:       form.ID,
		UserID:         form.UserID,
		SubmissionType: model.SubmissionTypeContestWin,
		PrizeValue:     &prize,
		NeedsReporting: true,
		ReportingYear:  year,
		Form1099Sent:   true,
	}
	require.NoError(t, repo.Create(alreadySent))

	rows, err := repo.FindReportable(year)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, reportable.ID, rows[0].ID)

	// Marking the remaining row removes it from the reportable set
	require.NoError(t, repo.MarkForm1099Sent(reportable.ID, time.Now()))

	rows, err = repo.FindReportable(year)
	require.NoError(t, err)
	assert.Len(t, rows, 0)

	var updated model.W9Submission
	require.NoError(t, testDB.First(&updated, reportable.ID).Error)
	assert.True(t, updated.Form1099Sent)
	assert.NotNil(t, updated.Form1099SentAt)
}

// The 1099 queries spell these columns out in raw SQL, so the model tags
// must pin the exact names regardless of what the naming strategy would
// derive from Form1099Sent.
func TestSubmissionRepository_Form1099ColumnNames(t *testing.T) {
	testDB, _, _ := setupSubmissionTest(t)

	migrator := testDB.Migrator()
	assert.True(t, migrator.HasColumn(&model.W9Submission{}, "form_1099_sent"))
	assert.True(t, migrator.HasColumn(&model.W9Submission{}, "form_1099_sent_at"))
}

func TestSubmissionRepository_FindByUser(t *testing.T) {
	_, repo, form := setupSubmissionTest(t)

	for i := 0; i < 3; i++ {
		sub := &model.W9Submission{
			W9FormID:       form.ID,
			UserID:         form.UserID,
			SubmissionType: model.SubmissionTypePaymentRequest,
			ReportingYear:  time.Now().Year(),
		}
		require.NoError(t, repo.Create(sub))
	}

	subs, err := repo.FindByUser(form.UserID)
	require.NoError(t, err)
	assert.Len(t, subs, 3)
}
