package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandlift/w9-backend/internal/app/model"
)

func completeFormData() W9FormData {
	return W9FormData{
		PayeeName:    "Jane Doe",
		BusinessType: model.BusinessTypeIndividual,
		TINType:      model.TINTypeSSN,
		TaxIDNumber:  "123-45-6789",
		Address:      "1 Main St",
		City:         "Springfield",
		State:        "IL",
		ZipCode:      "62704",
		IsCertified:  true,
	}
}

func TestValidateW9_CompleteForm(t *testing.T) {
	result := ValidateW9(completeFormData())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateW9_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*W9FormData)
		wantErr string
	}{
		{
			name:    "missing payee name",
			mutate:  func(d *W9FormData) { d.PayeeName = "" },
			wantErr: "Payee name is required",
		},
		{
			name:    "missing address",
			mutate:  func(d *W9FormData) { d.Address = "" },
			wantErr: "Address is required",
		},
		{
			name:    "missing city",
			mutate:  func(d *W9FormData) { d.City = "" },
			wantErr: "City is required",
		},
		{
			name:    "missing state",
			mutate:  func(d *W9FormData) { d.State = "" },
			wantErr: "State is required",
		},
		{
			name:    "missing zip",
			mutate:  func(d *W9FormData) { d.ZipCode = "" },
			wantErr: "ZIP code is required",
		},
		{
			name:    "malformed zip",
			mutate:  func(d *W9FormData) { d.ZipCode = "1234" },
			wantErr: "ZIP code must be 5 or 9 digits",
		},
		{
			name:    "missing business type",
			mutate:  func(d *W9FormData) { d.BusinessType = "" },
			wantErr: "Business type is required",
		},
		{
			name:    "missing tin type",
			mutate:  func(d *W9FormData) { d.TINType = "" },
			wantErr: "TIN type is required",
		},
		{
			name:    "missing tax id",
			mutate:  func(d *W9FormData) { d.TaxIDNumber = "" },
			wantErr: "Tax ID number is required",
		},
		{
			name:    "short ssn",
			mutate:  func(d *W9FormData) { d.TaxIDNumber = "12345678" },
			wantErr: "SSN must be exactly 9 digits",
		},
		{
			name: "short ein",
			mutate: func(d *W9FormData) {
				d.TINType = model.TINTypeEIN
				d.TaxIDNumber = "12-345678"
			},
			wantErr: "EIN must be exactly 9 digits",
		},
		{
			name:    "not certified",
			mutate:  func(d *W9FormData) { d.IsCertified = false },
			wantErr: "The form must be certified before submission",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := completeFormData()
			tt.mutate(&data)

			result := ValidateW9(data)

			assert.False(t, result.IsValid)
			assert.Contains(t, result.Errors, tt.wantErr)
		})
	}
}

func TestValidateW9_FormattedTINAccepted(t *testing.T) {
	data := completeFormData()
	data.TINType = model.TINTypeEIN
	data.TaxIDNumber = "12-3456789"

	result := ValidateW9(data)
	assert.True(t, result.IsValid)
}

func TestValidateW9_NineDigitZipAccepted(t *testing.T) {
	data := completeFormData()
	data.ZipCode = "62704-1234"

	result := ValidateW9(data)
	assert.True(t, result.IsValid)
}

func TestValidateW9_Warnings(t *testing.T) {
	t.Run("business name on individual", func(t *testing.T) {
		data := completeFormData()
		data.BusinessName = "Acme LLC"

		result := ValidateW9(data)
		assert.True(t, result.IsValid, "warnings must not block submission")
		assert.Contains(t, result.Warnings, "A business name is not typically needed for individuals")
	})

	t.Run("missing business name on llc", func(t *testing.T) {
		data := completeFormData()
		data.BusinessType = model.BusinessTypeLLC
		data.TINType = model.TINTypeEIN
		data.TaxIDNumber = "12-3456789"

		result := ValidateW9(data)
		assert.True(t, result.IsValid)
		assert.Contains(t, result.Warnings, "A business name is recommended for this business type")
	})

	t.Run("backup withholding without reason", func(t *testing.T) {
		data := completeFormData()
		data.IsSubjectToBackupWithholding = true

		result := ValidateW9(data)
		assert.True(t, result.IsValid)
		assert.Contains(t, result.Warnings, "A reason is recommended when subject to backup withholding")
	})
}

func TestMaskTIN(t *testing.T) {
	assert.Equal(t, "***-**-6789", MaskTIN("123-45-6789", model.TINTypeSSN))
	assert.Equal(t, "**-***6789", MaskTIN("12-3456789", model.TINTypeEIN))
	assert.Equal(t, "*********", MaskTIN("12", model.TINTypeSSN))
}
