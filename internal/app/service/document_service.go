package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/brandlift/w9-backend/internal/app/model"
	"github.com/brandlift/w9-backend/internal/app/repository"
	"github.com/brandlift/w9-backend/pkg/crypto"
	"github.com/brandlift/w9-backend/pkg/logger"
)

// DocumentStorage is the subset of the object store the renderer needs.
type DocumentStorage interface {
	UploadDocument(ctx context.Context, filename, contentType string, body []byte) (string, error)
}

// DocumentService renders a form into an HTML document and stores it.
// Rendered documents carry the masked taxpayer ID only.
type DocumentService interface {
	RenderForm(form *model.TaxForm) ([]byte, error)
	// RenderAndStore renders the form, uploads the document, and stamps the
	// resulting URL on the form record.
	RenderAndStore(ctx context.Context, formID uint) (string, error)
}

type documentService struct {
	formRepo repository.TaxFormRepository
	codec    *crypto.Codec
	storage  DocumentStorage
	tmpl     *template.Template
}

func NewDocumentService(
	formRepo repository.TaxFormRepository,
	codec *crypto.Codec,
	storage DocumentStorage,
) DocumentService {
	return &documentService{
		formRepo: formRepo,
		codec:    codec,
		storage:  storage,
		tmpl:     template.Must(template.New("w9").Parse(w9DocumentTemplate)),
	}
}

type w9DocumentView struct {
	FormID            uint
	PayeeName         string
	BusinessName      string
	BusinessType      string
	TaxClassification string
	Address           string
	City              string
	State             string
	ZipCode           string
	TINType           string
	MaskedTIN         string
	IsCertified       bool
	CertificationDate string
	Status            string
	SubmittedAt       string
	ExpirationDate    string
	GeneratedAt       string
}

func (s *documentService) RenderForm(form *model.TaxForm) ([]byte, error) {
	masked := ""
	if form.TaxIDEncrypted != "" {
		taxID, err := s.codec.Decrypt(form.TaxIDEncrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt taxpayer id for form %d: %w", form.ID, err)
		}
		masked = MaskTIN(taxID, form.TINType)
	}

	view := w9DocumentView{
		FormID:            form.ID,
		PayeeName:         form.PayeeName,
		BusinessName:      form.BusinessName,
		BusinessType:      string(form.BusinessType),
		TaxClassification: form.TaxClassification,
		Address:           form.Address,
		City:              form.City,
		State:             form.State,
		ZipCode:           form.ZipCode,
		TINType:           string(form.TINType),
		MaskedTIN:         masked,
		IsCertified:       form.IsCertified,
		Status:            string(form.Status),
		ExpirationDate:    form.ExpirationDate.Format("January 2, 2006"),
		GeneratedAt:       time.Now().Format(time.RFC1123),
	}
	if form.CertificationDate != nil {
		view.CertificationDate = form.CertificationDate.Format("January 2, 2006")
	}
	if form.SubmittedAt != nil {
		view.SubmittedAt = form.SubmittedAt.Format("January 2, 2006")
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render w9 document: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *documentService) RenderAndStore(ctx context.Context, formID uint) (string, error) {
	form, err := s.formRepo.FindByID(formID)
	if err != nil {
		return "", ErrFormNotFound
	}

	doc, err := s.RenderForm(form)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("w9-form-%d.html", form.ID)
	url, err := s.storage.UploadDocument(ctx, filename, "text/html", doc)
	if err != nil {
		return "", fmt.Errorf("store w9 document: %w", err)
	}

	if err := s.formRepo.Updates(form.ID, map[string]interface{}{"form_file_url": url}); err != nil {
		return "", fmt.Errorf("record document url: %w", err)
	}

	logger.Info("W9 document rendered", map[string]interface{}{
		"w9_form_id": form.ID,
		"url":        url,
	})
	return url, nil
}

const w9DocumentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Form W-9 (Substitute) - {{.PayeeName}}</title>
<style>
body { font-family: Georgia, serif; max-width: 720px; margin: 40px auto; color: #222; }
h1 { font-size: 20px; border-bottom: 2px solid #222; padding-bottom: 8px; }
table { width: 100%; border-collapse: collapse; margin: 16px 0; }
td { border: 1px solid #999; padding: 8px 12px; vertical-align: top; }
td.label { width: 35%; font-weight: bold; background: #f4f4f4; }
.footer { margin-top: 24px; font-size: 12px; color: #666; }
</style>
</head>
<body>
<h1>Form W-9 (Substitute) &mdash; Request for Taxpayer Identification Number and Certification</h1>
<table>
<tr><td class="label">Name</td><td>{{.PayeeName}}</td></tr>
{{if .BusinessName}}<tr><td class="label">Business name</td><td>{{.BusinessName}}</td></tr>{{end}}
<tr><td class="label">Federal tax classification</td><td>{{.BusinessType}}{{if .TaxClassification}} ({{.TaxClassification}}){{end}}</td></tr>
<tr><td class="label">Address</td><td>{{.Address}}, {{.City}}, {{.State}} {{.ZipCode}}</td></tr>
<tr><td class="label">Taxpayer identification number ({{.TINType}})</td><td>{{.MaskedTIN}}</td></tr>
<tr><td class="label">Certified</td><td>{{if .IsCertified}}Yes{{if .CertificationDate}}, {{.CertificationDate}}{{end}}{{else}}No{{end}}</td></tr>
<tr><td class="label">Status</td><td>{{.Status}}</td></tr>
{{if .SubmittedAt}}<tr><td class="label">Submitted</td><td>{{.SubmittedAt}}</td></tr>{{end}}
<tr><td class="label">Valid through</td><td>{{.ExpirationDate}}</td></tr>
</table>
<p class="footer">Reference #{{.FormID}}. Generated {{.GeneratedAt}}. The taxpayer
identification number is shown masked; the full number is held encrypted.</p>
</body>
</html>
`
