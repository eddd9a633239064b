package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brandlift/w9-backend/internal/app/model"
	"github.com/brandlift/w9-backend/internal/app/service"
	apperrors "github.com/brandlift/w9-backend/internal/errors"
	"github.com/brandlift/w9-backend/internal/middleware"
	"github.com/brandlift/w9-backend/internal/storage"
)

// W9FormController exposes the payee-facing form lifecycle endpoints.
type W9FormController struct {
	formService      service.W9FormService
	reportingService service.ReportingService
	documentService  service.DocumentService
	storage          *storage.S3Storage
}

func NewW9FormController(
	formService service.W9FormService,
	reportingService service.ReportingService,
	documentService service.DocumentService,
	s3 *storage.S3Storage,
) *W9FormController {
	return &W9FormController{
		formService:      formService,
		reportingService: reportingService,
		documentService:  documentService,
		storage:          s3,
	}
}

func formIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid form id")
		return 0, false
	}
	return uint(id), true
}

// respondFormError maps service sentinels onto HTTP responses.
func respondFormError(c *gin.Context, err error, context string) {
	log := middleware.GetLoggerFromContext(c)

	var validationErr *service.ValidationFailedError
	switch {
	case errors.Is(err, service.ErrFormNotFound):
		apperrors.NotFound(c, apperrors.W9FormNotFound, "Tax form not found")
	case errors.Is(err, service.ErrInvalidStatus):
		apperrors.Conflict(c, apperrors.W9FormInvalidStatus, "The form's current status does not allow this operation")
	case errors.Is(err, service.ErrVerificationFailed):
		apperrors.Conflict(c, apperrors.W9VerificationFailed, "The form cannot be approved while its latest TIN verification has failed")
	case errors.Is(err, service.ErrFormNotUsable):
		apperrors.Conflict(c, apperrors.W9FormNotUsable, "A valid, approved W9 form is required")
	case errors.As(err, &validationErr):
		apperrors.RespondWithValidationErrors(c, validationErr.Errors, validationErr.Warnings)
	default:
		log.Error("W9 form operation failed", err, map[string]interface{}{
			"context": context,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
	}
}

// Create creates a draft W9 form
// POST /api/v1/w9/forms
func (ctrl *W9FormController) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var input service.W9FormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid form payload")
		return
	}

	form, err := ctrl.formService.Create(userID, &input)
	if err != nil {
		respondFormError(c, err, "create form")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"form": form})
}

// List returns the user's forms, newest first
// GET /api/v1/w9/forms
func (ctrl *W9FormController) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	forms, err := ctrl.formService.ListForUser(userID)
	if err != nil {
		respondFormError(c, err, "list forms")
		return
	}

	c.JSON(http.StatusOK, gin.H{"forms": forms})
}

// Get returns one of the user's forms
// GET /api/v1/w9/forms/:id
func (ctrl *W9FormController) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	formID, ok := formIDParam(c)
	if !ok {
		return
	}

	form, err := ctrl.formService.GetForUser(formID, userID)
	if err != nil {
		respondFormError(c, err, "get form")
		return
	}

	masked, err := ctrl.formService.MaskedTaxID(form)
	if err != nil {
		respondFormError(c, err, "get form")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"form":          form,
		"tax_id_masked": masked,
	})
}

// Update patches a draft form
// PUT /api/v1/w9/forms/:id
func (ctrl *W9FormController) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	formID, ok := formIDParam(c)
	if !ok {
		return
	}

	var input service.W9FormUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid form payload")
		return
	}

	form, err := ctrl.formService.Update(formID, userID, &input)
	if err != nil {
		respondFormError(c, err, "update form")
		return
	}

	c.JSON(http.StatusOK, gin.H{"form": form})
}

// Validate runs the W9 validator without changing the form
// POST /api/v1/w9/forms/:id/validate
func (ctrl *W9FormController) Validate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	formID, ok := formIDParam(c)
	if !ok {
		return
	}

	result, err := ctrl.formService.Validate(formID, userID)
	if err != nil {
		respondFormError(c, err, "validate form")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Submit locks the draft and files it for review
// POST /api/v1/w9/forms/:id/submit
func (ctrl *W9FormController) Submit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	formID, ok := formIDParam(c)
	if !ok {
		return
	}

	form, err := ctrl.formService.Submit(formID, userID)
	if err != nil {
		respondFormError(c, err, "submit form")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Form submitted for review",
		"form":    form,
	})
}

// SignatureUploadURL returns a presigned PUT URL for a signature image
// POST /api/v1/w9/forms/signature-upload-url
func (ctrl *W9FormController) SignatureUploadURL(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req struct {
		Filename    string `json:"filename" binding:"required"`
		ContentType string `json:"content_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Filename and content type are required")
		return
	}
	allowed := []string{"image/png", "image/jpeg", "image/svg+xml"}
	if err := ctrl.storage.ValidateContentType(req.ContentType, allowed); err != nil {
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only image uploads are allowed")
		return
	}

	resp, err := ctrl.storage.GenerateSignatureUploadURL(req.Filename, req.ContentType)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Presign failed", err, nil)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Could not prepare the upload")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RenderDocument renders one of the user's forms into a stored document
// POST /api/v1/w9/forms/:id/document
func (ctrl *W9FormController) RenderDocument(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	formID, ok := formIDParam(c)
	if !ok {
		return
	}

	// Ownership check before rendering
	if _, err := ctrl.formService.GetForUser(formID, userID); err != nil {
		respondFormError(c, err, "render document")
		return
	}

	url, err := ctrl.documentService.RenderAndStore(c.Request.Context(), formID)
	if err != nil {
		respondFormError(c, err, "render document")
		return
	}

	c.JSON(http.StatusOK, gin.H{"form_file_url": url})
}

// CheckRequirement answers whether a prize still needs a W9 filed
// GET /api/v1/w9/requirement?submission_type=contest_win&prize_value=1500
func (ctrl *W9FormController) CheckRequirement(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	submissionType := model.SubmissionType(c.DefaultQuery("submission_type", string(model.SubmissionTypePaymentRequest)))

	var prizeValue *float64
	if raw := c.Query("prize_value"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "prize_value must be a non-negative number")
			return
		}
		prizeValue = &v
	}

	result, err := ctrl.reportingService.CheckW9Requirement(userID, submissionType, prizeValue)
	if err != nil {
		respondFormError(c, err, "check requirement")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListSubmissions returns the user's payout submissions
// GET /api/v1/w9/submissions
func (ctrl *W9FormController) ListSubmissions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	submissions, err := ctrl.reportingService.ListSubmissions(userID)
	if err != nil {
		respondFormError(c, err, "list submissions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}
