package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brandlift/w9-backend/internal/app/model"
	"github.com/brandlift/w9-backend/internal/app/service"
	apperrors "github.com/brandlift/w9-backend/internal/errors"
	"github.com/brandlift/w9-backend/internal/middleware"
)

// AdminController exposes the review, verification, and reporting endpoints.
// Every route behind it requires the admin role.
type AdminController struct {
	formService         service.W9FormService
	verificationService service.VerificationService
	reportingService    service.ReportingService
	documentService     service.DocumentService
}

func NewAdminController(
	formService service.W9FormService,
	verificationService service.VerificationService,
	reportingService service.ReportingService,
	documentService service.DocumentService,
) *AdminController {
	return &AdminController{
		formService:         formService,
		verificationService: verificationService,
		reportingService:    reportingService,
		documentService:     documentService,
	}
}

type ReviewRequest struct {
	Action service.ReviewAction `json:"action" binding:"required,oneof=approve reject"`
	Notes  string               `json:"notes"`
}

// ListForms lists forms by status for the review queue
// GET /api/v1/admin/w9/forms?status=submitted&page=1&page_size=20
func (ctrl *AdminController) ListForms(c *gin.Context) {
	status := model.FormStatus(c.DefaultQuery("status", string(model.FormStatusSubmitted)))
	switch status {
	case model.FormStatusDraft, model.FormStatusSubmitted, model.FormStatusApproved,
		model.FormStatusRejected, model.FormStatusExpired:
	default:
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unknown form status")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	forms, total, err := ctrl.formService.ListByStatus(status, page, pageSize)
	if err != nil {
		respondFormError(c, err, "list forms")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"forms": forms,
		"total": total,
		"page":  page,
	})
}

// GetForm returns any form with its masked TIN and verification history
// GET /api/v1/admin/w9/forms/:id
func (ctrl *AdminController) GetForm(c *gin.Context) {
	formID, ok := formIDParam(c)
	if !ok {
		return
	}

	form, err := ctrl.formService.Get(formID)
	if err != nil {
		respondFormError(c, err, "get form")
		return
	}

	masked, err := ctrl.formService.MaskedTaxID(form)
	if err != nil {
		respondFormError(c, err, "get form")
		return
	}

	history, err := ctrl.verificationService.History(formID)
	if err != nil {
		respondFormError(c, err, "get form")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"form":          form,
		"tax_id_masked": masked,
		"verifications": history,
	})
}

// Review approves or rejects a submitted form
// POST /api/v1/admin/w9/forms/:id/review
func (ctrl *AdminController) Review(c *gin.Context) {
	reviewerID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	formID, ok := formIDParam(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Action must be approve or reject")
		return
	}

	form, err := ctrl.formService.Review(formID, reviewerID, req.Action, req.Notes)
	if err != nil {
		respondFormError(c, err, "review form")
		return
	}

	msg := "Form approved"
	if req.Action == service.ReviewActionReject {
		msg = "Form rejected"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": msg,
		"form":    form,
	})
}

// VerifyTIN runs TIN verification against a form
// POST /api/v1/admin/w9/forms/:id/verify
func (ctrl *AdminController) VerifyTIN(c *gin.Context) {
	formID, ok := formIDParam(c)
	if !ok {
		return
	}

	verification, err := ctrl.verificationService.VerifyTIN(formID)
	if err != nil {
		respondFormError(c, err, "verify form")
		return
	}

	c.JSON(http.StatusOK, gin.H{"verification": verification})
}

// RenderDocument renders the form into a stored document
// POST /api/v1/admin/w9/forms/:id/document
func (ctrl *AdminController) RenderDocument(c *gin.Context) {
	formID, ok := formIDParam(c)
	if !ok {
		return
	}

	url, err := ctrl.documentService.RenderAndStore(c.Request.Context(), formID)
	if err != nil {
		respondFormError(c, err, "render document")
		return
	}

	c.JSON(http.StatusOK, gin.H{"form_file_url": url})
}

type AdminSubmissionRequest struct {
	UserID         uint                 `json:"user_id" binding:"required"`
	W9FormID       uint                 `json:"w9_form_id" binding:"required"`
	SubmissionType model.SubmissionType `json:"submission_type" binding:"required,oneof=contest_win giveaway_win payment_request"`
	ContextID      *uint                `json:"context_id"`
	PrizeValue     *float64             `json:"prize_value"`
}

// CreateSubmission records a payout event against a payee's approved form
// POST /api/v1/admin/w9/submissions
func (ctrl *AdminController) CreateSubmission(c *gin.Context) {
	var req AdminSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid submission payload")
		return
	}

	submission, err := ctrl.reportingService.CreateSubmission(req.UserID, &service.SubmissionInput{
		W9FormID:       req.W9FormID,
		SubmissionType: req.SubmissionType,
		ContextID:      req.ContextID,
		PrizeValue:     req.PrizeValue,
	})
	if err != nil {
		respondFormError(c, err, "create submission")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": submission})
}

// PayoutGate answers whether a payout to a user may be released
// GET /api/v1/admin/w9/payout-gate?user_id=3&prize_value=1500&context_type=contest_win
func (ctrl *AdminController) PayoutGate(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "A user_id is required")
		return
	}
	prizeValue, err := strconv.ParseFloat(c.Query("prize_value"), 64)
	if err != nil || prizeValue < 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "prize_value must be a non-negative number")
		return
	}
	contextType := model.SubmissionType(c.DefaultQuery("context_type", string(model.SubmissionTypePaymentRequest)))

	var contextID *uint
	if raw := c.Query("context_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid context_id")
			return
		}
		v := uint(id)
		contextID = &v
	}

	result, err := ctrl.reportingService.CheckW9RequirementForPayout(uint(userID), prizeValue, contextType, contextID)
	if err != nil {
		respondFormError(c, err, "check payout gate")
		return
	}

	c.JSON(http.StatusOK, result)
}

func reportingYearParam(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > time.Now().Year()+1 {
		apperrors.BadRequest(c, apperrors.ReportingYearInvalid, "Invalid reporting year")
		return 0, false
	}
	return year, true
}

// Generate1099 runs the 1099 batch for a year
// POST /api/v1/admin/w9/1099/:year/generate
func (ctrl *AdminController) Generate1099(c *gin.Context) {
	year, ok := reportingYearParam(c)
	if !ok {
		return
	}

	result, err := ctrl.reportingService.Generate1099Forms(year)
	if err != nil {
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.ReportingBatchFailed, "The 1099 batch could not be run")
		return
	}

	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// Export1099 downloads the year's 1099 report as a spreadsheet
// GET /api/v1/admin/w9/1099/:year/export
func (ctrl *AdminController) Export1099(c *gin.Context) {
	year, ok := reportingYearParam(c)
	if !ok {
		return
	}

	data, err := ctrl.reportingService.Export1099Report(year)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("1099 export failed", err, map[string]interface{}{
			"year": year,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.ReportingBatchFailed, "The 1099 report could not be exported")
		return
	}

	filename := fmt.Sprintf("1099-report-%d.xlsx", year)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
