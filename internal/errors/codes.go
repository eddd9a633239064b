package errors

// Error code constants returned in API responses.
// Format: CATEGORY_SPECIFIC_DETAIL; clients map these to display messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== W9 forms (W9_) ====================
	W9FormNotFound         = "W9_FORM_NOT_FOUND"
	W9FormNotEditable      = "W9_FORM_NOT_EDITABLE"       // only drafts may change
	W9FormInvalidStatus    = "W9_FORM_INVALID_STATUS"     // transition illegal for current status
	W9FormValidationFailed = "W9_FORM_VALIDATION_FAILED"  // submit blocked by validator
	W9FormNotUsable        = "W9_FORM_NOT_USABLE"         // submission against a non-valid form
	W9VerificationFailed   = "W9_VERIFICATION_FAILED"
	W9CryptoFailure        = "W9_CRYPTO_FAILURE"

	// ==================== Reporting (REPORTING_) ====================
	ReportingYearInvalid = "REPORTING_YEAR_INVALID"
	ReportingBatchFailed = "REPORTING_BATCH_FAILED"

	// ==================== Notifications (NOTIFICATION_) ====================
	NotificationNotFound = "NOTIFICATION_NOT_FOUND"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Resources / internal ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
