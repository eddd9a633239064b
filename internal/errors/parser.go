package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a parsed error: a stable code plus a safe message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a raw repository/database error into a user-safe code
// and message. Sensitive detail (and anything that could echo a TIN) stays
// out of the response; context names the operation, e.g. "create form".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	// PostgreSQL constraint violations

	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint") {
		if strings.Contains(errStr, "email") || strings.Contains(errStr, "idx_users_email") {
			return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "That email address is already registered"}
		}
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "That record already exists"}
	}

	if strings.Contains(errStr, "foreign key constraint") {
		if strings.Contains(errStr, "w9_form_id") {
			return ErrorInfo{Code: W9FormNotFound, Message: "The referenced tax form does not exist"}
		}
		if strings.Contains(errStr, "user_id") {
			return ErrorInfo{Code: ResourceNotFound, Message: "The referenced user does not exist"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}
	}

	if strings.Contains(errStr, "null value") && strings.Contains(errStr, "not-null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	// Network / external service failures
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An external service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: defaultMessage(context),
	}
}

func notFoundMessage(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "form"):
		return "Tax form not found"
	case strings.Contains(c, "submission"):
		return "Submission not found"
	case strings.Contains(c, "verification"):
		return "Verification record not found"
	case strings.Contains(c, "notification"):
		return "Notification not found"
	case strings.Contains(c, "user"):
		return "User not found"
	}
	return "The requested record was not found"
}

func defaultMessage(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "create"):
		return "Could not create the record. Please try again later"
	case strings.Contains(c, "update"), strings.Contains(c, "submit"), strings.Contains(c, "review"):
		return "Could not update the record. Please try again later"
	case strings.Contains(c, "delete"):
		return "Could not delete the record. Please try again later"
	}
	return "Something went wrong. Please try again later"
}
