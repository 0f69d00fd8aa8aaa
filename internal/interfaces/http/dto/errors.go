package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// External service and rate limiting error codes
const (
	ErrCodeExternalService = "ERR_EXTERNAL_SERVICE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Domain codes
// that are not normalized are listed by their own name.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	ErrCodeExternalService: http.StatusBadGateway,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	// authentication
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"WRONG_PASSWORD":      http.StatusUnauthorized,
	"TOKEN_REVOKED":       http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	"ACCOUNT_LOCKED":      http.StatusTooManyRequests,
	"EMAIL_NOT_CONFIRMED": http.StatusForbidden,
	"USER_NOT_REGISTERED": http.StatusNotFound,
	"USER_NOT_FOUND":      http.StatusNotFound,

	// account data
	"INVALID_USERNAME":          http.StatusBadRequest,
	"INVALID_EMAIL":             http.StatusBadRequest,
	"INVALID_PHONE":             http.StatusBadRequest,
	"INVALID_DOCUMENT":          http.StatusBadRequest,
	"PASSWORD_MISMATCH":         http.StatusBadRequest,
	"EMAIL_MISMATCH":            http.StatusBadRequest,
	"INCORRECT_DATA":            http.StatusBadRequest,
	"INVALID_CONFIRMATION_CODE": http.StatusBadRequest,
	"INVALID_RESET_CODE":        http.StatusBadRequest,
	"EMAIL_IN_USE":              http.StatusConflict,
	"PASSWORD_HASH_ERROR":       http.StatusInternalServerError,

	// authentication tokens
	"AUTH_TOKEN_INVALID":   http.StatusBadRequest,
	"TOKEN_USED":           http.StatusGone,
	"TOKEN_DOMAIN_INVALID": http.StatusForbidden,

	// signature and SEI
	"SIGNATURE_NOT_REQUESTED": http.StatusUnprocessableEntity,
	"SEI_EMAIL_CONFLICT":      http.StatusConflict,
	"SEI_PHONE_REQUIRED":      http.StatusBadRequest,
	"SEI_ADDRESS_REQUIRED":    http.StatusBadRequest,

	"SEI_UNAVAILABLE":                   http.StatusBadGateway,
	"SEI_REQUEST_FAILED":                http.StatusBadGateway,
	"SEI_INVALID_RESPONSE":              http.StatusBadGateway,
	"SEI_PASSWORD_CHANGE_FAILED":        http.StatusBadGateway,
	"SEI_SIGNATURE_PROVISIONING_FAILED": http.StatusBadGateway,
	"SEI_DOCUMENT_UPLOAD_FAILED":        http.StatusBadGateway,

	// applications and access
	"INVALID_APPLICATION_NAME":  http.StatusBadRequest,
	"INVALID_USER_TYPE":         http.StatusBadRequest,
	"INVALID_LOGIN":             http.StatusBadRequest,
	"DENY_CAUSE_REQUIRED":       http.StatusBadRequest,
	"APPLICATION_DISABLED":      http.StatusForbidden,
	"APPLICATION_USER_TYPE":     http.StatusForbidden,
	"ACCESS_DENIED":             http.StatusForbidden,
	"ACCESS_PENDING_REQUEST":    http.StatusForbidden,
	"ACCESS_TERMS_NOT_ACCEPTED": http.StatusForbidden,
	"ACCESS_REQUESTED":          http.StatusForbidden,
	"ACCESS_ALREADY_APPROVED":   http.StatusUnprocessableEntity,
	"ACCESS_ALREADY_DENIED":     http.StatusUnprocessableEntity,
	"ACCESS_NOT_REQUESTED":      http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps the shared domain error codes to the
// standardized API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_STATE":          ErrCodeInvalidState,
	"UNAUTHORIZED":           ErrCodeUnauthorized,
	"FORBIDDEN":              ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"EXTERNAL_SERVICE_ERROR": ErrCodeExternalService,
	"TOKEN_EXPIRED":          ErrCodeTokenExpired,
	"TOKEN_INVALID":          ErrCodeTokenInvalid,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a shared error code to the standardized format.
// Other codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
