package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure for transport-level mapping
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindDuplicate     ErrorKind = "DUPLICATE"
	KindStateConflict ErrorKind = "STATE_CONFLICT"
	KindPolicy        ErrorKind = "POLICY_VIOLATION"
	KindExternal      ErrorKind = "EXTERNAL_DEPENDENCY_FAILURE"
)

// Stable machine-readable error codes returned to API clients
const (
	CodeInvalidProvider      = "INVALID_PROVIDER"
	CodeInvalidMonth         = "INVALID_MONTH"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInvalidIndex         = "INVALID_INDEX"
	CodeDuplicateMonth       = "DUPLICATE_MONTH"
	CodeDuplicateTransaction = "DUPLICATE_TRANSACTION"
	CodeOCRIllegible         = "OCR_ILLEGIBLE"
	CodeOCRUnavailable       = "OCR_UNAVAILABLE"
	CodeProviderUndetected   = "PROVIDER_UNDETECTED"
	CodeProviderMismatch     = "PROVIDER_MISMATCH"
	CodeMemberNotEligible    = "MEMBER_NOT_ELIGIBLE"
	CodeInsufficientFund     = "INSUFFICIENT_FUND"
	CodeLoanNotPayable       = "LOAN_NOT_PAYABLE"
	CodeExceedsPending       = "EXCEEDS_PENDING"
	CodeInvalidState         = "INVALID_STATE"
	CodeNotFound             = "NOT_FOUND"
	CodeStorageFailure       = "STORAGE_FAILURE"
)

// Error is the typed failure every service method returns on a domain
// fault. Kind drives the HTTP status, Code is stable for clients, and
// Message is safe to show to end users.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// AsServiceError extracts a *Error from err if one is in the chain
func AsServiceError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

func NewValidationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: message}
}

func NewDuplicateError(code, message string) *Error {
	return &Error{Kind: KindDuplicate, Code: code, Message: message}
}

func NewStateConflictError(code, message string) *Error {
	return &Error{Kind: KindStateConflict, Code: code, Message: message}
}

func NewPolicyError(code, message string) *Error {
	return &Error{Kind: KindPolicy, Code: code, Message: message}
}

func NewExternalError(code, message string, cause error) *Error {
	return &Error{Kind: KindExternal, Code: code, Message: message, err: cause}
}
