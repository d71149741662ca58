package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an error for propagation and retry decisions
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindPersistence    ErrorKind = "persistence"
	KindPartialFailure ErrorKind = "partial_failure"
)

// ErrorCode is a stable machine-readable error code
type ErrorCode string

const (
	// Validation
	CodeInvalidDateRange ErrorCode = "INVALID_DATE_RANGE"
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// Not found
	CodeMasterNotFound ErrorCode = "MASTER_NOT_FOUND"
	CodeSlaveNotFound  ErrorCode = "SLAVE_NOT_FOUND"
	CodeGroupNotFound  ErrorCode = "GROUP_NOT_FOUND"
	CodeUserNotFound   ErrorCode = "USER_NOT_FOUND"

	// Conflict
	CodeQuotaExceeded  ErrorCode = "QUOTA_EXCEEDED"
	CodeDuplicateEmail ErrorCode = "DUPLICATE_EMAIL"
	CodeHandleConflict ErrorCode = "HANDLE_CONFLICT"
	CodeLockBusy       ErrorCode = "LOCK_BUSY"
	CodeAlreadyInGroup ErrorCode = "ALREADY_IN_GROUP"
	CodeNotInGroup     ErrorCode = "NOT_IN_GROUP"

	// Persistence
	CodeValidationReadFailed ErrorCode = "VALIDATION_READ_FAILED"
	CodeInsertFailed         ErrorCode = "INSERT_FAILED"
	CodeStoreFailed          ErrorCode = "STORE_FAILED"

	// Partial failure
	CodeLeaveIncomplete  ErrorCode = "LEAVE_INCOMPLETE"
	CodeSwitchIncomplete ErrorCode = "SWITCH_INCOMPLETE"
)

// Sentinel errors returned by repositories
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrDuplicateHandle = errors.New("resource handle already allocated")
	ErrActiveElsewhere = errors.New("active membership in another group")
)

// AppError carries a kind, a stable code and a human-readable message.
// Step is set for partial failures and names the step that failed.
type AppError struct {
	Kind    ErrorKind
	Code    ErrorCode
	Message string
	Step    string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same request may succeed
func (e *AppError) Retryable() bool {
	switch e.Kind {
	case KindPersistence, KindPartialFailure:
		return true
	case KindConflict:
		return e.Code == CodeHandleConflict || e.Code == CodeLockBusy
	default:
		return false
	}
}

// NewError builds an AppError
func NewError(kind ErrorKind, code ErrorCode, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// WrapError builds an AppError around a cause
func WrapError(kind ErrorKind, code ErrorCode, message string, err error) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

// StepError builds a partial failure naming the step that stopped the sequence
func StepError(code ErrorCode, step string, err error) *AppError {
	return &AppError{
		Kind:    KindPartialFailure,
		Code:    code,
		Message: fmt.Sprintf("transition stopped at step %q", step),
		Step:    step,
		Err:     err,
	}
}

// AsAppError extracts an AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or persistence for unclassified errors
func KindOf(err error) ErrorKind {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind
	}
	return KindPersistence
}

// CodeOf returns the code of err, or an empty code for unclassified errors
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}
