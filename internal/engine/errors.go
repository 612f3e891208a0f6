package engine

import (
	"errors"
	"fmt"

	"crud-admin/internal/store"
)

// Error kinds. Every *AppError matches exactly one of them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrSchema     = errors.New("schema error")
	ErrStorage    = errors.New("storage error")
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`

	kind  error
	cause error
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func ValidationError(msg string, details ...ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: msg,
		Details: details,
		kind:    ErrValidation,
	}
}

func NoValidDataError(table string) *AppError {
	return ValidationError(fmt.Sprintf("No valid data provided for table %s", table))
}

func NotFoundError(table string, id any) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %v not found", table, id),
		kind:    ErrNotFound,
	}
}

func SchemaError(msg string, cause error) *AppError {
	return &AppError{
		Code:    "SCHEMA_ERROR",
		Status:  400,
		Message: msg,
		kind:    ErrSchema,
		cause:   cause,
	}
}

func UnknownTableError(table string, cause error) *AppError {
	return &AppError{
		Code:    "UNKNOWN_TABLE",
		Status:  404,
		Message: fmt.Sprintf("Unknown table: %s", table),
		kind:    ErrSchema,
		cause:   cause,
	}
}

func NoPrimaryKeyError(table string) *AppError {
	return SchemaError(fmt.Sprintf("Table %s has no primary key", table), nil)
}

func NotForeignKeyError(table, column string) *AppError {
	return SchemaError(fmt.Sprintf("Column %s.%s is not a foreign key", table, column), nil)
}

// StorageError wraps a failed statement. The driver error stays reachable
// through errors.As.
func StorageError(op, table string, cause error) *AppError {
	e := &AppError{
		Code:    "STORAGE_ERROR",
		Status:  500,
		Message: fmt.Sprintf("%s %s failed", op, table),
		kind:    ErrStorage,
		cause:   cause,
	}
	switch {
	case errors.Is(cause, store.ErrUniqueViolation):
		return ConflictError(fmt.Sprintf("%s %s: a record with this value already exists", op, table), cause)
	case errors.Is(cause, store.ErrForeignKeyViolation):
		return ConflictError(fmt.Sprintf("%s %s: referenced record does not exist or is still referenced", op, table), cause)
	}
	return e
}

// ConflictError is a storage failure caused by a constraint violation.
func ConflictError(msg string, cause error) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Status:  409,
		Message: msg,
		kind:    ErrStorage,
		cause:   cause,
	}
}

func UnauthorizedError(msg string) *AppError {
	return NewAppError("UNAUTHORIZED", 401, msg)
}

func ForbiddenError(msg string) *AppError {
	return NewAppError("FORBIDDEN", 403, msg)
}
