package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// CodedError carries the HTTP status an error should surface as, plus
// optional per-field details so a caller can correct its input and retry.
type CodedError struct {
	code    int
	message string
	Fields  map[string]string
}

func (e *CodedError) Error() string { return e.message }

func (e *CodedError) Code() int { return e.code }

func New(code int, message string) *CodedError {
	return &CodedError{code: code, message: message}
}

func NotFound(format string, args ...any) *CodedError {
	return New(http.StatusNotFound, fmt.Sprintf(format, args...))
}

func BadRequest(format string, args ...any) *CodedError {
	return New(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

// Validation is a BadRequest with per-field messages.
func Validation(fields map[string]string) *CodedError {
	return &CodedError{
		code:    http.StatusBadRequest,
		message: "validation failed",
		Fields:  fields,
	}
}

// Conflict reports a unique-key duplicate or a protected foreign key.
func Conflict(format string, args ...any) *CodedError {
	return New(http.StatusConflict, fmt.Sprintf(format, args...))
}

func Forbidden(message string) *CodedError {
	return New(http.StatusForbidden, message)
}

// SourceUnavailable reports a missing or unreadable import source.
func SourceUnavailable(format string, args ...any) *CodedError {
	return New(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

// CodeOf walks the error chain looking for a CodedError and returns its
// status, defaulting to 500.
func CodeOf(err error) int {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return http.StatusInternalServerError
}

// FieldsOf returns per-field details from the chain, if any.
func FieldsOf(err error) map[string]string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Fields
	}
	return nil
}
