// Package apperr defines the error taxonomy shared by all operations.
// Every business or validation failure is an *Error carrying a code, an
// HTTP status and a user-facing message; the HTTP boundary translates it
// to a {"error": message} body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure class independent of its HTTP status.
type Code string

const (
	CodeInvalidValue Code = "invalid_value"
	CodeDataType     Code = "data_type"
	CodeMissingField Code = "missing_field"
	CodeDataTooLong  Code = "data_too_long"
	CodeDuplication  Code = "duplication"
	CodeUnauthorized Code = "unauthorized"
	CodeInvalidToken Code = "invalid_token"
	CodePermission   Code = "permission"
	CodeNotFound     Code = "not_found"
)

// Error is a classified operation failure.
type Error struct {
	Code    Code
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// InvalidValue reports a malformed value (bad email, bad date range...).
func InvalidValue(message string) *Error {
	return &Error{Code: CodeInvalidValue, Status: http.StatusBadRequest, Message: message}
}

// DataType reports a field whose JSON value has the wrong type.
func DataType(field, want string) *Error {
	return &Error{
		Code:    CodeDataType,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("%s datatype must be %s.", field, want),
	}
}

// MissingField reports a required field absent from the payload.
func MissingField(field string) *Error {
	return &Error{
		Code:    CodeMissingField,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("'%s' is required.", field),
	}
}

// DataTooLong reports a value exceeding its field's maximum length.
func DataTooLong(field string, max int) *Error {
	return &Error{
		Code:    CodeDataTooLong,
		Status:  http.StatusRequestEntityTooLarge,
		Message: fmt.Sprintf("'%s' too long. (max: %d)", field, max),
	}
}

// Duplication reports an email that is already registered.
func Duplication(email string) *Error {
	return &Error{
		Code:    CodeDuplication,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("'%s' is already.", email),
	}
}

// Unauthorized reports a missing credential.
func Unauthorized() *Error {
	return &Error{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: "login required."}
}

// InvalidToken reports a present but unverifiable credential. The status
// deliberately differs from Unauthorized for compatibility with existing
// clients.
func InvalidToken() *Error {
	return &Error{Code: CodeInvalidToken, Status: http.StatusBadRequest, Message: "invalid token."}
}

// Permission reports a caller acting on a resource it does not own.
func Permission() *Error {
	return &Error{Code: CodePermission, Status: http.StatusForbidden, Message: "permission denied."}
}

// NotFound reports a nonexistent resource.
func NotFound() *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: "not found."}
}

// InvalidJSON reports an unparseable request body.
func InvalidJSON() *Error {
	return &Error{Code: CodeInvalidValue, Status: http.StatusBadRequest, Message: "invalid json."}
}

// From extracts the *Error from err's chain, or nil if there is none.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
