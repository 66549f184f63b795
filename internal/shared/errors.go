package shared

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateAccount indicates the email is already registered.
	ErrDuplicateAccount = errors.New("duplicate account")
	// ErrUnauthorized indicates the request carries no authenticated session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
)

// ClientError pairs a sentinel with a message that is safe to show the caller.
type ClientError struct {
	Kind    error
	Message string
}

// NewClientError wraps kind with a caller-facing message.
func NewClientError(kind error, message string) *ClientError {
	return &ClientError{Kind: kind, Message: message}
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Kind
}

// ValidationError lists offending fields with the rule each one broke.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" ("+e.Fields[name]+")")
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// AppError carries an unexpected failure together with the status it should be
// reported with.
type AppError struct {
	Status  int
	Message string
	Err     error
}

// NewAppError wraps err. A zero status defaults to 403.
func NewAppError(err error, status int) *AppError {
	if status == 0 {
		status = http.StatusForbidden
	}
	return &AppError{Status: status, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// UserSafeMessage returns a message suitable for the response body. Internal error
// text is never exposed.
func UserSafeMessage(err error) string {
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Message != "" {
		return clientErr.Message
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Message != "" {
			return appErr.Message
		}
		return http.StatusText(appErr.Status)
	}
	switch {
	case errors.Is(err, ErrDuplicateAccount):
		return "User already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials, Auth failed"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrNotFound):
		return "User not found"
	case errors.Is(err, ErrValidation):
		return "Validation failed"
	default:
		return "Internal server error"
	}
}
