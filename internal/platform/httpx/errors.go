// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/storefront/accounts/internal/shared"
)

// StatusOf maps an error from the account taxonomy to an HTTP status.
func StatusOf(err error) int {
	var appErr *shared.AppError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &appErr):
		return appErr.Status
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrDuplicateAccount),
		errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the failure envelope for err.
func RespondError(w http.ResponseWriter, err error) {
	body := Envelope{Success: false, Message: shared.UserSafeMessage(err)}
	var validationErr *shared.ValidationError
	if errors.As(err, &validationErr) {
		body.Data = validationErr.Fields
	}
	JSON(w, StatusOf(err), body)
}
