package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for handler layers.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
)

// RespondError maps handler errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		JSON(w, http.StatusNotFound, DenialBody{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, ErrValidation):
		JSON(w, http.StatusBadRequest, DenialBody{Code: "VALIDATION_FAILED", Message: err.Error()})
	default:
		JSON(w, http.StatusInternalServerError, DenialBody{Code: "INTERNAL_ERROR", Message: http.StatusText(http.StatusInternalServerError)})
	}
}
