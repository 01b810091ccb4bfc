package app

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"lumen/api/internal/auth"
	"lumen/api/internal/authpw"
	"lumen/api/internal/enrich"
	"lumen/api/internal/journal"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// mapError translates the typed errors of the inner packages into a response.
// Persistence failures always carry the same retryable user-facing message.
func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var validationErr *journal.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", validationErr.Message, map[string]any{"field": validationErr.Field}
	}
	var persistenceErr *journal.PersistenceError
	if errors.As(err, &persistenceErr) {
		return http.StatusServiceUnavailable, "PERSISTENCE_ERROR", "Could not save your entry. Please try again.", nil
	}
	var authErr *authpw.AuthError
	if errors.As(err, &authErr) {
		return authErrorStatus(authErr.Code), authErr.Code, authErr.Message, nil
	}
	var enrichErr *enrich.Error
	if errors.As(err, &enrichErr) {
		return http.StatusBadGateway, "ENRICHMENT_FAILED", "Could not generate feedback. Please try again.", nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

// authErrorStatus maps the friendly auth codes onto HTTP statuses.
func authErrorStatus(code string) int {
	switch code {
	case "USER_NOT_FOUND", "WRONG_PASSWORD":
		return http.StatusUnauthorized
	case "EMAIL_IN_USE":
		return http.StatusConflict
	case "INVALID_EMAIL", "WEAK_PASSWORD":
		return http.StatusUnprocessableEntity
	case "RESET_INVALID":
		return http.StatusBadRequest
	case "FEDERATED_UNAVAILABLE":
		return http.StatusServiceUnavailable
	case "FEDERATED_FAILED":
		return http.StatusBadGateway
	case "TOO_MANY_REQUESTS":
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}
