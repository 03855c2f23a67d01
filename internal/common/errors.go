package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("invalid authentication credentials")
	ErrForbidden          = errors.New("forbidden access")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("resource conflict") // e.g., username already exists
	ErrGradingUnavailable = errors.New("execution sandbox unavailable, retry the submission")
	ErrGradingInProgress  = errors.New("a grading pass for this problem is already running")
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict), errors.Is(err, ErrGradingUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, ErrGradingInProgress):
		return http.StatusConflict
	}

	if IsUniqueViolation(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// PublicMessage returns the text safe to show a client. Unclassified
// errors collapse to a generic message so driver details never leak.
func PublicMessage(err error) string {
	if HTTPStatusFromError(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
