package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	repository "github.com/okian/skatepark/internal/adapters/repository"
	service "github.com/okian/skatepark/internal/app"
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/progression"
	"github.com/okian/skatepark/internal/domain/roster"
	"github.com/okian/skatepark/internal/domain/session"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
)

// NewKind annotates a sentinel kind with the operation that hit it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags err with a sentinel kind and the operation.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// Wrap annotates err with the operation.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// classify maps an error to a status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, session.ErrUnknownKind),
		errors.Is(err, progression.ErrUnknownTier),
		errors.Is(err, catalog.ErrUnknownSport),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, roster.ErrSkaterNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNoArchive):
		return http.StatusNotFound, "archive_disabled"
	case errors.Is(err, session.ErrSessionEnded),
		errors.Is(err, session.ErrTickRunning),
		errors.Is(err, service.ErrNotEnded),
		errors.Is(err, service.ErrNotBeginner),
		errors.Is(err, service.ErrRecruited),
		errors.Is(err, roster.ErrDuplicateID):
		return http.StatusConflict, "conflict"
	case errors.Is(err, repository.ErrStoreFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
