// Package errors holds the sentinel errors shared across corpus-qa and maps
// them to HTTP statuses and process exit codes.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateDocument = errors.New("duplicate document id")
	ErrEmptyCorpus       = errors.New("corpus is empty")
	ErrSourceUnavailable = errors.New("corpus source unavailable")
	ErrUnsupportedSource = errors.New("unsupported corpus source")
	ErrTimeout           = errors.New("operation timed out")
	ErrInternal          = errors.New("internal error")
	ErrReloadInProgress  = errors.New("corpus reload already in progress")
	ErrAnalyticsDisabled = errors.New("analytics disabled")
)

// statuses is checked in order; the first sentinel err wraps decides.
var statuses = []struct {
	sentinel error
	status   int
}{
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrAnalyticsDisabled, http.StatusNotFound},
	{ErrReloadInProgress, http.StatusConflict},
	{ErrDuplicateDocument, http.StatusConflict},
	{ErrEmptyCorpus, http.StatusServiceUnavailable},
	{ErrSourceUnavailable, http.StatusServiceUnavailable},
	{ErrTimeout, http.StatusServiceUnavailable},
}

// AppError pins an explicit status and a client-safe message to a sentinel.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func New(sentinel error, status int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: status}
}

func Newf(sentinel error, status int, format string, args ...any) *AppError {
	return New(sentinel, status, fmt.Sprintf(format, args...))
}

// Invalidf is a 400 AppError wrapping ErrInvalidInput.
func Invalidf(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, http.StatusBadRequest, format, args...)
}

// HTTPStatusCode prefers an AppError's own status, then the sentinel table,
// then 500.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	for _, s := range statuses {
		if errors.Is(err, s.sentinel) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// ExitCode is the process status for err: 0 on success, 130 when the run was
// interrupted, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

// Is and As re-export the standard helpers for callers that import this
// package under the name errors.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
