package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	Invalid      Kind = "invalid"
	NotFound     Kind = "not_found"
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	Conflict     Kind = "conflict"
	Config       Kind = "config"    // gateway credentials missing or broken
	Provider     Kind = "provider"  // upstream payment provider call failed
	Integrity    Kind = "integrity" // expected local record is missing
	Internal     Kind = "internal"
)

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error { return e.Err }

func InvalidErr(publicMsg string, fields map[string]string) *AppError {
	return &AppError{Kind: Invalid, PublicMsg: publicMsg, Fields: fields}
}

func NotFoundErr(publicMsg string) *AppError {
	return &AppError{Kind: NotFound, PublicMsg: publicMsg}
}

func UnauthorizedErr(publicMsg string) *AppError {
	return &AppError{Kind: Unauthorized, PublicMsg: publicMsg}
}

func ConflictErr(publicMsg string) *AppError {
	return &AppError{Kind: Conflict, PublicMsg: publicMsg}
}

// ConfigErr marks a gateway configuration problem. The flow halts before any
// provider call is made.
func ConfigErr(publicMsg string, err error) *AppError {
	return &AppError{Kind: Config, PublicMsg: publicMsg, Err: err}
}

// ProviderErr wraps a failed provider round-trip. The diagnostic payload goes
// to the log, the customer only ever sees publicMsg.
func ProviderErr(publicMsg string, err error) *AppError {
	return &AppError{Kind: Provider, PublicMsg: publicMsg, Err: err}
}

// IntegrityErr marks a data-integrity alarm: a webhook or return-flow call
// assumed a local record that does not exist. Not retryable.
func IntegrityErr(err error) *AppError {
	return &AppError{Kind: Integrity, PublicMsg: "There was an error processing this order.", Err: err}
}

// Wrap an internal error without a public message (defaults to 500).
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Kind: Internal, PublicMsg: "An unexpected error occurred.", Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Invalid:
			return http.StatusBadRequest
		// The provider's webhook contract expects 400 on bad key/signature.
		case Unauthorized:
			return http.StatusBadRequest
		case Forbidden:
			return http.StatusForbidden
		case NotFound:
			return http.StatusNotFound
		case Conflict:
			return http.StatusConflict
		case Config:
			return http.StatusServiceUnavailable
		case Provider:
			return http.StatusBadGateway
		case Integrity:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return "An unexpected error occurred."
}
