package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limited")
)

// Client-facing messages.
const (
	msgInvalidData     = "Invalid data provided"
	msgInternalError   = "Internal server error"
	msgTooManyRequests = "Too many requests"
	msgSubmitted       = "Score submitted successfully"
)

// wrapKind tags err with kind and the failing operation.
func wrapKind(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
