package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrValidation           = errors.New("validation failed")
	ErrQuotaExceeded        = errors.New("quota exceeded")
	ErrQuotaUnavailable     = errors.New("quota unavailable")
	ErrDispatchFailed       = errors.New("dispatch failed")
	ErrReconcileUnavailable = errors.New("reconciliation unavailable")
	ErrDuplicateOperation   = errors.New("duplicate operation")
)

// QuotaExceededError carries the snapshot that rejected the request so callers
// can show when the next slot frees up.
type QuotaExceededError struct {
	Snapshot QuotaSnapshot
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %d of %d used", e.Snapshot.Used, e.Snapshot.Limit)
}

// Is lets errors.Is match ErrQuotaExceeded.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// ValidationError wraps ErrValidation with a caller-facing reason.
func ValidationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}
