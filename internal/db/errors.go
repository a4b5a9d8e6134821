package db

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key or record does not exist
	ErrNotFound = errors.New("not found")
	// ErrQuotaExceeded is returned when a write does not fit the storage quota
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrUnavailable is returned when the storage layer cannot be used at all
	ErrUnavailable = errors.New("storage unavailable")
)

// Storage error names and codes that mean "quota exceeded"
const (
	QuotaExceededName = "QuotaExceededError"
	QuotaReachedName  = "NS_ERROR_DOM_QUOTA_REACHED"
	QuotaExceededCode = 22
)

// StorageError is a failure reported by a storage backend, identified by name and code
type StorageError struct {
	Name string
	Code int
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (code %d): %v", e.Name, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (code %d)", e.Name, e.Code)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewQuotaError builds the storage error backends return for an oversize write
func NewQuotaError(cause error) error {
	return &StorageError{Name: QuotaExceededName, Code: QuotaExceededCode, Err: cause}
}

// IsQuotaError reports whether err means the write was rejected for lack of space.
// It recognizes the ErrQuotaExceeded sentinel, the two known error names and code 22.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Name == QuotaExceededName || se.Name == QuotaReachedName || se.Code == QuotaExceededCode
	}
	return false
}
