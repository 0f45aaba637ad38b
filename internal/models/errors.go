package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrArchiveUnavailable ErrorType = iota
	ErrFormat
	ErrNotFound
	ErrTransport
	ErrInvalidConfig
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrArchiveUnavailable:
		return "ArchiveUnavailable"
	case ErrFormat:
		return "Format"
	case ErrNotFound:
		return "NotFound"
	case ErrTransport:
		return "Transport"
	case ErrInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// MirrorError represents an error while building catalogs, resolving
// names or fetching artifacts
type MirrorError struct {
	Type    ErrorType
	Subject string // package name, archive path or URL, depending on Type
	Err     error
}

// Error implements the error interface
func (e *MirrorError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Subject, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *MirrorError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a strict resolution miss
func IsNotFound(err error) bool {
	var me *MirrorError
	return errors.As(err, &me) && me.Type == ErrNotFound
}
