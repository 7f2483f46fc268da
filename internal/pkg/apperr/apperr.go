// Package apperr distinguishes expected user-facing errors from internal ones.
package apperr

import (
	"fmt"
	"strings"
)

const (
	NewFilePermissions = 0o600
	GzipFileExtension  = ".gz"
)

type Error interface {
	error
	ExitCode() int
}

// UserError is an expected error that should be displayed to the user.
// It triggers exit code 1.
type UserError struct {
	error
}

// ExitCode is processed in main.go.
func (e UserError) ExitCode() int {
	return 1
}

func (e UserError) Unwrap() error {
	return e.error
}

// UserErrorf creates an error which stops program execution with exit code 1.
func UserErrorf(format string, a ...any) error {
	format = strings.TrimSpace(format)
	return &UserError{error: fmt.Errorf(format, a...)}
}
