package errors

import (
	"fmt"
	"time"

	"github.com/standardbeagle/pycheck/internal/types"
)

// Error types for the pycheck analysis pipeline
type ErrorType string

const (
	// Analysis errors
	ErrorTypeAnalysis ErrorType = "analysis"
	ErrorTypeParse    ErrorType = "parse"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// AnalysisError represents a failure while analyzing one file. The
// file's findings are discarded; other files are unaffected.
type AnalysisError struct {
	Type        ErrorType
	FileID      types.FileID
	FilePath    string
	Rule        types.RuleID
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewAnalysisError creates a new analysis error with context
func NewAnalysisError(err error) *AnalysisError {
	return &AnalysisError{
		Type:       ErrorTypeAnalysis,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile adds file information to the error
func (e *AnalysisError) WithFile(fileID types.FileID, path string) *AnalysisError {
	e.FileID = fileID
	e.FilePath = path
	return e
}

// WithRule records the rule that was running when the failure occurred
func (e *AnalysisError) WithRule(rule types.RuleID) *AnalysisError {
	e.Rule = rule
	return e
}

// WithRecoverable marks the error as recoverable
func (e *AnalysisError) WithRecoverable(recoverable bool) *AnalysisError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Type, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s failed: %v", e.Type, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *AnalysisError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable checks if the error can be retried
func (e *AnalysisError) IsRecoverable() bool {
	return e.Recoverable
}

// ParseError represents a source parsing error
type ParseError struct {
	Type       ErrorType
	FileID     types.FileID
	FilePath   string
	Line       int
	Column     int
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(fileID types.FileID, path string, line, column int, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FileID:     fileID,
		FilePath:   path,
		Line:       line,
		Column:     column,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d: %v", e.FilePath, e.Line, e.Column, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileNotFound
	if isPermissionError(err) {
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	errStr := err.Error()
	return errStr == "permission denied" || errStr == "access denied"
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
