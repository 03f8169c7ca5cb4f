package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStorage represents record store and artifact cache errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeExtraction represents OCR and rendering errors
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeDelivery represents notification delivery errors
	ErrorTypeDelivery ErrorType = "delivery"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents a pipeline-specific error with its source context
type PipelineError struct {
	Type    ErrorType
	Source  string
	Key     string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	prefix := fmt.Sprintf("[%s] %s", e.Type, e.Source)
	if e.Key != "" {
		prefix += " " + e.Key
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error must abort the current pass.
// Storage failures must never silently drop records; configuration failures
// abort startup. Everything else skips the offending item or source.
func (e *PipelineError) Fatal() bool {
	switch e.Type {
	case ErrorTypeStorage, ErrorTypeConfiguration:
		return true
	default:
		return false
	}
}

// New creates a new PipelineError
func New(errType ErrorType, source, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// WithKey attaches the natural key of the offending record
func (e *PipelineError) WithKey(key string) *PipelineError {
	e.Key = key
	return e
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *PipelineError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *PipelineError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewStorage creates a new storage error
func NewStorage(source, message string, err error) *PipelineError {
	return New(ErrorTypeStorage, source, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(source, message string, err error) *PipelineError {
	return New(ErrorTypeExtraction, source, message, err)
}

// NewDelivery creates a new delivery error
func NewDelivery(source, message string, err error) *PipelineError {
	return New(ErrorTypeDelivery, source, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsFatal reports whether err is a PipelineError that aborts the current pass
func IsFatal(err error) bool {
	if pe, ok := err.(*PipelineError); ok {
		return pe.Fatal()
	}
	return false
}
