// Package errors defines the relay's error taxonomy. Every error the relay
// reasons about carries a code so callers can branch on the failure class
// without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown    = "UNKNOWN"
	CodeConfig     = "CONFIG"
	CodeGeneration = "GENERATION"
	CodeSend       = "SEND"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error represents a basic application error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

// Code implements ApplicationError.
func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if it doesn't carry one.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// ConfigError reports configuration that prevents the relay from starting.
// Load wraps a *config.MissingSecretsError in one when a secret is unset.
type ConfigError struct {
	base Error
}

func (e *ConfigError) Error() string {
	return e.base.Error()
}

func (e *ConfigError) Code() string {
	return e.base.Code()
}

func (e *ConfigError) Unwrap() error {
	return e.base.Unwrap()
}

// NewConfigError returns a CONFIG error. cause may be nil.
func NewConfigError(message string, cause error) error {
	return &ConfigError{
		base: Error{
			code:    CodeConfig,
			message: message,
			err:     cause,
		},
	}
}

// GenerationError reports a failed or unusable generation API call: a
// transport error, a blocked prompt, or a response with no text.
type GenerationError struct {
	base Error
}

func (e *GenerationError) Error() string {
	return e.base.Error()
}

func (e *GenerationError) Code() string {
	return e.base.Code()
}

func (e *GenerationError) Unwrap() error {
	return e.base.Unwrap()
}

// NewGenerationError wraps cause, if any, as a GENERATION error.
func NewGenerationError(message string, cause error) error {
	return &GenerationError{
		base: Error{
			code:    CodeGeneration,
			message: message,
			err:     cause,
		},
	}
}

// SendError reports a reply that could not be delivered to the chat platform.
type SendError struct {
	base Error
}

func (e *SendError) Error() string {
	return e.base.Error()
}

func (e *SendError) Code() string {
	return e.base.Code()
}

// Unwrap exposes the platform error, so callers can still match
// context.Canceled after a shutdown.
func (e *SendError) Unwrap() error {
	return e.base.Unwrap()
}

func NewSendError(message string, cause error) error {
	return &SendError{
		base: Error{
			code:    CodeSend,
			message: message,
			err:     cause,
		},
	}
}
