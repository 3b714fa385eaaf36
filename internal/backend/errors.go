package backend

import (
	"errors"
	"fmt"
)

// ConfigError reports missing or invalid backend credentials. It is fatal at
// client construction time and is never absorbed by the review pipeline.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return "backend configuration error: missing " + e.Field
}

// IsConfigError checks if an error is a construction-time configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

type rateLimitError struct{}

func (e *rateLimitError) Error() string { return "rate limited" }

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.statusCode, e.body)
}

// IsUnavailable reports whether the backend could not serve the request at
// all (connection failure, 5xx, rate limiting). Such failures are soft at the
// reviewer level: the orchestrator drops the reviewer and continues.
func IsUnavailable(err error) bool {
	var se *serverError
	if errors.As(err, &se) {
		return true
	}
	var rl *rateLimitError
	return errors.As(err, &rl)
}
