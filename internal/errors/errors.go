package errors

import "fmt"

// ValidationError reports player input that cannot be applied. It carries
// a user-visible narration; the session is never mutated when one is
// returned.
type ValidationError struct {
	Code      Code
	Narration string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation %s: %s", e.Code, e.Narration)
}

// NewValidation builds a ValidationError with a user-visible narration.
func NewValidation(code Code, narration string) *ValidationError {
	return &ValidationError{Code: code, Narration: narration}
}

// ExternalServiceError reports a collaborator failure (dialogue,
// sentiment, retrieval). Callers recover locally: the turn must still
// produce a complete response.
type ExternalServiceError struct {
	Code Code
	Err  error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s: %v", e.Code, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// NewExternal wraps a collaborator failure.
func NewExternal(code Code, err error) *ExternalServiceError {
	return &ExternalServiceError{Code: code, Err: err}
}

// ConfigError reports a missing or malformed catalog or configuration
// value. It is fatal at startup; no safe default exists.
type ConfigError struct {
	Code Code
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Code, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfig wraps a startup configuration failure.
func NewConfig(code Code, err error) *ConfigError {
	return &ConfigError{Code: code, Err: err}
}
