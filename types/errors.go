package types

import "fmt"

// ConfigError signals missing or invalid configuration, e.g. absent
// credentials. It aborts the run before any network I/O.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// TransportError signals a live-chat connection or authentication failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telegram %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnsupportedFormatError is returned when a file import is requested for
// an extension no parser handles. It is raised before any read.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s (expected .json or .txt)", e.Extension)
}
