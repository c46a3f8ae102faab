package config

import "fmt"

// ConfigurationError indicates an out-of-range or missing setting caught
// before the pipeline starts. Per spec.md §7 it is fatal only at startup;
// the running pipeline never produces one.
type ConfigurationError struct {
	msg string
}

func NewConfigurationError(msg string) *ConfigurationError {
	return &ConfigurationError{msg: msg}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.msg)
}
