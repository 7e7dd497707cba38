package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when an order id is not tracked by the simulator.
	ErrOrderNotFound = errors.New("order not found")

	// ErrWrongStage is returned when an order exists but not in the stage an operation moves it from.
	ErrWrongStage = errors.New("order in wrong stage")

	// ErrSimulatorStopped is returned when a command arrives after the run loop exited.
	ErrSimulatorStopped = errors.New("simulator stopped")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)

// StageError reports an order that is live but sits in another column.
type StageError struct {
	OrderID string
	Want    Stage
	Got     Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("order %s: want stage %s, got %s", e.OrderID, e.Want, e.Got)
}

func (e *StageError) Unwrap() error {
	return ErrWrongStage
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError wraps a validation failure for field.
func NewConfigError(field string, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}
