package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestStageError(t *testing.T) {
	err := &StageError{OrderID: "seed-1", Want: StageNew, Got: StageEscrow}

	t.Run("message", func(t *testing.T) {
		expected := "order seed-1: want stage NEW, got ESCROW"
		if err.Error() != expected {
			t.Errorf("Error message = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("unwraps to ErrWrongStage", func(t *testing.T) {
		wrapped := fmt.Errorf("accept: %w", err)
		if !errors.Is(wrapped, ErrWrongStage) {
			t.Error("Expected wrapped StageError to match ErrWrongStage")
		}
		if errors.Is(wrapped, ErrOrderNotFound) {
			t.Error("StageError should not match ErrOrderNotFound")
		}

		var se *StageError
		if !errors.As(wrapped, &se) {
			t.Fatal("Expected errors.As to find StageError")
		}
		if se.Got != StageEscrow {
			t.Errorf("Expected Got=ESCROW, got %s", se.Got)
		}
	})
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("simulator.speed", "must be positive, got %v", -1)

	expected := "config error [simulator.speed]: must be positive, got -1"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}

	if errors.Unwrap(err) == nil {
		t.Error("Expected ConfigError to unwrap to its cause")
	}
}
