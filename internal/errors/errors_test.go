package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	err := New("TEST_001", "test error")

	if err.Code != "TEST_001" {
		t.Errorf("expected code TEST_001, got %s", err.Code)
	}
	if err.Message != "test error" {
		t.Errorf("expected message 'test error', got %s", err.Message)
	}
}

func TestAppErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := New("TEST_001", "test error", cause)

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "underlying error") {
		t.Errorf("expected error string to contain cause, got %s", errStr)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := New("TEST_001", "test error", cause)

	unwrapped := err.Unwrap()
	if unwrapped != cause {
		t.Errorf("expected unwrap to return cause")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := New("TEST_001", "test error")
	stdErr := fmt.Errorf("standard error")

	if !IsAppError(appErr) {
		t.Error("expected IsAppError to return true for AppError")
	}
	if IsAppError(stdErr) {
		t.Error("expected IsAppError to return false for standard error")
	}
}

func TestGetCode(t *testing.T) {
	appErr := New("TEST_001", "test error")
	stdErr := fmt.Errorf("standard error")

	if GetCode(appErr) != "TEST_001" {
		t.Errorf("expected TEST_001, got %s", GetCode(appErr))
	}
	if GetCode(stdErr) != "UNKNOWN" {
		t.Errorf("expected UNKNOWN, got %s", GetCode(stdErr))
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(ErrRuleIntervalHours) {
		t.Error("expected RULE_ codes to be validation errors")
	}
	if IsValidation(ErrMedicineNotFound) {
		t.Error("expected MED_ codes to not be validation errors")
	}
	if IsValidation(fmt.Errorf("plain")) {
		t.Error("expected plain errors to not be validation errors")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(ErrMedicineNotFound) {
		t.Error("expected MED_001 to be not-found")
	}
	if !IsNotFound(ErrOccurrenceNotFound) {
		t.Error("expected MED_002 to be not-found")
	}
	if IsNotFound(ErrStorage) {
		t.Error("expected STORE_001 to not be not-found")
	}
}
