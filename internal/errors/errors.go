package errors

import (
	"fmt"
	"strings"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	ErrRuleInvalidTime   = &AppError{Code: "RULE_001", Message: "invalid time of day, expected HH:MM"}
	ErrRuleTimesPerDay   = &AppError{Code: "RULE_002", Message: "times per day must be 1-12"}
	ErrRuleIntervalHours = &AppError{Code: "RULE_003", Message: "interval hours must be 1-24"}
	ErrRuleDateRange     = &AppError{Code: "RULE_004", Message: "start date must not be after end date"}
	ErrRuleDoseAmount    = &AppError{Code: "RULE_005", Message: "dose amount must be positive"}
	ErrRuleNoTimes       = &AppError{Code: "RULE_006", Message: "fixed times mode requires at least one time"}
	ErrRuleInvalidDate   = &AppError{Code: "RULE_007", Message: "invalid date, expected YYYY-MM-DD"}
	ErrRuleUnknownMode   = &AppError{Code: "RULE_008", Message: "unknown dosing mode"}
	ErrSnoozeMinutes     = &AppError{Code: "RULE_009", Message: "snooze minutes must be positive"}

	ErrMedicineNotFound   = &AppError{Code: "MED_001", Message: "medicine not found"}
	ErrOccurrenceNotFound = &AppError{Code: "MED_002", Message: "occurrence not found"}

	ErrStorage  = &AppError{Code: "STORE_001", Message: "storage operation failed"}
	ErrNotifier = &AppError{Code: "NOTIFY_001", Message: "notifier unavailable"}

	ErrUnauthorized = &AppError{Code: "AUTH_001", Message: "unauthorized"}
	ErrForbidden    = &AppError{Code: "AUTH_002", Message: "forbidden"}

	ErrNotFound   = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal   = &AppError{Code: "GEN_003", Message: "internal error"}
)

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// IsValidation reports whether err is a dosing rule validation error.
func IsValidation(err error) bool {
	return strings.HasPrefix(GetCode(err), "RULE_")
}

// IsNotFound reports whether err signals a missing medicine or occurrence.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrMedicineNotFound.Code, ErrOccurrenceNotFound.Code, ErrNotFound.Code:
		return true
	}
	return false
}
