package reminder

import (
	"fmt"

	"github.com/dosetrack/dosetrack/internal/errors"
)

func notFoundMedicine(id string) error {
	return errors.New(errors.ErrMedicineNotFound.Code, fmt.Sprintf("medicine %s not found", id))
}

func notFoundOccurrence(id string) error {
	return errors.New(errors.ErrOccurrenceNotFound.Code, fmt.Sprintf("occurrence %s not found", id))
}

func notActionable(id string, status Status) error {
	return errors.New(errors.ErrBadRequest.Code, fmt.Sprintf("occurrence %s is %s and cannot be snoozed", id, status))
}

func snoozeMinutesErr() error {
	return errors.ErrSnoozeMinutes
}
