package domain

import (
	"errors"
	"fmt"
)

// MissingDataError is a fatal precondition failure: a required scenario
// column or context field is absent for a requested check.
type MissingDataError struct {
	Field string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Field)
}

// IsMissingData reports whether err is a precondition failure.
func IsMissingData(err error) bool {
	var m *MissingDataError
	return errors.As(err, &m)
}
