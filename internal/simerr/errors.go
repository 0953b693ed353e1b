// Package simerr defines the two failure categories shared by the simulation packages.
package simerr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or inconsistent input rejected at construction time.
	ErrValidation = errors.New("validation error")
	// ErrState marks an invariant violated while a simulation is executing.
	ErrState = errors.New("state error")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Statef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsState(err error) bool {
	return errors.Is(err, ErrState)
}
