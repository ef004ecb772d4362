package mrpt

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when caller-supplied parameters violate a
// precondition (dimension mismatch, out-of-range k/votes/depth/density).
var ErrInvalidInput = errors.New("mrpt: invalid input")

// ErrEmptyForest is returned by Search when the forest has not been
// grown.
var ErrEmptyForest = errors.New("mrpt: forest is empty")

// ErrNotProfiled is returned by OptimalParametersFor and Subset when
// Autotune has not been run on the forest.
var ErrNotProfiled = errors.New("mrpt: forest has not been autotuned")

// ErrInfeasibleRecall is a convenience sentinel: OptimalParametersFor and
// Subset never return it as an error, they return a zero-value
// Parameters / an empty Forest per the package contract. It exists so a
// caller can write errors.Is(err, ErrInfeasibleRecall) against the
// wrapped error returned by higher-level helpers that choose to surface
// the zero-value case as an error instead.
var ErrInfeasibleRecall = errors.New("mrpt: no parameters meet the target recall")

func invalidInputf(format string, args ...any) error {
	return &invalidInputError{msg: fmt.Sprintf(format, args...)}
}

type invalidInputError struct {
	msg string
}

func (e *invalidInputError) Error() string { return e.msg }

func (e *invalidInputError) Unwrap() error { return ErrInvalidInput }
