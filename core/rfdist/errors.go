package rfdist

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedMatrix is matched by every *MalformedMatrixError.
	ErrMalformedMatrix = errors.New("rfdist: malformed matrix")

	// ErrInvalidThreshold reports a negative, infinite or NaN cut threshold.
	ErrInvalidThreshold = errors.New("rfdist: invalid threshold")
)

// MalformedMatrixError reports a structurally invalid distance matrix document.
type MalformedMatrixError struct {
	Source string
	Line   int // 1-based line number, 0 when not tied to a line
	Reason string
}

func (e *MalformedMatrixError) Error() string {
	loc := e.Source
	if loc == "" {
		loc = "matrix"
	}
	if e.Line > 0 {
		return fmt.Sprintf("rfdist: %s:%d: %s", loc, e.Line, e.Reason)
	}
	return fmt.Sprintf("rfdist: %s: %s", loc, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedMatrix) hold.
func (e *MalformedMatrixError) Is(target error) bool {
	return target == ErrMalformedMatrix
}

func malformed(line int, format string, args ...any) *MalformedMatrixError {
	return &MalformedMatrixError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
