package extract

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match them with errors.Is; the typed errors below carry the details.
var (
	// ErrMissingField is matched by every *MissingFieldError.
	ErrMissingField = errors.New("extract: missing field")

	// ErrValueParse is matched by every *ValueParseError.
	ErrValueParse = errors.New("extract: unparsable value")

	// ErrInvalidQuery reports an empty marker or an unknown cardinality.
	ErrInvalidQuery = errors.New("extract: invalid query")
)

// MissingFieldError reports that a required marker does not occur in a document.
type MissingFieldError struct {
	Source string // Document name, usually a file path
	Field  string // Marker or field description that was looked for
}

func (e *MissingFieldError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("extract: field %q not found", e.Field)
	}
	return fmt.Sprintf("extract: %s does not contain %q", e.Source, e.Field)
}

// Is makes errors.Is(err, ErrMissingField) hold.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// ValueParseError reports that a marker was found but no number could be read after it.
type ValueParseError struct {
	Source string
	Marker string
	Line   string
	Err    error // Underlying conversion error, may be nil
}

func (e *ValueParseError) Error() string {
	msg := fmt.Sprintf("extract: no decimal value after %q in line %q", e.Marker, e.Line)
	if e.Source != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Source)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is makes errors.Is(err, ErrValueParse) hold.
func (e *ValueParseError) Is(target error) bool {
	return target == ErrValueParse
}

func (e *ValueParseError) Unwrap() error {
	return e.Err
}

// attachSource fills in the document name on extraction errors that lack one.
func attachSource(err error, source string) error {
	var missing *MissingFieldError
	if errors.As(err, &missing) && missing.Source == "" {
		missing.Source = source
	}
	var parse *ValueParseError
	if errors.As(err, &parse) && parse.Source == "" {
		parse.Source = source
	}
	return err
}
