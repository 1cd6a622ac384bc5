package record

import (
	"errors"
	"fmt"
	"strings"
)

// Codec errors.
var (
	// ErrTruncatedInput indicates fewer bytes were available than the schema requires.
	ErrTruncatedInput = errors.New("truncated input")

	// ErrEncoding indicates a value cannot be represented in its declared format.
	ErrEncoding = errors.New("encoding error")

	// ErrSchema indicates a malformed typedef.
	ErrSchema = errors.New("schema error")

	// ErrAbort is returned when an Abort field is reached.
	ErrAbort = errors.New("abort field reached")

	// ErrConversion indicates an adapter could not convert a value.
	ErrConversion = errors.New("conversion failed")
)

// TruncatedInputError reports a short read.
type TruncatedInputError struct {
	Field  string // Field being read
	Offset int64  // Absolute stream offset of the read
	Want   int    // Bytes required
	Got    int    // Bytes available
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated input reading %q at offset %d: want %d bytes, got %d",
		e.Field, e.Offset, e.Want, e.Got)
}

// Unwrap returns ErrTruncatedInput.
func (e *TruncatedInputError) Unwrap() error {
	return ErrTruncatedInput
}

// EncodingError reports a value that does not fit its declared format.
type EncodingError struct {
	Field  string
	Value  any
	Reason string
	Err    error // Optional cause
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("cannot encode %q", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf(" (value %v)", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the cause, if any.
func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Is reports ErrEncoding as a match.
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// SchemaError reports a malformed typedef. It is detected at construction.
type SchemaError struct {
	Record string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("record %q field %q: %s", e.Record, e.Field, e.Reason)
	case e.Record != "":
		return fmt.Sprintf("record %q: %s", e.Record, e.Reason)
	default:
		return e.Reason
	}
}

// Is reports ErrSchema as a match.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// FieldError records the dotted path of the field that failed.
// Nested records prepend their own names as the error unwinds.
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// wrapField prefixes name onto err's field path.
func wrapField(name string, err error) error {
	if err == nil || name == "" {
		return err
	}
	return prefixPath(name, err)
}

// wrapIndex prefixes a list index onto err's field path.
func wrapIndex(i int, err error) error {
	if err == nil {
		return nil
	}
	return prefixPath(fmt.Sprintf("[%d]", i), err)
}

func prefixPath(prefix string, err error) error {
	fe, ok := err.(*FieldError)
	if !ok {
		return &FieldError{Path: prefix, Err: err}
	}
	sep := "."
	if strings.HasPrefix(fe.Path, "[") {
		sep = ""
	}
	return &FieldError{Path: prefix + sep + fe.Path, Err: fe.Err}
}
