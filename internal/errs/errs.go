package errs

import (
	"errors"
	"fmt"
)

// Normalization and policy errors. Callers match with errors.Is.
var (
	ErrMalformedInput      = errors.New("malformed input")
	ErrInvalidNumericField = errors.New("invalid numeric field")
	ErrMissingCredentials  = errors.New("consumer key or consumer secret missing")
	ErrClaimsParse         = errors.New("error while parsing jwt")
	ErrInvalidFieldType    = errors.New("invalid field type")
	ErrInvalidParameter    = errors.New("invalid configuration parameter")
	ErrInvalidPattern      = errors.New("invalid validation pattern")
)

// FieldError ties one of the sentinels above to the field or key that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Field wraps err with the offending field name.
func Field(name string, err error) error {
	if err == nil {
		return nil
	}
	return &FieldError{Field: name, Err: err}
}

// FieldOf returns the field name carried by err, if any.
func FieldOf(err error) (string, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field, true
	}
	return "", false
}
