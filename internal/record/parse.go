package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/TwigBush/kmpolicy/internal/errs"
)

// Outcome tells apart the three successful shapes of JSON object input.
type Outcome uint8

const (
	// OutcomeNoInput means the text was empty or whitespace.
	OutcomeNoInput Outcome = iota
	// OutcomeNull means the text was the literal null.
	OutcomeNull
	// OutcomeObject means the text was a JSON object, possibly empty.
	OutcomeObject
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoInput:
		return "no_input"
	case OutcomeNull:
		return "null"
	case OutcomeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Parse reads a JSON object. Empty input is not an error; anything that is
// not a single JSON object or null fails with errs.ErrMalformedInput.
func Parse(text string) (Record, Outcome, error) {
	return ParseBytes([]byte(text))
}

func ParseBytes(b []byte) (Record, Outcome, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, OutcomeNoInput, nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, OutcomeNoInput, fmt.Errorf("%w: %v", errs.ErrMalformedInput, err)
	}
	// a second value or stray tokens after the object
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, OutcomeNoInput, fmt.Errorf("%w: trailing data after JSON value", errs.ErrMalformedInput)
	}

	switch t := raw.(type) {
	case nil:
		return nil, OutcomeNull, nil
	case map[string]any:
		r, err := RecordFromMap(t)
		if err != nil {
			return nil, OutcomeNoInput, fmt.Errorf("%w: %v", errs.ErrMalformedInput, err)
		}
		return r, OutcomeObject, nil
	default:
		return nil, OutcomeNoInput, fmt.Errorf("%w: JSON value is %T, not an object", errs.ErrMalformedInput, raw)
	}
}
