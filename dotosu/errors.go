package dotosu

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPair   = errors.New("invalid key/value line")
	ErrMalformedRecord = errors.New("record has too few columns")

	// ErrAmbiguousObjectType rejects a hit object whose type sets more than
	// one of the circle, slider and spinner bits, e.g. circle+slider (3) or
	// circle+spinner (9).
	ErrAmbiguousObjectType = errors.New("hit object has more than one category bit")
)

// SyntaxError is returned for every malformed line. Err is either one of
// the sentinels above or the underlying strconv error.
type SyntaxError struct {
	Line    int
	Section string
	Text    string
	Err     error
}

func (e *SyntaxError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
	}
	return fmt.Sprintf("line %d [%s]: %v: %q", e.Line, e.Section, e.Err, e.Text)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
