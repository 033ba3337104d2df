package timeline

import (
	"errors"
	"fmt"
)

var ErrUnknownMode = errors.New("unknown segment mode")

// ParseError reports a malformed edit-list row.
type ParseError struct {
	Line   int
	Column string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("line %d", e.Line)
	if e.Column != "" {
		msg += fmt.Sprintf(": %s", e.Column)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// DurationLookupError reports a source whose duration could not be resolved.
type DurationLookupError struct {
	Source string
	Err    error
}

func (e *DurationLookupError) Error() string {
	return fmt.Sprintf("duration of %s: %v", e.Source, e.Err)
}

func (e *DurationLookupError) Unwrap() error { return e.Err }
