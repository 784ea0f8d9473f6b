package railmap

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by ParseError.
var (
	ErrBadHeader      = errors.New("bad header")
	ErrMissingSection = errors.New("missing section")
	ErrMalformed      = errors.New("malformed record")
	ErrUnknownTrack   = errors.New("unknown track")
	ErrDuplicate      = errors.New("duplicate definition")
	ErrUnknownStation = errors.New("unknown station")
)

// ParseError locates a map format problem. Line counts the lines left after
// comment lines are removed, starting at 1; zero means the whole file.
type ParseError struct {
	File    string
	Line    int
	Section string
	Err     error
}

func (e *ParseError) Error() string {
	loc := e.File
	if loc == "" {
		loc = "<map>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	if e.Section != "" {
		return fmt.Sprintf("%s: %s: %v", loc, e.Section, e.Err)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// errorf builds a cause that wraps one of the sentinels with detail.
func errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
