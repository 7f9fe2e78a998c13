// Package rerr provides a mechanism to create or wrap errors with a Kind
// that tells the caller which class of row or plan failure occurred.
// Every kind is fatal to the row (or plan) being evaluated; none of them
// are retried by the record layer.
package rerr

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
)

// A Kind represents a class of error.  Dataflow operators will typically
// convert these into a policy decision (skip, log, or abort).
type Kind int

const (
	Other Kind = iota
	// Format is a corrupt tag byte or an inconsistent header.
	Format
	// Bounds is an offset or length that points outside the viewed bytes.
	Bounds
	// Type is an argument that does not have the required shape.
	Type
	// DuplicateField is a name collision in merge or in a record builder.
	DuplicateField
	// Conflict is an add-fields name that is already present.
	Conflict
	// MissingField is a non-nullable closed field that was never supplied.
	MissingField
	// UnsupportedShape is a nested structure the algorithms do not define.
	UnsupportedShape
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case Format:
		return "malformed value"
	case Bounds:
		return "out of bounds"
	case Type:
		return "type error"
	case DuplicateField:
		return "duplicate field"
	case Conflict:
		return "conflicting field"
	case MissingField:
		return "missing field"
	case UnsupportedShape:
		return "unsupported shape"
	}
	return "unknown error kind"
}

// Name returns a short identifier for k suitable for metric labels and
// fixture files.
func (k Kind) Name() string {
	switch k {
	case Format:
		return "Format"
	case Bounds:
		return "Bounds"
	case Type:
		return "Type"
	case DuplicateField:
		return "DuplicateField"
	case Conflict:
		return "Conflict"
	case MissingField:
		return "MissingField"
	case UnsupportedShape:
		return "UnsupportedShape"
	}
	return "Other"
}

// ParseKind is the inverse of Kind.Name.
func ParseKind(s string) (Kind, error) {
	for k := Other; k <= UnsupportedShape; k++ {
		if k.Name() == s {
			return k, nil
		}
	}
	return Other, fmt.Errorf("unknown error kind %q", s)
}

type Error struct {
	Kind Kind
	Err  error
}

func pad(b *bytes.Buffer, s string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(s)
}

func (e *Error) Error() string {
	b := &bytes.Buffer{}
	if e.Kind != Other {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		pad(b, ": ")
		b.WriteString(e.Err.Error())
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns just the Err.Error() string, if present, or the Kind
// string description.
func (e *Error) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Kind != Other {
		return e.Kind.String()
	}
	return "no error"
}

// E generates an error from any mix of:
//   - a Kind
//   - an existing error
//   - a string and optional formatting verbs, like fmt.Errorf (including
//     support for the `%w` verb).
//
// The string & format verbs must be last in the arguments, if present.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("no args to rerr.E")
	}
	e := &Error{}
	for i, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case error:
			e.Err = arg
		case string:
			e.Err = fmt.Errorf(arg, args[i+1:]...)
			return e
		default:
			_, file, line, _ := runtime.Caller(1)
			return fmt.Errorf("unknown type %T value %v in rerr.E call at %v:%v", arg, arg, file, line)
		}
	}
	return e
}

// KindOf returns the Kind of the outermost *Error in err's chain or Other
// if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == Other && e.Err != nil {
			if k := KindOf(e.Err); k != Other {
				return k
			}
		}
		return e.Kind
	}
	return Other
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
