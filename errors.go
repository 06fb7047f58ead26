package rxlaunch

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failed execution.
type Kind string

const (
	// UnsupportedOperation is returned for embedded (inline) scripts.
	UnsupportedOperation Kind = "unsupported_operation"
	// ResourceNotFound is returned when the script file does not exist.
	ResourceNotFound Kind = "resource_not_found"
	// ParseFailure is returned when the result artifact is missing or unreadable.
	ParseFailure Kind = "parse_failure"
	// ProcessFailure is returned when the runner process cannot be started.
	ProcessFailure Kind = "process_failure"
)

// Error is a classified failure. Err always carries a stack trace
// captured where the failure was raised; format with %+v to print it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Format implements fmt.Formatter so %+v reaches the wrapped stack trace.
func (e *Error) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		if e.Op != "" {
			fmt.Fprintf(s, "%s: ", e.Op)
		}
		fmt.Fprintf(s, "%+v", e.Err)
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	default:
		fmt.Fprint(s, e.Error())
	}
}

// Errorf creates a classified error with a stack trace.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Wrap classifies err, adding a stack trace and message.
// It returns nil if err is nil.
func Wrap(kind Kind, op string, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: errors.Wrap(err, msg)}
}

// KindOf returns the kind of the first classified error in err's chain,
// or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err's chain contains a classified error of kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StackTrace renders err with its stack trace, for logs.
func StackTrace(err error) string {
	return fmt.Sprintf("%+v", err)
}
