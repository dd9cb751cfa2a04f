// Package mirrorerr defines the structured error taxonomy from spec.md §7
// (Error, Kind, and the constructor for each Kind). It lives below both
// the command and mirror packages so either can report these errors
// without an import cycle; mirror re-exports the public names.
package mirrorerr

import "fmt"

// Kind classifies a dispatch failure per the taxonomy in spec.md §7.
type Kind string

const (
	// KindJSONDecode marks a dynamic value that failed to coerce to a
	// typed field, argument, or key.
	KindJSONDecode Kind = "json_decode"

	// KindIntParse marks a textual path element that failed to parse as
	// a non-negative integer index.
	KindIntParse Kind = "int_parse"

	// KindCommand marks a callable-specific domain error raised by user
	// code from inside a Call handler.
	KindCommand Kind = "command"

	// KindWrongArgumentCount marks a parser that ran out of input or a
	// Call whose argument count doesn't match the declared arity.
	KindWrongArgumentCount Kind = "wrong_argument_count"

	// KindPathError marks a Path whose element has no corresponding
	// child (unknown field, out-of-range index, missing map key).
	KindPathError Kind = "path_error"

	// KindInvalidCommand marks text that couldn't be classified by the
	// grammar, or a Call naming an undeclared callable.
	KindInvalidCommand Kind = "invalid_command"

	// KindIncompatibleCommand marks a command variant that is
	// syntactically valid but not meaningful on the node it reached.
	KindIncompatibleCommand Kind = "incompatible_command"

	// KindConnectionDropped marks a client whose transport closed before
	// the initial handshake value arrived.
	KindConnectionDropped Kind = "connection_dropped"
)

// codeOf assigns a short correlation code to each Kind, in the spirit of
// the teacher's category-prefixed error codes (errors.RouterError).
var codeOf = map[Kind]string{
	KindJSONDecode:          "E100",
	KindIntParse:            "E101",
	KindCommand:             "E200",
	KindWrongArgumentCount:  "E300",
	KindPathError:           "E301",
	KindInvalidCommand:      "E302",
	KindIncompatibleCommand: "E303",
	KindConnectionDropped:   "E400",
}

// Error is the error type returned by every Reflector and by command
// parsing. It carries enough structure for callers to branch on Kind via
// errors.As, while still rendering a readable message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Code: codeOf[kind], Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to Cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same Kind, so callers can write
// errors.Is(err, mirror.ErrPathError) without caring about the message.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind && other.Message == "" && other.Cause == nil
}

// Sentinel errors usable with errors.Is for each Kind; their Message and
// Cause are intentionally empty so Error.Is compares only on Kind.
var (
	ErrPathError           = &Error{Kind: KindPathError, Code: codeOf[KindPathError]}
	ErrInvalidCommand      = &Error{Kind: KindInvalidCommand, Code: codeOf[KindInvalidCommand]}
	ErrIncompatibleCommand = &Error{Kind: KindIncompatibleCommand, Code: codeOf[KindIncompatibleCommand]}
	ErrWrongArgumentCount  = &Error{Kind: KindWrongArgumentCount, Code: codeOf[KindWrongArgumentCount]}
	ErrConnectionDropped   = &Error{Kind: KindConnectionDropped, Code: codeOf[KindConnectionDropped]}
)

// JSONDecodeError wraps a dynamic-value decode failure.
func JSONDecodeError(cause error) *Error {
	return newError(KindJSONDecode, "failed to decode dynamic value", cause)
}

// IntParseError wraps a path-element integer parse failure.
func IntParseError(cause error) *Error {
	return newError(KindIntParse, "path element is not a valid index", cause)
}

// CommandError wraps a domain error raised by a user callable.
func CommandError(message string) *Error {
	return newError(KindCommand, message, nil)
}

// PathError reports that element has no corresponding child.
func PathError(element string) *Error {
	return newError(KindPathError, fmt.Sprintf("no child at %q", element), nil)
}

// InvalidCommand reports unparseable text or an unknown callable name.
func InvalidCommand(why string) *Error {
	return newError(KindInvalidCommand, why, nil)
}

// IncompatibleCommand reports a command variant that doesn't apply here.
func IncompatibleCommand(what string) *Error {
	return newError(KindIncompatibleCommand, fmt.Sprintf("%s does not accept this command", what), nil)
}

// WrongArgumentCount reports a parser or Call arity mismatch.
func WrongArgumentCount(why string) *Error {
	return newError(KindWrongArgumentCount, why, nil)
}

// ConnectionDropped reports a transport that closed before handshake.
func ConnectionDropped() *Error {
	return newError(KindConnectionDropped, "transport closed before initial value arrived", nil)
}
