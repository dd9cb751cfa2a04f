package mirror

import "github.com/Kurble/mirror/internal/mirrorerr"

// Kind classifies a dispatch failure per the taxonomy in spec.md §7.
type Kind = mirrorerr.Kind

// Error is the error type returned by every Reflector and by command
// parsing. It carries enough structure for callers to branch on Kind via
// errors.As, while still rendering a readable message.
type Error = mirrorerr.Error

// The Kind taxonomy, re-exported from mirrorerr.
const (
	KindJSONDecode          = mirrorerr.KindJSONDecode
	KindIntParse            = mirrorerr.KindIntParse
	KindCommand             = mirrorerr.KindCommand
	KindWrongArgumentCount  = mirrorerr.KindWrongArgumentCount
	KindPathError           = mirrorerr.KindPathError
	KindInvalidCommand      = mirrorerr.KindInvalidCommand
	KindIncompatibleCommand = mirrorerr.KindIncompatibleCommand
	KindConnectionDropped   = mirrorerr.KindConnectionDropped
)

// Sentinel errors usable with errors.Is, re-exported from mirrorerr.
var (
	ErrPathError           = mirrorerr.ErrPathError
	ErrInvalidCommand      = mirrorerr.ErrInvalidCommand
	ErrIncompatibleCommand = mirrorerr.ErrIncompatibleCommand
	ErrWrongArgumentCount  = mirrorerr.ErrWrongArgumentCount
	ErrConnectionDropped   = mirrorerr.ErrConnectionDropped
)

// Error constructors, re-exported from mirrorerr.
var (
	JSONDecodeError     = mirrorerr.JSONDecodeError
	IntParseError       = mirrorerr.IntParseError
	CommandError        = mirrorerr.CommandError
	PathError           = mirrorerr.PathError
	InvalidCommand      = mirrorerr.InvalidCommand
	IncompatibleCommand = mirrorerr.IncompatibleCommand
	WrongArgumentCount  = mirrorerr.WrongArgumentCount
	ConnectionDropped   = mirrorerr.ConnectionDropped
)
