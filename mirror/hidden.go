package mirror

import (
	"github.com/Kurble/mirror/command"
)

// Hidden wraps a value that participates in the data model but is never
// reachable from the wire protocol (spec.md §4.D): every command fails
// with IncompatibleCommand, and the JSON representation is always null
// regardless of the value carried inside.
type Hidden[T any] struct {
	Value T
}

// Apply always rejects: a Hidden field has no visible commands.
func (*Hidden[T]) Apply(Context, command.Command) error {
	return IncompatibleCommand("a hidden value")
}

// MarshalJSON always renders null; Hidden never reveals its contents on
// the wire.
func (Hidden[T]) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// UnmarshalJSON ignores data and leaves the zero value in place; Hidden
// fields are never populated from an inbound value.
func (h *Hidden[T]) UnmarshalJSON([]byte) error {
	var zero T
	h.Value = zero
	return nil
}
