package mirror

import (
	"github.com/Kurble/mirror/command"
)

// Reflector is the single operation every addressable value exposes
// (spec.md §4.C): apply a parsed command under a traversal context.
//
// Implementations must:
//   - on *command.Path: locate the child keyed by Element and delegate to
//     it via ctx.Descend(element), propagating the child's error unchanged;
//   - on a container-specific command that is meaningful here: apply it
//     directly (the built-in reflectors do not log it themselves; a Reply
//     whose Command/Local started the traversal records the whole command
//     text once it succeeds);
//   - on anything else: fail with IncompatibleCommand.
//
// A failing descent must leave the parent unchanged, but must NOT roll
// back any child state already written before the failure (spec.md §7).
type Reflector interface {
	Apply(ctx Context, cmd command.Command) error
}

// ApplyText parses text and applies the resulting command to v under ctx.
// v may be a Reflector (mirror.Option, mirror.Hidden, or any other
// hand-written Reflector) or a pointer to a plain scalar, slice, array,
// map, or struct (including a record registered via RegisterStruct), in
// which case Dispatch's built-in handling runs.
// This is the entry point callers use instead of parsing separately; it
// mirrors the original Rust crate's Reflect::command_str convenience
// method (original_source/src/lib.rs).
func ApplyText(v any, ctx Context, text string) error {
	cmd, err := command.Parse(text)
	if err != nil {
		return err
	}
	return Dispatch(v, ctx, cmd)
}
