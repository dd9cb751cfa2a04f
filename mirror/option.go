package mirror

import (
	"encoding/json"

	"github.com/Kurble/mirror/command"
)

// Option holds an optional value visible to traversal under the single
// path element "val" (spec.md §4.D). A Remove on the Option itself clears
// it to None; a Set on the Option itself decodes directly into T, making
// it Some.
type Option[T any] struct {
	Value T
	Some  bool
}

// Some wraps v as a present Option value.
func Some[T any](v T) Option[T] {
	return Option[T]{Value: v, Some: true}
}

// None returns an absent Option value.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Apply implements Reflector. Path is only meaningful with element "val",
// and only when a value is present; Set replaces the option with Some of
// the decoded value; Remove clears it to None.
func (o *Option[T]) Apply(ctx Context, cmd command.Command) error {
	switch c := cmd.(type) {
	case *command.Path:
		if c.Element != "val" {
			return PathError(c.Element)
		}
		if !o.Some {
			return PathError(c.Element)
		}
		return Dispatch(&o.Value, ctx.Descend(c.Element), c.Command)

	case *command.Set:
		var v T
		if err := json.Unmarshal(c.Value, &v); err != nil {
			return JSONDecodeError(err)
		}
		o.Value = v
		o.Some = true
		return nil

	case *command.Remove:
		var zero T
		o.Value = zero
		o.Some = false
		return nil

	default:
		return IncompatibleCommand("an optional value")
	}
}

// MarshalJSON encodes an absent Option as null and a present one as its
// inner value, matching the wire shape original_source/src/option.rs uses.
func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.Some {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON decodes null as None and anything else as Some(T).
func (o *Option[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		var zero T
		o.Value = zero
		o.Some = false
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Some = true
	return nil
}
