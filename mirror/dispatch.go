package mirror

import (
	"encoding/json"
	"reflect"
	"strconv"

	"github.com/Kurble/mirror/command"
)

// Dispatch is the universal entry point used for every child encountered
// during traversal: struct fields, sequence elements, map values, and the
// root value itself. If ptr already implements Reflector (mirror.Option,
// mirror.Hidden, or any other hand-written Reflector) that implementation
// runs unchanged. Otherwise Dispatch falls back to a small built-in table
// driven by reflect.Kind (structs, including records registered via
// RegisterStruct, are handled by dispatchStruct),
// which is spec.md's Design Notes option (c): a runtime descriptor rather
// than compile-time code generation (§9).
//
// ptr must be a non-nil pointer; Dispatch panics otherwise, since every
// caller in this package only ever passes the address of a field, slot,
// or root value it already holds.
func Dispatch(ptr any, ctx Context, cmd command.Command) error {
	if r, ok := ptr.(Reflector); ok {
		return r.Apply(ctx, cmd)
	}

	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		panic("mirror: Dispatch requires a non-nil pointer")
	}
	elem := rv.Elem()

	switch elem.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return dispatchScalar(elem, ctx, cmd)

	case reflect.Slice:
		return dispatchSlice(elem, ctx, cmd)

	case reflect.Array:
		return dispatchArray(elem, ctx, cmd)

	case reflect.Map:
		return dispatchMap(elem, ctx, cmd)

	case reflect.Struct:
		return dispatchStruct(elem, ctx, cmd)

	default:
		return IncompatibleCommand("this value")
	}
}

// decodeInto allocates a new value of typ, decodes raw into it, and
// returns it as a reflect.Value (not a pointer).
func decodeInto(raw command.Value, typ reflect.Type) (reflect.Value, error) {
	out := reflect.New(typ)
	if err := json.Unmarshal(raw, out.Interface()); err != nil {
		return reflect.Value{}, JSONDecodeError(err)
	}
	return out.Elem(), nil
}

func dispatchScalar(elem reflect.Value, ctx Context, cmd command.Command) error {
	set, ok := cmd.(*command.Set)
	if !ok {
		return IncompatibleCommand("a scalar value")
	}
	decoded, err := decodeInto(set.Value, elem.Type())
	if err != nil {
		return err
	}
	elem.Set(decoded)
	return nil
}

func dispatchSlice(elem reflect.Value, ctx Context, cmd command.Command) error {
	switch c := cmd.(type) {
	case *command.Path:
		index, err := strconv.Atoi(c.Element)
		if err != nil || index < 0 {
			return IntParseError(err)
		}
		if index >= elem.Len() {
			return PathError(c.Element)
		}
		child := elem.Index(index).Addr().Interface()
		return Dispatch(child, ctx.Descend(c.Element), c.Command)

	case *command.Set:
		decoded, err := decodeInto(c.Value, elem.Type())
		if err != nil {
			return err
		}
		elem.Set(decoded)
		return nil

	case *command.Push:
		decoded, err := decodeInto(c.Value, elem.Type().Elem())
		if err != nil {
			return err
		}
		elem.Set(reflect.Append(elem, decoded))
		return nil

	case *command.Pop:
		if elem.Len() > 0 {
			elem.Set(elem.Slice(0, elem.Len()-1))
		}
		return nil

	case *command.Remove:
		var index int
		if err := json.Unmarshal(c.Key, &index); err != nil {
			return JSONDecodeError(err)
		}
		if index < 0 || index >= elem.Len() {
			return PathError(string(c.Key))
		}
		next := reflect.AppendSlice(elem.Slice(0, index), elem.Slice(index+1, elem.Len()))
		elem.Set(next)
		return nil

	default:
		return IncompatibleCommand("a sequence")
	}
}

func dispatchArray(elem reflect.Value, ctx Context, cmd command.Command) error {
	switch c := cmd.(type) {
	case *command.Path:
		index, err := strconv.Atoi(c.Element)
		if err != nil || index < 0 {
			return IntParseError(err)
		}
		if index >= elem.Len() {
			return PathError(c.Element)
		}
		child := elem.Index(index).Addr().Interface()
		return Dispatch(child, ctx.Descend(c.Element), c.Command)

	case *command.Set:
		decoded, err := decodeInto(c.Value, elem.Type())
		if err != nil {
			return err
		}
		elem.Set(decoded)
		return nil

	default:
		return IncompatibleCommand("a fixed-size array")
	}
}

func dispatchMap(elem reflect.Value, ctx Context, cmd command.Command) error {
	typ := elem.Type()
	switch c := cmd.(type) {
	case *command.Path:
		key, err := decodeInto(command.Value(c.Element), typ.Key())
		if err != nil {
			return err
		}
		value := elem.MapIndex(key)
		if !value.IsValid() {
			return PathError(c.Element)
		}
		// The map holds values, not addresses; mutate a copy, then store
		// it back after a successful descent.
		slot := reflect.New(typ.Elem())
		slot.Elem().Set(value)
		if err := Dispatch(slot.Interface(), ctx.Descend(c.Element), c.Command); err != nil {
			return err
		}
		elem.SetMapIndex(key, slot.Elem())
		return nil

	case *command.Set:
		decoded, err := decodeInto(c.Value, typ)
		if err != nil {
			return err
		}
		elem.Set(decoded)
		return nil

	case *command.Insert:
		key, err := decodeInto(c.Key, typ.Key())
		if err != nil {
			return err
		}
		value, err := decodeInto(c.Value, typ.Elem())
		if err != nil {
			return err
		}
		if elem.IsNil() {
			elem.Set(reflect.MakeMap(typ))
		}
		elem.SetMapIndex(key, value)
		return nil

	case *command.Remove:
		key, err := decodeInto(c.Key, typ.Key())
		if err != nil {
			return err
		}
		elem.SetMapIndex(key, reflect.Value{})
		return nil

	default:
		return IncompatibleCommand("a map")
	}
}

// dispatchStruct handles every struct Dispatch reaches that has no
// Reflector method set of its own. If a descriptor was registered via
// RegisterStruct, the command is routed through it (see record.go).
// Otherwise the struct behaves like a primitive: Set replaces it, Path
// fails with PathError, and every other command is IncompatibleCommand.
func dispatchStruct(elem reflect.Value, ctx Context, cmd command.Command) error {
	if desc, ok := lookupDescriptor(elem.Type()); ok {
		return desc.apply(elem.Addr().Interface(), ctx, cmd)
	}

	set, ok := cmd.(*command.Set)
	if !ok {
		if _, isPath := cmd.(*command.Path); isPath {
			return PathError(cmd.(*command.Path).Element)
		}
		return IncompatibleCommand("this record")
	}
	decoded, err := decodeInto(set.Value, elem.Type())
	if err != nil {
		return err
	}
	elem.Set(decoded)
	return nil
}
