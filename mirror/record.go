package mirror

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/Kurble/mirror/command"
)

// FieldRoute binds one declared struct field to the path element that
// addresses it (spec.md §4.E, "fields route by declared name"). Get must
// return a pointer to the field's storage given a pointer to the owning
// struct.
type FieldRoute struct {
	Name string
	Get  func(self any) any
}

// Callable binds one declared method to the name a Call command invokes
// it by (spec.md §4.E). Arity is the exact number of arguments required;
// a Call with a different count fails with WrongArgumentCount before
// Invoke ever runs. Invoke receives the record (a pointer to it), the
// current context, and the arguments still as raw JSON (see DecodeArg).
type Callable struct {
	Name   string
	Arity  int
	Invoke func(self any, ctx Context, args []command.Value) error
}

// StructDescriptor is the runtime stand-in for the compile-time macro the
// original crate used to generate per-record Reflect impls (spec.md §9,
// Design Notes option (c)). One is registered per Go type via
// RegisterStruct; dispatchStruct consults it whenever traversal reaches a
// struct with no Reflector method set of its own.
type StructDescriptor struct {
	Fields    []FieldRoute
	Callables []Callable
}

func (d *StructDescriptor) field(name string) (FieldRoute, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldRoute{}, false
}

func (d *StructDescriptor) callable(name string) (Callable, bool) {
	for _, c := range d.Callables {
		if c.Name == name {
			return c, true
		}
	}
	return Callable{}, false
}

// apply is dispatchStruct's entry point once a descriptor is found: it
// routes Path by field name, overwrites self wholesale on Set, routes
// Call by callable name, and rejects every other command variant.
func (d *StructDescriptor) apply(self any, ctx Context, cmd command.Command) error {
	switch c := cmd.(type) {
	case *command.Path:
		route, ok := d.field(c.Element)
		if !ok {
			return PathError(c.Element)
		}
		return Dispatch(route.Get(self), ctx.Descend(c.Element), c.Command)

	case *command.Set:
		// spec.md §4.E #2: Set deserializes value into the record and
		// overwrites self wholesale, same as any other reflector.
		decoded, err := decodeInto(c.Value, reflect.TypeOf(self).Elem())
		if err != nil {
			return err
		}
		reflect.ValueOf(self).Elem().Set(decoded)
		return nil

	case *command.Call:
		callable, ok := d.callable(c.Name)
		if !ok {
			return InvalidCommand(fmt.Sprintf("no callable named %q", c.Name))
		}
		if len(c.Arguments) != callable.Arity {
			return WrongArgumentCount(fmt.Sprintf("%q expects %d argument(s), got %d", c.Name, callable.Arity, len(c.Arguments)))
		}
		return callable.Invoke(self, ctx, c.Arguments)

	default:
		return IncompatibleCommand("this record")
	}
}

// registry is the process-wide descriptor table, keyed by the struct's
// own reflect.Type (never its pointer type).
var registry = struct {
	mu    sync.RWMutex
	byTyp map[reflect.Type]*StructDescriptor
}{byTyp: make(map[reflect.Type]*StructDescriptor)}

// RegisterStruct binds desc to T's type, given as an explicit type
// argument. It panics if T already has a descriptor. Call this from an
// init function before any traversal reaches a value of type T.
func RegisterStruct[T any](desc *StructDescriptor) {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.byTyp[typ]; exists {
		panic(fmt.Sprintf("mirror: struct descriptor already registered for %s", typ))
	}
	registry.byTyp[typ] = desc
}

// HasDescriptor reports whether T has a registered StructDescriptor.
func HasDescriptor[T any]() bool {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	_, ok := lookupDescriptor(typ)
	return ok
}

func lookupDescriptor(typ reflect.Type) (*StructDescriptor, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	desc, ok := registry.byTyp[typ]
	return desc, ok
}

// DecodeArg is a convenience helper for Callable.Invoke bodies: it decodes
// one Call argument into T, reporting a JSONDecodeError on failure.
func DecodeArg[T any](raw command.Value) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, JSONDecodeError(err)
	}
	return v, nil
}
