// Package command implements the textual command grammar (spec.md §4.A):
// parsing command strings into a tagged Command tree and emitting a Command
// back to the exact text it was parsed from.
//
// The dynamic JSON payloads carried by Set/Push/Insert/Remove/Call are kept
// as json.RawMessage rather than decoded eagerly. This is the "dynamic
// value" codec spec.md calls out as an external collaborator (§1); it is
// only decoded into a concrete Go type once a reflector knows what type it
// needs (see mirror.DecodeArg).
package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/Kurble/mirror/internal/mirrorerr"
)

// Value is a single dynamic JSON payload, kept in its original encoded
// form until a reflector deserializes it into a concrete type.
type Value = json.RawMessage

// Command is the tagged union described in spec.md §3. Every variant
// implements Text, which returns the exact command text that would
// reparse to an equal value (spec.md §8 round-trip property).
type Command interface {
	isCommand()
	// Text renders this command back to its wire form, not including any
	// accumulated path prefix from an enclosing traversal.
	Text() string
}

// Path navigates into a named/indexed child, then applies Command there.
type Path struct {
	Element string
	Command Command
}

func (*Path) isCommand() {}

// Text joins Element and the nested command with the grammar's "/".
func (p *Path) Text() string {
	return p.Element + "/" + p.Command.Text()
}

// Set replaces the current node by deserializing Value.
type Set struct {
	Value Value
}

func (*Set) isCommand() {}

// Text renders "set:<value>".
func (s *Set) Text() string {
	return "set:" + string(s.Value)
}

// Push appends Value to a sequence.
type Push struct {
	Value Value
}

func (*Push) isCommand() {}

// Text renders "push:<value>".
func (p *Push) Text() string {
	return "push:" + string(p.Value)
}

// Pop drops the last element of a sequence.
type Pop struct{}

func (*Pop) isCommand() {}

// Text renders "pop:", the only form the parser accepts; a bare "pop"
// without the colon is rejected with InvalidCommand.
func (*Pop) Text() string {
	return "pop:"
}

// Insert binds Key to Value in a sequence or map.
type Insert struct {
	Key   Value
	Value Value
}

func (*Insert) isCommand() {}

// Text renders "insert:<key> <value>".
func (i *Insert) Text() string {
	return "insert:" + string(i.Key) + " " + string(i.Value)
}

// Remove unbinds Key.
type Remove struct {
	Key Value
}

func (*Remove) isCommand() {}

// Text renders "remove:<key>".
func (r *Remove) Text() string {
	return "remove:" + string(r.Key)
}

// Call invokes the callable named Name on the current node with Arguments.
type Call struct {
	Name      string
	Arguments []Value
}

func (*Call) isCommand() {}

// Text renders "call:<name>:<arg> <arg> ...".
func (c *Call) Text() string {
	var b strings.Builder
	b.WriteString("call:")
	b.WriteString(c.Name)
	b.WriteString(":")
	for i, arg := range c.Arguments {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.Write(arg)
	}
	return b.String()
}

// terminalPrefix pairs a literal prefix with the parser for what follows
// it, tested in the order spec.md §4.A lists them.
type terminalPrefix struct {
	prefix string
	parse  func(rest string) (Command, error)
}

var terminals = []terminalPrefix{
	{"set:", parseSet},
	{"push:", parsePush},
	{"pop:", parsePop},
	{"insert:", parseInsert},
	{"remove:", parseRemove},
	{"call:", parseCall},
}

// Parse parses a single command string per the grammar in spec.md §4.A.
// Terminal prefixes are tested first and in the listed order; only if
// none match and the text contains "/" is it treated as a Path.
func Parse(text string) (Command, error) {
	for _, t := range terminals {
		if strings.HasPrefix(text, t.prefix) {
			return t.parse(text[len(t.prefix):])
		}
	}

	if idx := strings.IndexByte(text, '/'); idx >= 0 {
		element := text[:idx]
		inner, err := Parse(text[idx+1:])
		if err != nil {
			return nil, err
		}
		return &Path{Element: element, Command: inner}, nil
	}

	return nil, mirrorerr.InvalidCommand("unrecognized command text: " + text)
}

// Emit returns the exact wire text for cmd.
func Emit(cmd Command) string {
	return cmd.Text()
}

// streamValues reads exactly n JSON values from rest, reporting
// WrongArgumentCount on truncation and a JSON decode error for malformed
// input that isn't simply running out of data.
func streamValues(rest string, n int) ([]Value, error) {
	dec := json.NewDecoder(strings.NewReader(rest))
	values := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		var raw Value
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, mirrorerr.WrongArgumentCount("expected a value here, found end of input")
			}
			return nil, mirrorerr.JSONDecodeError(err)
		}
		values = append(values, bytes.TrimSpace(raw))
	}
	return values, nil
}

// streamAll reads JSON values from rest until end-of-input, used for
// Call's variadic argument list.
func streamAll(rest string) ([]Value, error) {
	dec := json.NewDecoder(strings.NewReader(rest))
	values := []Value{}
	for {
		var raw Value
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if err != nil {
			return nil, mirrorerr.JSONDecodeError(err)
		}
		values = append(values, bytes.TrimSpace(raw))
	}
}

func parseSet(rest string) (Command, error) {
	values, err := streamValues(rest, 1)
	if err != nil {
		return nil, err
	}
	return &Set{Value: values[0]}, nil
}

func parsePush(rest string) (Command, error) {
	values, err := streamValues(rest, 1)
	if err != nil {
		return nil, err
	}
	return &Push{Value: values[0]}, nil
}

func parsePop(rest string) (Command, error) {
	// Pop takes no argument: trailing whitespace is ignored, any other
	// trailing text is rejected.
	if strings.TrimSpace(rest) != "" {
		return nil, mirrorerr.InvalidCommand("pop: takes no argument")
	}
	return &Pop{}, nil
}

func parseInsert(rest string) (Command, error) {
	values, err := streamValues(rest, 2)
	if err != nil {
		return nil, err
	}
	return &Insert{Key: values[0], Value: values[1]}, nil
}

func parseRemove(rest string) (Command, error) {
	values, err := streamValues(rest, 1)
	if err != nil {
		return nil, err
	}
	return &Remove{Key: values[0]}, nil
}

func parseCall(rest string) (Command, error) {
	idx := strings.IndexByte(rest, ':')
	if idx < 0 {
		return nil, mirrorerr.InvalidCommand("call: is missing the ':' before its argument list")
	}
	name := rest[:idx]
	args, err := streamAll(rest[idx+1:])
	if err != nil {
		return nil, err
	}
	return &Call{Name: name, Arguments: args}, nil
}
