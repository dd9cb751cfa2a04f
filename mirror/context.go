package mirror

// Context is the capability threaded through traversal (spec.md §4.F). A
// Reflector descends into children via ctx.Descend, and — when it wants a
// side mutation it performs internally (typically from inside a Call
// handler) to be replicated — applies that mutation through ctx.Command or
// ctx.Local rather than mutating the child directly.
type Context interface {
	// Command applies text to v (a Reflector, or a pointer to any value
	// Dispatch knows how to handle) and, on success, records a
	// broadcast-eligible log entry consisting of this context's
	// accumulated path prefix followed by text.
	Command(v any, text string) error

	// Local behaves like Command but marks the resulting entry as
	// non-broadcast: it will not be echoed back to the command's
	// originator, only relayed to other participants.
	Local(v any, text string) error

	// Descend returns a child context whose path prefix is this
	// context's prefix plus element+"/", sharing the same underlying
	// log as self.
	Descend(element string) Context
}

// inert is the Context used for purely local edits — clients applying
// inbound replicated commands, and any traversal that isn't meant to
// produce further replication.
type inert struct{}

// Inert is the context that observes nothing: Command/Local still apply
// the given command but never log it, and Descend is a no-op.
var Inert Context = inert{}

func (inert) Command(v any, text string) error {
	return ApplyText(v, Inert, text)
}

func (inert) Local(v any, text string) error {
	return ApplyText(v, Inert, text)
}

func (inert) Descend(string) Context {
	return Inert
}

// LogEntry is one accumulated mutation record: Text is the path-qualified
// command string, Broadcast reports whether it should also be echoed back
// to the command's originator.
type LogEntry struct {
	Text      string
	Broadcast bool
}

// log is the shared, append-only record behind every Reply descended from
// the same root. Conceptually one list with many cursors (spec.md §4.F):
// every Reply sharing a root points at the same *log.
type log struct {
	entries []LogEntry
}

func (l *log) append(text string, broadcast bool) {
	l.entries = append(l.entries, LogEntry{Text: text, Broadcast: broadcast})
}

// Reply is the non-inert Context: it accumulates a path-qualified,
// ordered log of every successful mutation, tagged with whether it should
// be echoed back to the originator (spec.md §4.F, "reply accumulator").
type Reply struct {
	log    *log
	prefix string
}

// NewReply creates a fresh reply accumulator with an empty path prefix.
func NewReply() *Reply {
	return &Reply{log: &log{}}
}

// Command applies text to v using an inert context (so the nested
// application doesn't double-log through this same Reply) and, on
// success, appends a broadcast-eligible entry.
func (r *Reply) Command(v any, text string) error {
	if err := ApplyText(v, Inert, text); err != nil {
		return err
	}
	r.log.append(r.prefix+text, true)
	return nil
}

// Local behaves like Command but appends a non-broadcast entry.
func (r *Reply) Local(v any, text string) error {
	if err := ApplyText(v, Inert, text); err != nil {
		return err
	}
	r.log.append(r.prefix+text, false)
	return nil
}

// Descend returns a child Reply sharing this one's log, with element
// appended to the path prefix.
func (r *Reply) Descend(element string) Context {
	return &Reply{log: r.log, prefix: r.prefix + element + "/"}
}

// Drain returns the accumulated entries in commit order and clears them.
// Call this once traversal has concluded, from the root Reply only —
// descended Replies share the same underlying log.
func (r *Reply) Drain() []LogEntry {
	entries := r.log.entries
	r.log.entries = nil
	return entries
}
