// Package sessionid mints identifiers for newly-joined transports, for
// use in logs. Adapted from the teacher's
// common/ulid package: a ULID encodes join order as well as uniqueness,
// which a plain random ID would lose.
package sessionid

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh, lexicographically sortable session identifier.
func New() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
