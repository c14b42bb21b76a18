// Package ids generates identifiers in their canonical string forms.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newULID() ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
}

func newMonotonicULID() ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// ULID returns a time-sortable ULID encoded as a 26-character string.
func ULID() string {
	return newULID().String()
}

// ULIDMonotonic returns a ULID that sorts strictly after every previous one
// generated by this process, even within the same millisecond.
func ULIDMonotonic() string {
	return newMonotonicULID().String()
}

// UUID4 returns a random UUID.
func UUID4() string {
	return uuid.NewString()
}

// UUID6 returns a time-ordered UUID (RFC 9562 version 6).
func UUID6() string {
	return uuid.Must(uuid.NewV6()).String()
}

// ULIDUUID returns a ULID rendered in UUID form.
func ULIDUUID() string {
	return uuid.UUID(newULID()).String()
}

// ULIDMonotonicUUID returns a monotonic ULID rendered in UUID form.
func ULIDMonotonicUUID() string {
	return uuid.UUID(newMonotonicULID()).String()
}
