package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort by creation time, so a
// credential's id also records roughly when its signup happened.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
