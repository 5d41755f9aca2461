// Package id provides unique identifier generation.
package id

import (
	"github.com/oklog/ulid/v2"
)

// New returns a new ULID string. ULIDs are lexicographically sortable by
// creation time, which keeps message ordering stable under identical
// timestamps.
func New() string {
	return ulid.Make().String()
}

// NewWithPrefix returns a new ULID string with the given prefix, separated
// by an underscore. Used for typed identifiers like tool call ids.
func NewWithPrefix(prefix string) string {
	return prefix + "_" + ulid.Make().String()
}
