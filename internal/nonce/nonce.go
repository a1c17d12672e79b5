// Package nonce implements time-windowed nonces bound to a linked remote
// user identity.
//
// A nonce is the 10-character slice of a keyed hash over
// (tick, action, remote user id), keyed with the user's own connection
// secret. A nonce stays valid for the tick it was minted in and the one
// after it, so its lifetime is anywhere between just over 0 and
// DefaultLifetime depending on where in the tick it was created.
package nonce

import (
	"strconv"
	"time"
)

// Result is the outcome of a nonce verification.
type Result int

const (
	// Invalid means the nonce is empty, does not match either tick, or the
	// principal could not be resolved.
	Invalid Result = iota
	// ValidRecent means the nonce matches the current tick.
	ValidRecent
	// ValidStale means the nonce matches the previous tick.
	ValidStale
)

// Valid reports whether r is ValidRecent or ValidStale.
func (r Result) Valid() bool {
	return r == ValidRecent || r == ValidStale
}

func (r Result) String() string {
	switch r {
	case ValidRecent:
		return "valid_recent"
	case ValidStale:
		return "valid_stale"
	default:
		return "invalid"
	}
}

const (
	// UnscopedAction is the action used when the caller does not scope a
	// nonce to anything in particular.
	UnscopedAction = "-1"

	// DefaultLifetime is the full validity envelope of a nonce. A tick is
	// half of it.
	DefaultLifetime = 24 * time.Hour

	tokenLength = 10
	tokenTail   = 2
)

// Tick returns the time bucket now falls into: ceil(unix / (lifetime/2)).
func Tick(now time.Time, lifetime time.Duration) int64 {
	half := int64(lifetime/time.Second) / 2
	if half <= 0 {
		half = 1
	}
	unix := now.Unix()
	tick := unix / half
	if unix%half > 0 {
		tick++
	}
	return tick
}

// Compute derives the nonce for one tick. The hash input is the decimal
// tick, the action and the decimal remote user id concatenated without
// separators; the nonce is the 10 characters ending 2 before the end of the
// hex digest.
func Compute(hasher Hasher, secret []byte, tick int64, action string, remoteID int64) string {
	data := strconv.FormatInt(tick, 10) + action + strconv.FormatInt(remoteID, 10)
	digest := hasher.Sum(secret, data)
	end := len(digest) - tokenTail
	return digest[end-tokenLength : end]
}
