// Package expiry holds the absolute-expiry rules shared by session and share records.
package expiry

import (
	"errors"
	"time"
)

// ErrInvariant marks an attempt to persist a record that is not fully initialized.
var ErrInvariant = errors.New("invariant violation")

// HasExpired reports whether an epoch-second expiry is at or before now.
func HasExpired(expire int64, now time.Time) bool {
	return expire <= now.Unix()
}

// TTL returns the remaining lifetime of an epoch-second expiry. It is <= 0 once expired.
func TTL(expire int64, now time.Time) time.Duration {
	return time.Unix(expire, 0).Sub(now)
}
