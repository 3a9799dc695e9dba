package domain

import "time"

// DeduplicationCacheEntry marks a unit of work as processed until ExpiresAt.
type DeduplicationCacheEntry struct {
	Key       string
	ExpiresAt time.Time
}

// Expired reports whether the entry no longer suppresses work at now.
func (e DeduplicationCacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}
