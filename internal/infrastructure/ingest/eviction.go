package ingest

import "time"

// Expired reports whether a connection that produced nothing this cycle
// should be evicted. A zero prunePeriod disables eviction, and an idle time
// equal to prunePeriod is still kept.
func Expired(prunePeriod time.Duration, lastActivity, now time.Time) bool {
	return prunePeriod > 0 && now.Sub(lastActivity) > prunePeriod
}
