// Package cache is the keyed result store behind the query and mutation
// orchestrators.
//
// Entries are addressed by hierarchical keys and move through the statuses
// idle, pending, success and error. A pending entry keeps its previous value
// so readers can keep showing it while a refetch runs. Invalidation marks
// entries stale without dropping them; removal drops them and leaves a
// tombstone so a fetch started earlier cannot bring them back. Fetch
// completions carry the sequence number handed out by BeginFetch and are
// discarded when a newer write already landed. Entries without subscribers
// are evicted after Policy.GCTime.
package cache
