// Package mutation runs remote writes and applies their cache rules.
//
// A write is retried only when no response was received. Its cache rules run
// in declaration order after the write succeeds and never before; a failed
// write leaves the cache untouched and returns the error unchanged.
package mutation
