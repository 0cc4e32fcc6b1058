// Package courses defines the cache keys, queries and mutations of the
// course console.
//
// Keys are hierarchical so one prefix reaches a whole family: ["courses"]
// covers the list, every search page and every detail entry. Each mutation
// carries the cache rules that keep those families consistent after a
// successful write; Service validates input before any write is attempted.
package courses
