// Package stats answers aggregate ranking queries against the usage
// ledger: top or bottom emoji by usage count and top users by events
// produced.
//
// Queries are read-only and run inside the guild's exclusive section, so
// they are safe to call concurrently with writers. A small TTL'd LRU cache
// absorbs command bursts (a popular "top" command can fire many times in a
// few seconds) at the cost of results up to one TTL stale.
package stats
