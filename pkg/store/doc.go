// Package store implements the per-guild entity store: one self-contained
// SQLite file holding the guild's known emoji, known users, and the
// append-only usage ledger.
//
// # Schema
//
//   - emoji(eid PRIMARY KEY, name, animated)
//   - users(uid PRIMARY KEY, name, display_name)
//   - emoji_usage(uid, eid, used_at) with indexes on eid and uid
//
// Emoji and user rows are created lazily on first observed reference and,
// apart from catalog removals, never deleted. Usage rows are append-only
// and reference rows that must already exist; RecordUsage enforces this
// inside a single transaction and fails with ErrUnknownEmoji when the
// referenced emoji is not in the catalog.
//
// A Store is not safe for concurrent use on its own. The tenant registry
// (pkg/registry) serializes all access per guild.
package store
