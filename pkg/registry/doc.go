// Package registry owns the mapping from guild identifier to that guild's
// open store handle.
//
// All store access is brokered through the registry: With runs an operation
// inside the guild's exclusive section, so entity-before-event ordering and
// delete cascades hold without any other component taking locks. Handles
// for different guilds are independent and never block each other.
//
// The registry also implements the reset/rotate procedure: close, rename
// the store file to its backup path, and recreate a fresh schema. When the
// rename fails the original file is reopened instead, so a guild is never
// left without a usable handle.
package registry
