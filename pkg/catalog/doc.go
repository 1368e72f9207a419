// Package catalog keeps each guild's known emoji and user sets in step
// with the platform's authoritative catalog.
//
// SyncFull is the reconciliation baseline run at startup or guild join: it
// inserts anything missing and never deletes, so usage history survives
// entities the platform temporarily fails to list. SyncEmojiDelta applies
// catalog-change events, including the removal cascade that drops an
// emoji's usage rows together with its catalog row.
package catalog
