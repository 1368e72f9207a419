// Package recorder turns observed emoji occurrences into usage ledger rows.
//
// RecordUsage idempotently ensures the acting user exists and appends one
// usage event; emoji unknown to the guild's catalog are dropped with
// ErrUnknownEmoji rather than fabricated. RecordBatch applies the same per
// emoji with partial success: reactions and inline emoji in one message are
// independent occurrences, so one failure never blocks the rest.
//
// The extractor recognizes inline custom-emoji references (<:name:id> and
// <a:name:id>) in message text. An optional Redis-backed dedup window
// suppresses duplicate reaction deliveries; it is off unless configured.
package recorder
