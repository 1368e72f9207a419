// Package observability provides structured logging, Prometheus metrics,
// and health checks for the guildstats service.
//
// Logging uses stdlib slog behind a small Logger wrapper so call sites can
// chain context fields (WithGuild, WithError) without threading slog
// attributes by hand. Metrics register on a private registry exposed via
// the ops HTTP server. Health checks ping every open guild store through
// the tenant registry.
package observability
