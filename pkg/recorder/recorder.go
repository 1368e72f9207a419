package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/registry"
	"github.com/guildstats/guildstats/pkg/store"
)

// ErrUnknownEmoji mirrors store.ErrUnknownEmoji at the recorder boundary so
// callers can test for it without importing the store package.
var ErrUnknownEmoji = store.ErrUnknownEmoji

// Recorder appends usage events through the tenant registry. Callers filter
// bot accounts upstream; the recorder does not re-check.
type Recorder struct {
	reg     *registry.Registry
	log     *observability.Logger
	metrics *observability.Metrics
}

// New creates a recorder working through the given registry.
func New(reg *registry.Registry, log *observability.Logger, metrics *observability.Metrics) *Recorder {
	return &Recorder{reg: reg, log: log, metrics: metrics}
}

// RecordUsage appends one usage event for user using emoji at occurredAt.
// The user row is created if absent; the emoji must already be in the
// guild's catalog or the call fails with ErrUnknownEmoji and no row is
// written. source labels the metrics ("message" or "reaction").
func (r *Recorder) RecordUsage(ctx context.Context, guildID platform.GuildID, emoji platform.Emoji, user platform.User, occurredAt time.Time, source string) error {
	start := time.Now()
	err := r.reg.With(guildID, func(s *store.Store) error {
		return s.RecordUsage(ctx, store.User{ID: user.ID, Name: user.Name, DisplayName: user.DisplayName}, emoji.ID, occurredAt)
	})
	r.metrics.StoreOperationDuration.WithLabelValues("record_usage").Observe(time.Since(start).Seconds())

	if errors.Is(err, store.ErrUnknownEmoji) {
		r.metrics.UnknownEmojiTotal.WithLabelValues(source).Inc()
		r.log.WithGuild(int64(guildID)).
			WithField("emoji", emoji.Name).
			Debug("dropped usage of emoji unknown to guild")
		return fmt.Errorf("emoji %q in guild %d: %w", emoji.Name, guildID, ErrUnknownEmoji)
	}
	if err != nil {
		r.metrics.StoreErrorsTotal.WithLabelValues("record_usage").Inc()
		return fmt.Errorf("failed to record usage in guild %d: %w", guildID, err)
	}

	r.metrics.UsageEventsTotal.WithLabelValues(source).Inc()
	return nil
}

// RecordBatch applies RecordUsage once per emoji, each as an independent
// unit. A failure on one emoji does not block the others. Unknown-emoji
// drops are already counted and logged per occurrence and are not part of
// the returned error, so a caller inspecting it sees only genuine store
// failures.
func (r *Recorder) RecordBatch(ctx context.Context, guildID platform.GuildID, emoji []platform.Emoji, user platform.User, occurredAt time.Time, source string) error {
	var errs []error
	for _, e := range emoji {
		err := r.RecordUsage(ctx, guildID, e, user, occurredAt, source)
		if err == nil || errors.Is(err, ErrUnknownEmoji) {
			continue
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
