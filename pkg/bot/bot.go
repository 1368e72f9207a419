package bot

import (
	"context"
	"sync/atomic"

	"github.com/guildstats/guildstats/pkg/backup"
	"github.com/guildstats/guildstats/pkg/catalog"
	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/recorder"
	"github.com/guildstats/guildstats/pkg/registry"
	"github.com/guildstats/guildstats/pkg/stats"
)

// Bot holds the process-wide state and the wiring between the gateway and
// the ledger components. All fields are set at startup; the only mutable
// piece is the reactive flag toggled by the react/unreact commands.
type Bot struct {
	session  platform.Session
	registry *registry.Registry
	catalog  *catalog.Synchronizer
	recorder *recorder.Recorder
	stats    *stats.Aggregator

	// renderer draws the stats charts; nil falls back to text replies.
	renderer Renderer
	// uploader ships rotated backups off-box; nil disables uploads.
	uploader *backup.Uploader
	// dedup suppresses duplicate reaction deliveries; nil disables it.
	dedup *recorder.DedupWindow

	prefix  string
	log     *observability.Logger
	metrics *observability.Metrics

	// reactive mirrors every reaction the bot sees while enabled.
	reactive atomic.Bool
}

// Options carries the optional collaborators for New.
type Options struct {
	Renderer Renderer
	Uploader *backup.Uploader
	Dedup    *recorder.DedupWindow
}

// New wires a bot. prefix is the command introducer, e.g. "/analytics".
func New(
	session platform.Session,
	reg *registry.Registry,
	sync *catalog.Synchronizer,
	rec *recorder.Recorder,
	agg *stats.Aggregator,
	prefix string,
	log *observability.Logger,
	metrics *observability.Metrics,
	opts Options,
) *Bot {
	return &Bot{
		session:  session,
		registry: reg,
		catalog:  sync,
		recorder: rec,
		stats:    agg,
		renderer: opts.Renderer,
		uploader: opts.Uploader,
		dedup:    opts.Dedup,
		prefix:   prefix,
		log:      log,
		metrics:  metrics,
	}
}

// Reactive reports whether reaction mirroring is enabled.
func (b *Bot) Reactive() bool {
	return b.reactive.Load()
}

// ResyncAll re-runs the full catalog baseline for every open guild from a
// fresh platform snapshot. Scheduled periodically to heal membership
// events the gateway dropped.
func (b *Bot) ResyncAll(ctx context.Context) {
	for _, guildID := range b.registry.OpenGuilds() {
		snap, err := b.session.Snapshot(ctx, guildID)
		if err != nil {
			b.log.WithGuild(int64(guildID)).WithError(err).Warn("failed to fetch snapshot for resync")
			continue
		}
		if err := b.catalog.SyncFull(ctx, guildID, snap.Emoji, snap.Members); err != nil {
			b.log.WithGuild(int64(guildID)).WithError(err).Warn("periodic resync failed")
		}
	}
}
