package catalog

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/registry"
	"github.com/guildstats/guildstats/pkg/store"
)

// Synchronizer reconciles guild stores against catalog snapshots and
// incremental change events.
type Synchronizer struct {
	reg     *registry.Registry
	log     *observability.Logger
	metrics *observability.Metrics
}

// NewSynchronizer creates a synchronizer working through the given registry.
func NewSynchronizer(reg *registry.Registry, log *observability.Logger, metrics *observability.Metrics) *Synchronizer {
	return &Synchronizer{reg: reg, log: log, metrics: metrics}
}

// SyncFull upserts every non-bot member and every catalog emoji as a
// baseline. Existing rows are left untouched, so display names are not
// overwritten, and rows absent from the snapshot are not deleted.
func (c *Synchronizer) SyncFull(ctx context.Context, guildID platform.GuildID, emoji []platform.Emoji, members []platform.User) error {
	err := c.reg.With(guildID, func(s *store.Store) error {
		for _, m := range members {
			if m.Bot {
				continue
			}
			if err := s.UpsertUser(ctx, store.User{ID: m.ID, Name: m.Name, DisplayName: m.DisplayName}); err != nil {
				return err
			}
		}
		for _, e := range emoji {
			if err := s.UpsertEmoji(ctx, store.Emoji{ID: e.ID, Name: e.Name, Animated: e.Animated}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("full catalog sync for guild %d failed: %w", guildID, err)
	}

	c.metrics.CatalogSyncsTotal.WithLabelValues("full").Inc()
	c.log.WithGuild(int64(guildID)).
		WithField("members", len(members)).
		WithField("emoji", len(emoji)).
		Debug("full catalog sync complete")
	return nil
}

// SyncEmojiDelta applies a catalog-change event. Every emoji in after gets
// a name update keyed by id, a no-op for unknown ids since renames are not
// inserts. Emoji present in before but missing from after are removed
// along with their usage rows, each removal as one atomic unit.
func (c *Synchronizer) SyncEmojiDelta(ctx context.Context, guildID platform.GuildID, before, after []platform.Emoji) error {
	afterByID := lo.KeyBy(after, func(e platform.Emoji) int64 { return e.ID })
	removed := lo.Reject(before, func(e platform.Emoji, _ int) bool {
		_, ok := afterByID[e.ID]
		return ok
	})

	err := c.reg.With(guildID, func(s *store.Store) error {
		for _, e := range after {
			if err := s.RenameEmoji(ctx, e.ID, e.Name); err != nil {
				return err
			}
		}
		for _, e := range removed {
			if err := s.RemoveEmoji(ctx, e.ID); err != nil {
				return err
			}
			c.metrics.EmojiRemovedTotal.WithLabelValues("delta").Inc()
			c.log.WithGuild(int64(guildID)).WithField("emoji", e.Name).Info("emoji removed from catalog")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("emoji delta sync for guild %d failed: %w", guildID, err)
	}

	c.metrics.CatalogSyncsTotal.WithLabelValues("delta").Inc()
	return nil
}

// OnMemberJoin records a newly joined member. Insert-if-absent: a user
// rejoining keeps whatever display name the store already knows.
func (c *Synchronizer) OnMemberJoin(ctx context.Context, guildID platform.GuildID, member platform.User) error {
	if member.Bot {
		return nil
	}
	err := c.reg.With(guildID, func(s *store.Store) error {
		return s.UpsertUser(ctx, store.User{ID: member.ID, Name: member.Name, DisplayName: member.DisplayName})
	})
	if err != nil {
		return fmt.Errorf("member join for guild %d failed: %w", guildID, err)
	}
	return nil
}

// OnMemberUpdate records a member's current display name, inserting the
// user if this is the first time the guild has seen them.
func (c *Synchronizer) OnMemberUpdate(ctx context.Context, guildID platform.GuildID, member platform.User) error {
	if member.Bot {
		return nil
	}
	err := c.reg.With(guildID, func(s *store.Store) error {
		return s.SetDisplayName(ctx, store.User{ID: member.ID, Name: member.Name, DisplayName: member.DisplayName})
	})
	if err != nil {
		return fmt.Errorf("member update for guild %d failed: %w", guildID, err)
	}
	return nil
}
