package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/recorder"
)

// HandleReady opens a store and runs the catalog baseline for every guild
// in the session.
func (b *Bot) HandleReady(ctx context.Context, ev platform.Ready) {
	for _, g := range ev.Guilds {
		b.setupGuild(ctx, g)
	}
	b.log.WithField("guilds", len(ev.Guilds)).Info("session ready")
}

// HandleGuildCreate opens a store and runs the baseline for a newly joined
// guild.
func (b *Bot) HandleGuildCreate(ctx context.Context, ev platform.GuildCreate) {
	b.setupGuild(ctx, ev.Guild)
}

func (b *Bot) setupGuild(ctx context.Context, g platform.GuildSnapshot) {
	log := b.log.WithGuild(int64(g.ID))
	if err := b.registry.Open(g.ID); err != nil {
		log.WithError(err).Error("failed to open guild store")
		return
	}
	if err := b.catalog.SyncFull(ctx, g.ID, g.Emoji, g.Members); err != nil {
		log.WithError(err).Error("baseline catalog sync failed")
	}
}

// HandleMemberAdd records a newly joined member.
func (b *Bot) HandleMemberAdd(ctx context.Context, ev platform.MemberAdd) {
	if err := b.catalog.OnMemberJoin(ctx, ev.GuildID, ev.Member); err != nil {
		b.log.WithGuild(int64(ev.GuildID)).WithError(err).Warn("failed to record member join")
	}
}

// HandleMemberUpdate records a member's new display name.
func (b *Bot) HandleMemberUpdate(ctx context.Context, ev platform.MemberUpdate) {
	if err := b.catalog.OnMemberUpdate(ctx, ev.GuildID, ev.Member); err != nil {
		b.log.WithGuild(int64(ev.GuildID)).WithError(err).Warn("failed to record member update")
	}
}

// HandleEmojiUpdate reconciles a catalog-change event.
func (b *Bot) HandleEmojiUpdate(ctx context.Context, ev platform.EmojiUpdate) {
	if err := b.catalog.SyncEmojiDelta(ctx, ev.GuildID, ev.Before, ev.After); err != nil {
		b.log.WithGuild(int64(ev.GuildID)).WithError(err).Error("emoji delta sync failed")
	}
}

// HandleMessageCreate records inline custom-emoji usage and, when the
// message starts with the command prefix, dispatches the command.
func (b *Bot) HandleMessageCreate(ctx context.Context, ev platform.MessageCreate) {
	msg := ev.Message
	if msg.Author.Bot {
		return
	}

	if found := recorder.ExtractCustomEmoji(msg.Content); len(found) > 0 {
		// Stamped at ingestion time, matching the reaction path. The batch
		// error carries store failures only; unknown emoji were already
		// dropped and counted per occurrence.
		if err := b.recorder.RecordBatch(ctx, msg.GuildID, found, msg.Author, time.Now(), "message"); err != nil {
			b.log.WithGuild(int64(msg.GuildID)).WithError(err).Warn("failed to record message emoji usage")
		}
	}

	if strings.HasPrefix(msg.Content, b.prefix+" ") {
		b.Dispatch(ctx, msg)
	}
}

// HandleReactionAdd records custom-emoji reactions and mirrors them when
// reactive mode is on.
func (b *Bot) HandleReactionAdd(ctx context.Context, ev platform.ReactionAdd) {
	if ev.Reactor.Bot {
		return
	}

	if ev.Custom {
		if b.seenBefore(ctx, ev) {
			b.metrics.DedupSuppressed.WithLabelValues("reaction").Inc()
		} else {
			// Reaction events carry no origination time; the ledger
			// stamps ingestion time.
			err := b.recorder.RecordUsage(ctx, ev.GuildID, ev.Emoji, ev.Reactor, time.Now(), "reaction")
			if err != nil && !errors.Is(err, recorder.ErrUnknownEmoji) {
				b.log.WithGuild(int64(ev.GuildID)).WithError(err).Warn("failed to record reaction usage")
			}
		}
	}

	if b.reactive.Load() {
		if err := b.session.AddReaction(ctx, ev.ChannelID, ev.MessageID, ev.Emoji); err != nil {
			b.log.WithGuild(int64(ev.GuildID)).WithError(err).Debug("failed to mirror reaction")
		}
	}
}

// HandleReactionRemove withdraws the bot's mirror reaction once it is the
// last one left on the emoji.
func (b *Bot) HandleReactionRemove(ctx context.Context, ev platform.ReactionRemove) {
	if ev.Reactor.Bot {
		return
	}
	if ev.Count == 1 {
		if err := b.session.RemoveReaction(ctx, ev.ChannelID, ev.MessageID, ev.Emoji); err != nil {
			b.log.WithGuild(int64(ev.GuildID)).WithError(err).Debug("failed to withdraw mirror reaction")
		}
	}
}

// HandleDisconnect closes every guild store before the session goes away.
func (b *Bot) HandleDisconnect(ctx context.Context, _ platform.Disconnect) {
	b.registry.CloseAll()
}

func (b *Bot) seenBefore(ctx context.Context, ev platform.ReactionAdd) bool {
	if b.dedup == nil {
		return false
	}
	seen, err := b.dedup.Seen(ctx, ev.GuildID, ev.MessageID, ev.Reactor.ID, ev.Emoji.ID)
	if err != nil {
		// Record anyway: a flaky dedup backend must not drop real usage.
		b.log.WithError(err).Debug("dedup lookup failed, recording without it")
		return false
	}
	return seen
}
