package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/registry"
	"github.com/guildstats/guildstats/pkg/store"
)

const (
	replyUnrecognized = "Unrecognized command. Try \"%s help\""
	replyReactive     = "I'm now reactive."
	replyUnreactive   = "I'm now unreactive."
	replyReset        = "Database reset."
	replyResetBusy    = "Cannot reset database; currently in use by another process."
	replyAdminsOnly   = "Only admins can reset the database."
)

// Dispatch parses the verb after the command prefix and routes it. Verbs
// are case-insensitive. Every failure an end user should not see degrades
// to a log line keyed by a correlation id.
func (b *Bot) Dispatch(ctx context.Context, msg platform.Message) {
	fields := strings.Fields(msg.Content)
	if len(fields) < 2 {
		return
	}
	verb := strings.ToLower(fields[1])

	b.metrics.CommandsTotal.WithLabelValues(verb).Inc()
	log := b.log.WithGuild(int64(msg.GuildID)).
		WithField("verb", verb).
		WithField("correlation_id", uuid.NewString())

	switch verb {
	case "react":
		b.reactive.Store(true)
		b.reply(ctx, log, msg.ChannelID, replyReactive)
	case "unreact":
		b.reactive.Store(false)
		b.reply(ctx, log, msg.ChannelID, replyUnreactive)
	case "top":
		b.sendEmojiStats(ctx, log, msg, false)
	case "bottom":
		b.sendEmojiStats(ctx, log, msg, true)
	case "users":
		b.sendUserStats(ctx, log, msg)
	case "reset":
		b.handleReset(ctx, log, msg)
	case "help":
		b.reply(ctx, log, msg.ChannelID, helpText(b.prefix))
	case "adminhelp":
		b.reply(ctx, log, msg.ChannelID, adminHelpText(b.prefix))
	default:
		b.reply(ctx, log, msg.ChannelID, fmt.Sprintf(replyUnrecognized, b.prefix))
	}
}

func (b *Bot) sendEmojiStats(ctx context.Context, log *observability.Logger, msg platform.Message, ascending bool) {
	entries, err := b.stats.TopEmoji(ctx, msg.GuildID, 0, ascending)
	if err != nil {
		log.WithError(err).Error("emoji stats query failed")
		return
	}
	title := "Top Used Emojis"
	filename := "stats.png"
	if ascending {
		title = "Least Used Emojis"
	}
	b.sendRanked(ctx, log, msg.ChannelID, title, filename, entries)
}

func (b *Bot) sendUserStats(ctx context.Context, log *observability.Logger, msg platform.Message) {
	entries, err := b.stats.TopUsers(ctx, msg.GuildID, 0)
	if err != nil {
		log.WithError(err).Error("user stats query failed")
		return
	}
	b.sendRanked(ctx, log, msg.ChannelID, "Top Users Who Use Emojis", "users.png", entries)
}

// sendRanked delivers a ranking as a rendered chart, or as a plain text
// table when no renderer is wired.
func (b *Bot) sendRanked(ctx context.Context, log *observability.Logger, channelID int64, title, filename string, entries []store.Ranked) {
	if b.renderer == nil {
		b.reply(ctx, log, channelID, formatRanked(title, entries))
		return
	}
	img, err := b.renderer.RenderBarChart(title, entries)
	if err != nil {
		log.WithError(err).Error("chart rendering failed")
		return
	}
	if err := b.session.SendFile(ctx, channelID, filename, bytes.NewReader(img)); err != nil {
		log.WithError(err).Error("failed to send chart")
	}
}

func (b *Bot) handleReset(ctx context.Context, log *observability.Logger, msg platform.Message) {
	admin, err := b.session.HasAdministrator(ctx, msg.GuildID, msg.Author.ID)
	if err != nil {
		log.WithError(err).Error("permission lookup failed")
		return
	}
	if !admin {
		b.reply(ctx, log, msg.ChannelID, replyAdminsOnly)
		return
	}

	backupPath, err := b.registry.Rotate(msg.GuildID)
	if errors.Is(err, registry.ErrRotateFailed) {
		b.reply(ctx, log, msg.ChannelID, replyResetBusy)
		return
	}
	if err != nil {
		log.WithError(err).Error("reset failed")
		return
	}

	// The fresh store needs its catalog baseline back before usage can
	// be recorded again.
	snap, err := b.session.Snapshot(ctx, msg.GuildID)
	if err != nil {
		log.WithError(err).Warn("failed to fetch snapshot after reset")
	} else if err := b.catalog.SyncFull(ctx, msg.GuildID, snap.Emoji, snap.Members); err != nil {
		log.WithError(err).Warn("baseline sync after reset failed")
	}

	if b.uploader != nil {
		go func() {
			if _, err := b.uploader.UploadBackup(context.Background(), msg.GuildID, backupPath); err != nil {
				log.WithError(err).Warn("backup upload failed")
			}
		}()
	}

	b.reply(ctx, log, msg.ChannelID, replyReset)
}

func (b *Bot) reply(ctx context.Context, log *observability.Logger, channelID int64, content string) {
	if err := b.session.SendMessage(ctx, channelID, content); err != nil {
		log.WithError(err).Warn("failed to send reply")
	}
}

func formatRanked(title string, entries []store.Ranked) string {
	var sb strings.Builder
	sb.WriteString("**" + title + "**\n")
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. %s: %d\n", i+1, e.Label, e.Count)
	}
	if len(entries) == 0 {
		sb.WriteString("Nothing recorded yet.\n")
	}
	return sb.String()
}

func helpText(prefix string) string {
	return "Hi! I keep track of your server's custom emoji usage.\n" +
		"Commands: " + prefix + "\n" +
		"react - Makes me reactive.\n" +
		"unreact - Makes me unreactive.\n" +
		"top - Lists top 10 used emojis.\n" +
		"bottom - Lists least 10 used emojis.\n" +
		"users - Lists top 10 users who use the most emojis.\n" +
		"adminhelp - Lists admin commands.\n"
}

func adminHelpText(prefix string) string {
	return "Hi! I keep track of your server's custom emoji usage.\n" +
		"Commands: " + prefix + "\n" +
		"reset - Resets the database.\n"
}
