package platform

import (
	"context"
	"io"
	"time"
)

// GuildID identifies one community (the unit of data isolation).
type GuildID int64

// User is the platform's view of an account at event time.
type User struct {
	ID          int64
	Name        string
	DisplayName string
	Bot         bool
}

// Emoji is one custom emoji from a guild's catalog.
type Emoji struct {
	ID       int64
	Name     string
	Animated bool
}

// Message is the subset of a chat message the ledger cares about.
type Message struct {
	ID        int64
	ChannelID int64
	GuildID   GuildID
	Content   string
	Author    User
	Timestamp time.Time
}

// Ready fires once the gateway session is established. It carries the
// catalog snapshot for every guild the session can already see.
type Ready struct {
	Guilds []GuildSnapshot
}

// GuildSnapshot is the authoritative catalog state for one guild, delivered
// on Ready and GuildCreate.
type GuildSnapshot struct {
	ID      GuildID
	Name    string
	Members []User
	Emoji   []Emoji
}

// GuildCreate fires when the bot joins a guild (or a guild becomes
// available after an outage).
type GuildCreate struct {
	Guild GuildSnapshot
}

// MemberAdd fires when a user joins a guild.
type MemberAdd struct {
	GuildID GuildID
	Member  User
}

// MemberUpdate fires when a member's nickname or account name changes.
type MemberUpdate struct {
	GuildID GuildID
	Member  User
}

// MessageCreate fires for every message the bot can read.
type MessageCreate struct {
	Message Message
}

// ReactionAdd fires when a user adds a reaction to a message.
type ReactionAdd struct {
	GuildID   GuildID
	ChannelID int64
	MessageID int64
	Reactor   User
	Emoji     Emoji
	// Custom reports whether the emoji is a guild custom emoji rather
	// than a built-in unicode one.
	Custom bool
	// Count is the number of reactors on this emoji after the add.
	Count int
}

// ReactionRemove fires when a user removes a reaction.
type ReactionRemove struct {
	GuildID   GuildID
	ChannelID int64
	MessageID int64
	Reactor   User
	Emoji     Emoji
	Custom    bool
	// Count is the number of reactors remaining on this emoji.
	Count int
}

// EmojiUpdate fires when a guild's emoji catalog changes. Before and After
// are complete catalog listings, not diffs.
type EmojiUpdate struct {
	GuildID GuildID
	Before  []Emoji
	After   []Emoji
}

// Disconnect fires when the gateway session is going away.
type Disconnect struct{}

// Session is the outbound half of the gateway boundary: the actions the bot
// can ask the platform to carry out.
type Session interface {
	// SendMessage posts text to a channel.
	SendMessage(ctx context.Context, channelID int64, content string) error
	// SendFile uploads a file (e.g. a rendered chart) to a channel.
	SendFile(ctx context.Context, channelID int64, filename string, r io.Reader) error
	// AddReaction adds the given emoji as a reaction from the bot itself.
	AddReaction(ctx context.Context, channelID, messageID int64, emoji Emoji) error
	// RemoveReaction removes the bot's own reaction.
	RemoveReaction(ctx context.Context, channelID, messageID int64, emoji Emoji) error
	// HasAdministrator reports whether the user holds the administrator
	// permission in the guild. Gates the reset command.
	HasAdministrator(ctx context.Context, guildID GuildID, userID int64) (bool, error)
	// Snapshot fetches the guild's current catalog state. Used by the
	// periodic resync to heal missed membership events.
	Snapshot(ctx context.Context, guildID GuildID) (GuildSnapshot, error)
}
