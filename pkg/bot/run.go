package bot

import (
	"context"
	"fmt"

	"github.com/guildstats/guildstats/pkg/platform"
)

// Run consumes the inbound event stream until the context is cancelled or
// the channel closes. Events are applied one at a time in delivery order;
// each handler finishes its database work before the next event starts,
// which keeps per-guild ordering trivially correct.
func (b *Bot) Run(ctx context.Context, events <-chan platform.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.handle(ctx, ev)
		}
	}
}

func (b *Bot) handle(ctx context.Context, ev platform.Event) {
	switch e := ev.(type) {
	case platform.Ready:
		b.HandleReady(ctx, e)
	case platform.GuildCreate:
		b.HandleGuildCreate(ctx, e)
	case platform.MemberAdd:
		b.HandleMemberAdd(ctx, e)
	case platform.MemberUpdate:
		b.HandleMemberUpdate(ctx, e)
	case platform.MessageCreate:
		b.HandleMessageCreate(ctx, e)
	case platform.ReactionAdd:
		b.HandleReactionAdd(ctx, e)
	case platform.ReactionRemove:
		b.HandleReactionRemove(ctx, e)
	case platform.EmojiUpdate:
		b.HandleEmojiUpdate(ctx, e)
	case platform.Disconnect:
		b.HandleDisconnect(ctx, e)
	default:
		b.log.WithField("type", typeName(ev)).Debug("ignoring unhandled event")
	}
}

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}
