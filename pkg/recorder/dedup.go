package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/guildstats/guildstats/pkg/platform"
)

// DedupWindow suppresses duplicate reaction deliveries inside a sliding
// window. The platform redelivers reaction events at least once; without a
// window every redelivery becomes a ledger row, which operators may not
// want. The window is keyed on the full
// causal identity of the occurrence, so the same user reacting with the
// same emoji on two different messages is never suppressed.
type DedupWindow struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupWindow creates a window backed by the given Redis client.
func NewDedupWindow(client *redis.Client, ttl time.Duration) *DedupWindow {
	return &DedupWindow{client: client, ttl: ttl}
}

// Seen reports whether this exact occurrence was already delivered inside
// the window, marking it as delivered as a side effect. Redis errors are
// returned so the caller can decide to record anyway (availability over
// dedup precision).
func (d *DedupWindow) Seen(ctx context.Context, guildID platform.GuildID, messageID, userID, emojiID int64) (bool, error) {
	key := fmt.Sprintf("guildstats:dedup:%d:%d:%d:%d", guildID, messageID, userID, emojiID)
	set, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup lookup failed: %w", err)
	}
	return !set, nil
}
