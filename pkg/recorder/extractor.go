package recorder

import (
	"regexp"
	"strconv"

	"github.com/guildstats/guildstats/pkg/platform"
)

// customEmojiPattern matches inline custom-emoji references. The optional
// leading "a" marks animated emoji. Plain unicode emoji never match and are
// deliberately invisible to the ledger.
var customEmojiPattern = regexp.MustCompile(`<(a?):([^:\s]+):([0-9]+)>`)

// ExtractCustomEmoji returns every custom-emoji occurrence in content, in
// order, one entry per occurrence. Repeated use of the same emoji yields
// repeated entries: the ledger records occurrences, not a deduplicated
// tally.
func ExtractCustomEmoji(content string) []platform.Emoji {
	matches := customEmojiPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]platform.Emoji, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, platform.Emoji{
			ID:       id,
			Name:     m[2],
			Animated: m[1] == "a",
		})
	}
	return out
}
