package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guildstats/guildstats/pkg/platform"
)

func TestExtractCustomEmoji(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []platform.Emoji
	}{
		{
			name:    "plain text",
			content: "hello there",
			want:    nil,
		},
		{
			name:    "unicode emoji ignored",
			content: "nice one \U0001F525",
			want:    nil,
		},
		{
			name:    "single custom emoji",
			content: "nice one <:fire:12345>",
			want:    []platform.Emoji{{ID: 12345, Name: "fire"}},
		},
		{
			name:    "animated emoji",
			content: "<a:party:67890>",
			want:    []platform.Emoji{{ID: 67890, Name: "party", Animated: true}},
		},
		{
			name:    "repeated emoji yields repeated entries",
			content: "<:fire:12345> <:fire:12345>",
			want: []platform.Emoji{
				{ID: 12345, Name: "fire"},
				{ID: 12345, Name: "fire"},
			},
		},
		{
			name:    "mixed content keeps order",
			content: "a <:fire:1> b <a:party:2> c <:drop:3>",
			want: []platform.Emoji{
				{ID: 1, Name: "fire"},
				{ID: 2, Name: "party", Animated: true},
				{ID: 3, Name: "drop"},
			},
		},
		{
			name:    "malformed references ignored",
			content: "<:noid:> <::123> <:spaced name:5>",
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCustomEmoji(tt.content))
		})
	}
}
