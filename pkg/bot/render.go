package bot

import "github.com/guildstats/guildstats/pkg/store"

// Renderer turns an ordered (label, count) list into an image artifact.
// Chart drawing is an external concern; the bot only moves bytes.
type Renderer interface {
	RenderBarChart(title string, entries []store.Ranked) ([]byte, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(title string, entries []store.Ranked) ([]byte, error)

// RenderBarChart calls f.
func (f RendererFunc) RenderBarChart(title string, entries []store.Ranked) ([]byte, error) {
	return f(title, entries)
}
