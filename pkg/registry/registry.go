package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/store"
)

// ErrNotOpen is returned when an operation references a guild whose store
// was never opened.
var ErrNotOpen = errors.New("guild store not open")

// Registry maps guild ids to open store handles and serializes all access
// per guild.
type Registry struct {
	root    string
	log     *observability.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	guilds map[platform.GuildID]*guildEntry
}

// guildEntry pairs a store handle with the mutex that forms the guild's
// exclusive section.
type guildEntry struct {
	mu    sync.Mutex
	store *store.Store
}

// New creates a registry rooted at dir. Stores are created lazily by Open.
func New(dir string, log *observability.Logger, metrics *observability.Metrics) *Registry {
	return &Registry{
		root:    dir,
		log:     log,
		metrics: metrics,
		guilds:  make(map[platform.GuildID]*guildEntry),
	}
}

// StorePath returns the deterministic on-disk location of a guild's store.
func (r *Registry) StorePath(guildID platform.GuildID) string {
	return filepath.Join(r.root, fmt.Sprintf("%d.db", guildID))
}

// BackupPath returns the location a rotated store is renamed to.
func (r *Registry) BackupPath(guildID platform.GuildID) string {
	return r.StorePath(guildID) + ".bak"
}

// Open opens the guild's store, creating the root directory, the file, and
// the schema as needed. Calling Open for an already-open guild returns
// without touching the existing handle.
func (r *Registry) Open(guildID platform.GuildID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.guilds[guildID]; ok {
		return nil
	}

	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return fmt.Errorf("failed to create store root %s: %w", r.root, err)
	}
	s, err := store.Open(r.StorePath(guildID))
	if err != nil {
		return fmt.Errorf("failed to open store for guild %d: %w", guildID, err)
	}

	r.guilds[guildID] = &guildEntry{store: s}
	r.metrics.OpenStores.Inc()
	r.log.WithGuild(int64(guildID)).Info("guild store opened")
	return nil
}

// With runs fn inside the guild's exclusive section. It is the only way
// components reach a store handle, which keeps single-writer-per-guild
// enforceable in one place.
func (r *Registry) With(guildID platform.GuildID, fn func(s *store.Store) error) error {
	r.mu.Lock()
	entry, ok := r.guilds[guildID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("guild %d: %w", guildID, ErrNotOpen)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.store)
}

// Close releases the guild's handle and removes it from the registry. The
// store file persists on disk.
func (r *Registry) Close(guildID platform.GuildID) error {
	r.mu.Lock()
	entry, ok := r.guilds[guildID]
	if ok {
		delete(r.guilds, guildID)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("guild %d: %w", guildID, ErrNotOpen)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	r.metrics.OpenStores.Dec()
	return entry.store.Close()
}

// CloseAll closes every open handle at shutdown. Close errors are logged
// and do not stop the sweep, so every guild gets a chance to close.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	guilds := r.guilds
	r.guilds = make(map[platform.GuildID]*guildEntry)
	r.mu.Unlock()

	for guildID, entry := range guilds {
		entry.mu.Lock()
		if err := entry.store.Close(); err != nil {
			r.log.WithGuild(int64(guildID)).WithError(err).Warn("failed to close guild store")
		}
		r.metrics.OpenStores.Dec()
		entry.mu.Unlock()
	}
	r.log.Info("all guild stores closed")
}

// OpenGuilds lists the guilds with a live handle.
func (r *Registry) OpenGuilds() []platform.GuildID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]platform.GuildID, 0, len(r.guilds))
	for guildID := range r.guilds {
		out = append(out, guildID)
	}
	return out
}

// PingAll pings every open store and reports per-guild results. Used by
// the readiness probe.
func (r *Registry) PingAll(ctx context.Context) map[int64]error {
	out := make(map[int64]error)
	for _, guildID := range r.OpenGuilds() {
		err := r.With(guildID, func(s *store.Store) error {
			return s.Ping(ctx)
		})
		out[int64(guildID)] = err
	}
	return out
}
