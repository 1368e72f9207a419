package registry

import (
	"errors"
	"fmt"
	"os"

	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/store"
)

// ErrRotateFailed is returned when the backup rename could not complete,
// typically because another process still holds the store file. The guild
// keeps its prior data and a live handle.
var ErrRotateFailed = errors.New("store rotation failed")

// Rotate retires the guild's live store: close the handle, move the file
// to its backup path, and recreate a fresh schema at the original path.
//
// The rename is attempted exactly once; the cause of a rename failure (a
// concurrent reader holding the file) does not resolve quickly, so there
// is no retry loop. On failure the original file is reopened in place and
// ErrRotateFailed is returned. The guild ends up live either way, with a
// fresh store or its prior one, never without a usable handle.
//
// On success Rotate returns the path of the backup artifact.
func (r *Registry) Rotate(guildID platform.GuildID) (string, error) {
	r.mu.Lock()
	entry, ok := r.guilds[guildID]
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("guild %d: %w", guildID, ErrNotOpen)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	log := r.log.WithGuild(int64(guildID))
	livePath := r.StorePath(guildID)
	backupPath := r.BackupPath(guildID)

	if err := entry.store.Close(); err != nil {
		return "", fmt.Errorf("failed to close store before rotation: %w", err)
	}

	// A stale backup from an earlier rotation is expected; anything else
	// wrong with it will surface in the rename.
	if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to remove stale backup")
	}

	renameErr := os.Rename(livePath, backupPath)

	// Reopen at the original path regardless of the rename outcome: a
	// failed rename leaves the old file in place and the guild keeps it.
	fresh, openErr := store.Open(livePath)
	if openErr != nil {
		r.mu.Lock()
		delete(r.guilds, guildID)
		r.mu.Unlock()
		r.metrics.OpenStores.Dec()
		r.metrics.RotationsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to reopen store after rotation: %w", openErr)
	}
	entry.store = fresh

	if renameErr != nil {
		r.metrics.RotationsTotal.WithLabelValues("failed").Inc()
		log.WithError(renameErr).Warn("rotation aborted, original store reopened")
		return "", fmt.Errorf("%w: %v", ErrRotateFailed, renameErr)
	}

	r.metrics.RotationsTotal.WithLabelValues("success").Inc()
	log.WithField("backup", backupPath).Info("guild store rotated")
	return backupPath, nil
}
