package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UpsertUser inserts the user if absent. An existing row is left untouched,
// so a baseline sync never clobbers a display name picked up from a later
// member-update event.
func (s *Store) UpsertUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (uid, name, display_name) VALUES (?, ?, ?)`,
		u.ID, u.Name, u.DisplayName,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", u.ID, err)
	}
	return nil
}

// SetDisplayName inserts the user or, if the row exists, updates its
// display name in place.
func (s *Store) SetDisplayName(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (uid, name, display_name) VALUES (?, ?, ?)
		 ON CONFLICT (uid) DO UPDATE SET display_name = excluded.display_name`,
		u.ID, u.Name, u.DisplayName,
	)
	if err != nil {
		return fmt.Errorf("failed to set display name for user %d: %w", u.ID, err)
	}
	return nil
}

// UpsertEmoji inserts the emoji if absent. The animated flag is set at
// creation and not re-derived on later syncs.
func (s *Store) UpsertEmoji(ctx context.Context, e Emoji) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO emoji (eid, name, animated) VALUES (?, ?, ?)`,
		e.ID, e.Name, boolToInt(e.Animated),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert emoji %d: %w", e.ID, err)
	}
	return nil
}

// RenameEmoji updates the display name of a known emoji. Unknown ids are a
// no-op, not an insert: renames never resurrect a removed emoji.
func (s *Store) RenameEmoji(ctx context.Context, id int64, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE OR IGNORE emoji SET name = ? WHERE eid = ?`, name, id,
	)
	if err != nil {
		return fmt.Errorf("failed to rename emoji %d: %w", id, err)
	}
	return nil
}

// RemoveEmoji deletes the emoji row and every usage event referencing it,
// in one transaction. Usage rows go first to satisfy the foreign key.
// Historical usage of a removed emoji is accepted information loss.
func (s *Store) RemoveEmoji(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM emoji_usage WHERE eid = ?`, id); err != nil {
			return fmt.Errorf("failed to delete usage for emoji %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM emoji WHERE eid = ?`, id); err != nil {
			return fmt.Errorf("failed to delete emoji %d: %w", id, err)
		}
		return nil
	})
}

// EmojiExists reports whether the emoji is present in the catalog.
func (s *Store) EmojiExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM emoji WHERE eid = ?`, id).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("failed to look up emoji %d: %w", id, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
