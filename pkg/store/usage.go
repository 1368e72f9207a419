package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordUsage appends one usage event. The user row is upserted defensively
// in the same transaction (a reaction-only actor may never have appeared in
// a member sync), the emoji must already be in the catalog, and the
// timestamp is truncated to second resolution. Entity rows commit in the
// same atomic unit as the event row, never after it.
func (s *Store) RecordUsage(ctx context.Context, u User, emojiID int64, usedAt time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO users (uid, name, display_name) VALUES (?, ?, ?)`,
			u.ID, u.Name, u.DisplayName,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert user %d: %w", u.ID, err)
		}

		var one int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM emoji WHERE eid = ?`, emojiID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownEmoji
		}
		if err != nil {
			return fmt.Errorf("failed to look up emoji %d: %w", emojiID, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO emoji_usage (uid, eid, used_at) VALUES (?, ?, ?)`,
			u.ID, emojiID, usedAt.UTC().Truncate(time.Second),
		)
		if err != nil {
			return fmt.Errorf("failed to insert usage event: %w", err)
		}
		return nil
	})
}

// CountUsage returns the number of usage rows, optionally filtered to one
// emoji id (pass 0 for all).
func (s *Store) CountUsage(ctx context.Context, emojiID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM emoji_usage`
	args := []any{}
	if emojiID != 0 {
		query += ` WHERE eid = ?`
		args = append(args, emojiID)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count usage events: %w", err)
	}
	return n, nil
}

// TopEmoji returns emoji ranked by usage count, descending by default or
// ascending when asc is set. The left join keeps zero-usage emoji in the
// result with a count of 0, so "bottom" is meaningful on a young guild.
// Ties keep underlying row order.
func (s *Store) TopEmoji(ctx context.Context, limit int, asc bool) ([]Ranked, error) {
	order := "DESC"
	if asc {
		order = "ASC"
	}
	query := fmt.Sprintf(
		`SELECT emoji.name, COUNT(emoji_usage.eid) AS cnt
		 FROM emoji
		 LEFT JOIN emoji_usage ON emoji_usage.eid = emoji.eid
		 GROUP BY emoji.eid
		 ORDER BY cnt %s
		 LIMIT ?`, order)
	return s.queryRanked(ctx, query, limit)
}

// TopUsers returns users ranked by how many usage events they produced,
// descending.
func (s *Store) TopUsers(ctx context.Context, limit int) ([]Ranked, error) {
	query := `SELECT users.name, COUNT(emoji_usage.uid) AS cnt
		 FROM users
		 LEFT JOIN emoji_usage ON emoji_usage.uid = users.uid
		 GROUP BY users.uid
		 ORDER BY cnt DESC
		 LIMIT ?`
	return s.queryRanked(ctx, query, limit)
}

func (s *Store) queryRanked(ctx context.Context, query string, limit int) ([]Ranked, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run ranking query: %w", err)
	}
	defer rows.Close()

	var out []Ranked
	for rows.Next() {
		var r Ranked
		if err := rows.Scan(&r.Label, &r.Count); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ranking query failed: %w", err)
	}
	return out, nil
}
