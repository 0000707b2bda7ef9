package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

const rotationCursorKey = "rotation_cursor"

// RotationCursor returns the stored query rotation cursor, or 0 if none has
// been saved.
func (db *DB) RotationCursor(ctx context.Context) (int, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, rotationCursorKey).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", rotationCursorKey, value, err)
	}
	return n, nil
}

// SetRotationCursor stores the query rotation cursor.
func (db *DB) SetRotationCursor(ctx context.Context, cursor int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		rotationCursorKey, strconv.Itoa(cursor),
	)
	return err
}
