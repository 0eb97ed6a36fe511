package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wireframe-canvas/core"
)

type settingsStore struct {
	db *sql.DB
}

// Settings returns the store's view for shell settings.
func (s *Store) Settings() core.SettingsStore {
	return settingsStore{db: s.db}
}

func (v settingsStore) Load(ctx context.Context, scope, key string) ([]byte, error) {
	var value []byte
	err := v.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE scope = ? AND key = ?", scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("setting %s/%s %w", scope, key, core.ErrNotFound)
	}
	return value, err
}

func (v settingsStore) Save(ctx context.Context, scope, key string, value []byte) error {
	_, err := v.db.ExecContext(ctx,
		"INSERT INTO settings (scope, key, value) VALUES (?, ?, ?) ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value",
		scope, key, value)
	return err
}

func (v settingsStore) Delete(ctx context.Context, scope, key string) error {
	_, err := v.db.ExecContext(ctx, "DELETE FROM settings WHERE scope = ? AND key = ?", scope, key)
	return err
}
