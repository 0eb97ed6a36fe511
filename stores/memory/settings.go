package memory

import (
	"context"
	"fmt"

	"wireframe-canvas/core"
)

type settingKey struct {
	scope, key string
}

// settingsStore shares the Store's lock.
type settingsStore struct {
	store *Store
}

// Settings returns the store's view for shell settings.
func (s *Store) Settings() core.SettingsStore {
	return settingsStore{store: s}
}

func (v settingsStore) Load(ctx context.Context, scope, key string) ([]byte, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	value, ok := v.store.settings[settingKey{scope, key}]
	if !ok {
		return nil, fmt.Errorf("setting %s/%s %w", scope, key, core.ErrNotFound)
	}
	return append([]byte(nil), value...), nil
}

func (v settingsStore) Save(ctx context.Context, scope, key string, value []byte) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	v.store.settings[settingKey{scope, key}] = append([]byte(nil), value...)
	return nil
}

func (v settingsStore) Delete(ctx context.Context, scope, key string) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	delete(v.store.settings, settingKey{scope, key})
	return nil
}
