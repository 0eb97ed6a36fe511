package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wireframe-canvas/core"

	"github.com/sirupsen/logrus"
)

// Settings keys inside a shell's scope.
const (
	keyGrid             = "grid-config"
	keyGuides           = "guide-config"
	keyPersistentGuides = "persistent-guides"
	keyGridPresets      = "grid-presets"
	keyGuidePresets     = "guide-presets"
)

// settingsVersion is written into every stored value. Values without a
// version are read as bare JSON.
const settingsVersion = 1

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

func encodeSetting(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Version: settingsVersion, Data: data})
}

func decodeSetting(raw []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Version != 0 {
		if env.Version > settingsVersion {
			return fmt.Errorf("unsupported settings version %d", env.Version)
		}
		return json.Unmarshal(env.Data, v)
	}
	return json.Unmarshal(raw, v)
}

// load reads key into v. Missing keys and failures leave v untouched;
// failures are logged.
func (s *Shell) load(ctx context.Context, key string, v any) bool {
	if s.store == nil {
		return false
	}
	log := logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "key": key})

	raw, err := s.store.Load(ctx, s.opts.Scope, key)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.WithError(err).Warn("Failed to read shell settings, using defaults")
		}
		return false
	}
	if err := decodeSetting(raw, v); err != nil {
		log.WithError(err).Warn("Ignoring unreadable shell settings")
		return false
	}
	return true
}

// persist writes v under key. Failures are logged and reported through the
// notifier but never returned.
func (s *Shell) persist(ctx context.Context, key string, v any) {
	if s.store == nil {
		return
	}
	log := logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "key": key})

	raw, err := encodeSetting(v)
	if err == nil {
		err = s.store.Save(ctx, s.opts.Scope, key, raw)
	}
	if err != nil {
		log.WithError(err).Error("Failed to persist shell settings")
		s.notify(NoticeWarning, "Settings not saved", err.Error())
		return
	}
	log.Debug("Shell settings persisted")
}
