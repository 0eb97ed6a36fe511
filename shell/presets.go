package shell

import (
	"context"
	"fmt"
	"strings"

	"wireframe-canvas/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// SystemGridPresets are always available and cannot be deleted.
func SystemGridPresets() []core.GridPreset {
	base := core.DefaultGridConfig()

	eight := base
	eight.Size = 8

	twelve := base
	twelve.Type = core.GridColumns
	twelve.Columns = 12
	twelve.Gutter = 24
	twelve.Margin = 48

	dots := base
	dots.Type = core.GridDots
	dots.Size = 16

	return []core.GridPreset{
		{ID: "system-default", Name: "Default", System: true, Config: base},
		{ID: "system-8pt", Name: "8pt baseline", System: true, Config: eight},
		{ID: "system-12-column", Name: "12 column", System: true, Config: twelve},
		{ID: "system-dots", Name: "Dot grid", System: true, Config: dots},
	}
}

func SystemGuidePresets() []core.GuidePreset {
	base := core.DefaultGuideConfig()

	precise := base
	precise.SnapThreshold = 2

	minimal := base
	minimal.SmartGuides = false
	minimal.ShowDistances = false

	return []core.GuidePreset{
		{ID: "system-default", Name: "Default", System: true, Config: base},
		{ID: "system-precise", Name: "Precise", System: true, Config: precise},
		{ID: "system-minimal", Name: "Minimal", System: true, Config: minimal},
	}
}

func (s *Shell) GridPresets() []core.GridPreset {
	return append([]core.GridPreset(nil), s.gridPresets...)
}

func (s *Shell) GuidePresets() []core.GuidePreset {
	return append([]core.GuidePreset(nil), s.guidePresets...)
}

// SaveGridPreset stores the current grid configuration under a new id.
func (s *Shell) SaveGridPreset(ctx context.Context, name string) (core.GridPreset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.GridPreset{}, fmt.Errorf("%w: preset name is empty", ErrInvalidConfig)
	}
	p := core.GridPreset{ID: ulid.Make().String(), Name: name, Config: s.grid}
	s.gridPresets = append(s.gridPresets, p)
	s.persist(ctx, keyGridPresets, customGridPresets(s.gridPresets))

	logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "preset_id": p.ID}).Info("Grid preset saved")
	s.notify(NoticeSuccess, "Grid preset saved", name)
	return p, nil
}

// ApplyGridPreset makes the preset's configuration the current grid.
func (s *Shell) ApplyGridPreset(ctx context.Context, id string) error {
	for _, p := range s.gridPresets {
		if p.ID == id {
			s.grid = p.Config
			s.persist(ctx, keyGrid, s.grid)
			s.notify(NoticeSuccess, "Grid preset applied", p.Name)
			return nil
		}
	}
	logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "preset_id": id}).Warn("Grid preset not found")
	s.notify(NoticeError, "Grid preset not found", id)
	return fmt.Errorf("%w: %s", ErrPresetNotFound, id)
}

func (s *Shell) DeleteGridPreset(ctx context.Context, id string) error {
	for i, p := range s.gridPresets {
		if p.ID != id {
			continue
		}
		if p.System {
			return fmt.Errorf("%w: %s", ErrSystemPreset, id)
		}
		s.gridPresets = append(s.gridPresets[:i:i], s.gridPresets[i+1:]...)
		s.persist(ctx, keyGridPresets, customGridPresets(s.gridPresets))
		logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "preset_id": id}).Info("Grid preset deleted")
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPresetNotFound, id)
}

// SaveGuidePreset stores the current guide configuration under a new id.
func (s *Shell) SaveGuidePreset(ctx context.Context, name string) (core.GuidePreset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.GuidePreset{}, fmt.Errorf("%w: preset name is empty", ErrInvalidConfig)
	}
	p := core.GuidePreset{ID: ulid.Make().String(), Name: name, Config: s.guides}
	s.guidePresets = append(s.guidePresets, p)
	s.persist(ctx, keyGuidePresets, customGuidePresets(s.guidePresets))

	logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "preset_id": p.ID}).Info("Guide preset saved")
	s.notify(NoticeSuccess, "Guide preset saved", name)
	return p, nil
}

func (s *Shell) ApplyGuidePreset(ctx context.Context, id string) error {
	for _, p := range s.guidePresets {
		if p.ID == id {
			s.guides = p.Config
			s.persist(ctx, keyGuides, s.guides)
			s.notify(NoticeSuccess, "Guide preset applied", p.Name)
			return nil
		}
	}
	logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "preset_id": id}).Warn("Guide preset not found")
	s.notify(NoticeError, "Guide preset not found", id)
	return fmt.Errorf("%w: %s", ErrPresetNotFound, id)
}

func (s *Shell) DeleteGuidePreset(ctx context.Context, id string) error {
	for i, p := range s.guidePresets {
		if p.ID != id {
			continue
		}
		if p.System {
			return fmt.Errorf("%w: %s", ErrSystemPreset, id)
		}
		s.guidePresets = append(s.guidePresets[:i:i], s.guidePresets[i+1:]...)
		s.persist(ctx, keyGuidePresets, customGuidePresets(s.guidePresets))
		logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "preset_id": id}).Info("Guide preset deleted")
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPresetNotFound, id)
}

func gridID(p core.GridPreset) string     { return p.ID }
func gridSystem(p core.GridPreset) bool   { return p.System }
func guideID(p core.GuidePreset) string   { return p.ID }
func guideSystem(p core.GuidePreset) bool { return p.System }

func customGridPresets(all []core.GridPreset) []core.GridPreset {
	return customPresets(all, gridSystem)
}

func customGuidePresets(all []core.GuidePreset) []core.GuidePreset {
	return customPresets(all, guideSystem)
}

func mergeGridPresets(current, incoming []core.GridPreset) []core.GridPreset {
	return mergePresets(current, incoming, gridID, gridSystem)
}

func mergeGuidePresets(current, incoming []core.GuidePreset) []core.GuidePreset {
	return mergePresets(current, incoming, guideID, guideSystem)
}

// customPresets drops system presets; only custom ones are stored.
func customPresets[P any](all []P, system func(P) bool) []P {
	out := []P{}
	for _, p := range all {
		if !system(p) {
			out = append(out, p)
		}
	}
	return out
}

// mergePresets keeps every preset of current and merges the custom presets
// of incoming by id, incoming winning. Incoming entries that claim to be
// system presets or reuse a system id are dropped.
func mergePresets[P any](current, incoming []P, id func(P) string, system func(P) bool) []P {
	out := append([]P(nil), current...)
	index := make(map[string]int, len(out))
	protected := make(map[string]bool)
	for i, p := range out {
		index[id(p)] = i
		if system(p) {
			protected[id(p)] = true
		}
	}
	for _, p := range incoming {
		pid := id(p)
		if pid == "" || system(p) || protected[pid] {
			continue
		}
		if i, ok := index[pid]; ok {
			out[i] = p
			continue
		}
		index[pid] = len(out)
		out = append(out, p)
	}
	return out
}
