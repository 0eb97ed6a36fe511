package shell

import (
	"context"
	"fmt"

	"wireframe-canvas/core"
)

func (s *Shell) GridConfig() core.GridConfig   { return s.grid }
func (s *Shell) GuideConfig() core.GuideConfig { return s.guides }

// SetGridConfig replaces the grid configuration and persists it.
func (s *Shell) SetGridConfig(ctx context.Context, cfg core.GridConfig) error {
	if err := validateGrid(cfg); err != nil {
		return err
	}
	s.grid = cfg
	s.persist(ctx, keyGrid, s.grid)
	return nil
}

// SetGuideConfig replaces the guide configuration and persists it.
func (s *Shell) SetGuideConfig(ctx context.Context, cfg core.GuideConfig) error {
	if err := validateGuides(cfg); err != nil {
		return err
	}
	s.guides = cfg
	s.persist(ctx, keyGuides, s.guides)
	return nil
}

func (s *Shell) ToggleGridVisibility(ctx context.Context) bool {
	s.grid.Visible = !s.grid.Visible
	s.persist(ctx, keyGrid, s.grid)
	s.notify(NoticeInfo, onOff("Grid", s.grid.Visible, "shown", "hidden"), "")
	return s.grid.Visible
}

func (s *Shell) ToggleSnapToGrid(ctx context.Context) bool {
	s.grid.SnapToGrid = !s.grid.SnapToGrid
	s.persist(ctx, keyGrid, s.grid)
	s.notify(NoticeInfo, onOff("Snap to grid", s.grid.SnapToGrid, "enabled", "disabled"), "")
	return s.grid.SnapToGrid
}

func (s *Shell) ToggleSmartGuides(ctx context.Context) bool {
	s.guides.SmartGuides = !s.guides.SmartGuides
	s.persist(ctx, keyGuides, s.guides)
	s.notify(NoticeInfo, onOff("Smart guides", s.guides.SmartGuides, "enabled", "disabled"), "")
	return s.guides.SmartGuides
}

func onOff(subject string, on bool, yes, no string) string {
	if on {
		return subject + " " + yes
	}
	return subject + " " + no
}

func validateGrid(cfg core.GridConfig) error {
	switch cfg.Type {
	case core.GridLines, core.GridDots, core.GridColumns:
	default:
		return fmt.Errorf("%w: grid type %q", ErrInvalidConfig, cfg.Type)
	}
	if cfg.Size <= 0 {
		return fmt.Errorf("%w: grid size must be positive", ErrInvalidConfig)
	}
	if cfg.Columns < 0 || cfg.Gutter < 0 || cfg.Margin < 0 {
		return fmt.Errorf("%w: column layout must not be negative", ErrInvalidConfig)
	}
	if cfg.Opacity < 0 || cfg.Opacity > 1 {
		return fmt.Errorf("%w: opacity %v outside [0, 1]", ErrInvalidConfig, cfg.Opacity)
	}
	return nil
}

func validateGuides(cfg core.GuideConfig) error {
	if cfg.SnapThreshold < 0 {
		return fmt.Errorf("%w: snap threshold must not be negative", ErrInvalidConfig)
	}
	return nil
}
