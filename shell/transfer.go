package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wireframe-canvas/core"

	"github.com/sirupsen/logrus"
)

// ConfigExport is the portable form of a shell's settings.
type ConfigExport struct {
	Version          int                    `json:"version"`
	ExportedAt       time.Time              `json:"exportedAt"`
	Grid             core.GridConfig        `json:"grid"`
	Guides           core.GuideConfig       `json:"guides"`
	PersistentGuides []core.PersistentGuide `json:"persistentGuides"`
	GridPresets      []core.GridPreset      `json:"gridPresets"`
	GuidePresets     []core.GuidePreset     `json:"guidePresets"`
}

// ImportReport names the sections an import applied and the ones it
// skipped, with the reason.
type ImportReport struct {
	Applied []string          `json:"applied"`
	Skipped map[string]string `json:"skipped,omitempty"`
}

const (
	sectionGrid             = "grid"
	sectionGuides           = "guides"
	sectionPersistentGuides = "persistentGuides"
	sectionGridPresets      = "gridPresets"
	sectionGuidePresets     = "guidePresets"
)

// Export returns the full shell state.
func (s *Shell) Export() ConfigExport {
	guides := s.PersistentGuides()
	if guides == nil {
		guides = []core.PersistentGuide{}
	}
	return ConfigExport{
		Version:          settingsVersion,
		ExportedAt:       s.now().UTC(),
		Grid:             s.grid,
		Guides:           s.guides,
		PersistentGuides: guides,
		GridPresets:      s.GridPresets(),
		GuidePresets:     s.GuidePresets(),
	}
}

// ExportConfig serializes Export as indented JSON.
func (s *Shell) ExportConfig() ([]byte, error) {
	data, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		s.notify(NoticeError, "Export failed", err.Error())
		return nil, err
	}
	s.notify(NoticeSuccess, "Configuration exported", "")
	return data, nil
}

// ImportConfig applies an exported configuration. The input must be a JSON
// object; each recognized section is applied on its own and a missing or
// malformed section is skipped. Grid and guide sections are merged onto the
// current values. System presets are kept and imported custom presets are
// merged in by id.
func (s *Shell) ImportConfig(ctx context.Context, data []byte) (ImportReport, error) {
	var sections map[string]json.RawMessage
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &sections) != nil {
		s.notify(NoticeError, "Import failed", "configuration must be a JSON object")
		return ImportReport{}, fmt.Errorf("%w: configuration must be a JSON object", ErrInvalidConfig)
	}

	report := ImportReport{Applied: []string{}, Skipped: map[string]string{}}
	skip := func(section string, err error) {
		report.Skipped[section] = err.Error()
	}

	if raw, ok := sections[sectionGrid]; ok {
		grid := s.grid
		err := json.Unmarshal(raw, &grid)
		if err == nil {
			err = validateGrid(grid)
		}
		if err != nil {
			skip(sectionGrid, err)
		} else {
			s.grid = grid
			s.persist(ctx, keyGrid, s.grid)
			report.Applied = append(report.Applied, sectionGrid)
		}
	}

	if raw, ok := sections[sectionGuides]; ok {
		guides := s.guides
		err := json.Unmarshal(raw, &guides)
		if err == nil {
			err = validateGuides(guides)
		}
		if err != nil {
			skip(sectionGuides, err)
		} else {
			s.guides = guides
			s.persist(ctx, keyGuides, s.guides)
			report.Applied = append(report.Applied, sectionGuides)
		}
	}

	if raw, ok := sections[sectionPersistentGuides]; ok {
		var guides []core.PersistentGuide
		err := json.Unmarshal(raw, &guides)
		if err == nil {
			err = validatePersistentGuides(guides)
		}
		if err != nil {
			skip(sectionPersistentGuides, err)
		} else {
			for i := range guides {
				guides[i].Persistent = true
			}
			s.persistentGuides = guides
			s.persist(ctx, keyPersistentGuides, s.persistentGuides)
			report.Applied = append(report.Applied, sectionPersistentGuides)
		}
	}

	if raw, ok := sections[sectionGridPresets]; ok {
		var presets []core.GridPreset
		if err := json.Unmarshal(raw, &presets); err != nil {
			skip(sectionGridPresets, err)
		} else {
			s.gridPresets = mergeGridPresets(s.gridPresets, presets)
			s.persist(ctx, keyGridPresets, customGridPresets(s.gridPresets))
			report.Applied = append(report.Applied, sectionGridPresets)
		}
	}

	if raw, ok := sections[sectionGuidePresets]; ok {
		var presets []core.GuidePreset
		if err := json.Unmarshal(raw, &presets); err != nil {
			skip(sectionGuidePresets, err)
		} else {
			s.guidePresets = mergeGuidePresets(s.guidePresets, presets)
			s.persist(ctx, keyGuidePresets, customGuidePresets(s.guidePresets))
			report.Applied = append(report.Applied, sectionGuidePresets)
		}
	}

	logrus.WithFields(logrus.Fields{
		"scope":   s.opts.Scope,
		"applied": report.Applied,
		"skipped": len(report.Skipped),
	}).Info("Configuration imported")
	if len(report.Skipped) > 0 {
		s.notify(NoticeWarning, "Configuration partially imported", fmt.Sprintf("%d section(s) skipped", len(report.Skipped)))
	} else {
		s.notify(NoticeSuccess, "Configuration imported", "")
	}
	return report, nil
}

func validatePersistentGuides(guides []core.PersistentGuide) error {
	seen := make(map[string]bool, len(guides))
	for _, g := range guides {
		if g.ID == "" || seen[g.ID] {
			return fmt.Errorf("%w: guide ids must be unique and non-empty", ErrInvalidConfig)
		}
		seen[g.ID] = true
		if g.Orientation != core.Horizontal && g.Orientation != core.Vertical {
			return fmt.Errorf("%w: %q", ErrInvalidOrientation, g.Orientation)
		}
	}
	return nil
}
