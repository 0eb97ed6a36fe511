package shell

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wireframe-canvas/core"

	"github.com/google/go-cmp/cmp"
)

func TestExportImport_RoundTrip(t *testing.T) {
	src, _ := newShell(t, nil)
	ctx := context.Background()
	src.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	grid := core.DefaultGridConfig()
	grid.Type = core.GridColumns
	grid.Columns = 8
	src.SetGridConfig(ctx, grid)
	src.ToggleSmartGuides(ctx)
	src.AddPersistentGuide(ctx, core.Vertical, 64)
	src.SaveGridPreset(ctx, "Tablet")
	src.SaveGuidePreset(ctx, "Loose")

	data, err := src.ExportConfig()
	if err != nil {
		t.Fatalf("ExportConfig() failed: %v", err)
	}
	var exported ConfigExport
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if exported.Version != settingsVersion || !exported.ExportedAt.Equal(src.now()) {
		t.Errorf("export header = %d %v", exported.Version, exported.ExportedAt)
	}

	dst, rec := newShell(t, newMockSettingsStore())
	report, err := dst.ImportConfig(ctx, data)
	if err != nil {
		t.Fatalf("ImportConfig() failed: %v", err)
	}
	wantApplied := []string{sectionGrid, sectionGuides, sectionPersistentGuides, sectionGridPresets, sectionGuidePresets}
	if diff := cmp.Diff(wantApplied, report.Applied); diff != "" {
		t.Errorf("applied sections mismatch (-want +got):\n%s", diff)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("skipped = %v", report.Skipped)
	}
	if rec.last().Level != NoticeSuccess {
		t.Errorf("notice = %+v", rec.last())
	}

	got := dst.Export()
	got.ExportedAt = exported.ExportedAt
	if diff := cmp.Diff(exported, got); diff != "" {
		t.Errorf("imported state differs from export (-want +got):\n%s", diff)
	}
}

func TestImportConfig_RejectsNonObject(t *testing.T) {
	s, rec := newShell(t, nil)
	for _, in := range []string{``, `[]`, `"grid"`, `42`, `{broken`} {
		if _, err := s.ImportConfig(context.Background(), []byte(in)); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ImportConfig(%q) error = %v, want ErrInvalidConfig", in, err)
		}
	}
	if rec.last().Level != NoticeError {
		t.Errorf("notice = %+v", rec.last())
	}
}

func TestImportConfig_PartialSections(t *testing.T) {
	s, rec := newShell(t, nil)
	in := `{
		"grid": {"size": 40},
		"guides": "not an object",
		"persistentGuides": [{"id": "g", "orientation": "sideways", "position": 1}],
		"unknown": true
	}`

	report, err := s.ImportConfig(context.Background(), []byte(in))
	if err != nil {
		t.Fatalf("ImportConfig() failed: %v", err)
	}
	if diff := cmp.Diff([]string{sectionGrid}, report.Applied); diff != "" {
		t.Errorf("applied mismatch (-want +got):\n%s", diff)
	}
	if _, ok := report.Skipped[sectionGuides]; !ok {
		t.Error("guides section not reported as skipped")
	}
	if _, ok := report.Skipped[sectionPersistentGuides]; !ok {
		t.Error("persistentGuides section not reported as skipped")
	}

	want := core.DefaultGridConfig()
	want.Size = 40
	if diff := cmp.Diff(want, s.GridConfig()); diff != "" {
		t.Errorf("grid not merged onto current (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(core.DefaultGuideConfig(), s.GuideConfig()); diff != "" {
		t.Errorf("guides changed by a skipped section (-want +got):\n%s", diff)
	}
	if rec.last().Level != NoticeWarning {
		t.Errorf("notice = %+v", rec.last())
	}
}

func TestImportConfig_PersistentGuidesArePersistent(t *testing.T) {
	s, _ := newShell(t, nil)
	in := `{"persistentGuides": [
		{"id": "g1", "orientation": "horizontal", "position": 120, "persistent": false},
		{"id": "g2", "orientation": "vertical", "position": 64}
	]}`

	if _, err := s.ImportConfig(context.Background(), []byte(in)); err != nil {
		t.Fatalf("ImportConfig() failed: %v", err)
	}
	want := []core.PersistentGuide{
		{ID: "g1", Orientation: core.Horizontal, Position: 120, Persistent: true},
		{ID: "g2", Orientation: core.Vertical, Position: 64, Persistent: true},
	}
	if diff := cmp.Diff(want, s.PersistentGuides()); diff != "" {
		t.Errorf("imported guides mismatch (-want +got):\n%s", diff)
	}
}

func TestImportConfig_PreservesSystemPresets(t *testing.T) {
	s, _ := newShell(t, nil)
	ctx := context.Background()
	existing, _ := s.SaveGridPreset(ctx, "Existing")

	hijack := core.DefaultGridConfig()
	hijack.Size = 999
	in, _ := json.Marshal(map[string]any{
		"gridPresets": []core.GridPreset{
			{ID: "system-default", Name: "Hijacked", Config: hijack},
			{ID: "fake-system", Name: "Fake", System: true, Config: hijack},
			{ID: "custom-1", Name: "Imported", Config: hijack},
		},
	})

	if _, err := s.ImportConfig(ctx, in); err != nil {
		t.Fatalf("ImportConfig() failed: %v", err)
	}

	byID := make(map[string]core.GridPreset)
	for _, p := range s.GridPresets() {
		byID[p.ID] = p
	}
	if p := byID["system-default"]; p.Name != "Default" || !p.System {
		t.Errorf("system preset overwritten: %+v", p)
	}
	if _, ok := byID["fake-system"]; ok {
		t.Error("imported preset claiming System was accepted")
	}
	if _, ok := byID["custom-1"]; !ok {
		t.Error("imported custom preset missing")
	}
	if _, ok := byID[existing.ID]; !ok {
		t.Error("existing custom preset dropped by import")
	}
	if got := len(s.GridPresets()); got != len(SystemGridPresets())+2 {
		t.Errorf("%d grid presets, want %d", got, len(SystemGridPresets())+2)
	}
}

func TestImportConfig_MissingSectionsSkippedSilently(t *testing.T) {
	s, _ := newShell(t, nil)
	report, err := s.ImportConfig(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("ImportConfig({}) failed: %v", err)
	}
	if len(report.Applied) != 0 || len(report.Skipped) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}
