package core

type GridType string

const (
	GridLines   GridType = "lines"
	GridDots    GridType = "dots"
	GridColumns GridType = "columns"
)

type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

type (
	GridConfig struct {
		Type       GridType `json:"type"`
		Size       float64  `json:"size"`
		Columns    int      `json:"columns"`
		Gutter     float64  `json:"gutter"`
		Margin     float64  `json:"margin"`
		Color      string   `json:"color"`
		Opacity    float64  `json:"opacity"`
		Visible    bool     `json:"visible"`
		SnapToGrid bool     `json:"snapToGrid"`
	}

	GuideConfig struct {
		Enabled       bool    `json:"enabled"`
		SmartGuides   bool    `json:"smartGuides"`
		SnapThreshold float64 `json:"snapThreshold"`
		ShowDistances bool    `json:"showDistances"`
		Color         string  `json:"color"`
	}

	// PersistentGuide is a user-placed ruler line kept across sessions.
	PersistentGuide struct {
		ID          string      `json:"id"`
		Orientation Orientation `json:"orientation"`
		Position    float64     `json:"position"`
		Persistent  bool        `json:"persistent"`
	}

	GridPreset struct {
		ID     string     `json:"id"`
		Name   string     `json:"name"`
		System bool       `json:"system,omitempty"`
		Config GridConfig `json:"config"`
	}

	GuidePreset struct {
		ID     string      `json:"id"`
		Name   string      `json:"name"`
		System bool        `json:"system,omitempty"`
		Config GuideConfig `json:"config"`
	}
)

func DefaultGridConfig() GridConfig {
	return GridConfig{
		Type:       GridLines,
		Size:       20,
		Columns:    12,
		Gutter:     20,
		Margin:     40,
		Color:      "#e5e7eb",
		Opacity:    0.5,
		Visible:    true,
		SnapToGrid: false,
	}
}

func DefaultGuideConfig() GuideConfig {
	return GuideConfig{
		Enabled:       true,
		SmartGuides:   true,
		SnapThreshold: 5,
		ShowDistances: true,
		Color:         "#f43f5e",
	}
}
