package core

import "time"

// ObjectType is the kind of a canvas object.
type ObjectType string

const (
	TypeShape    ObjectType = "shape"
	TypeText     ObjectType = "text"
	TypeImage    ObjectType = "image"
	TypeGroup    ObjectType = "group"
	TypeGridLine ObjectType = "grid-line"
	TypeGuide    ObjectType = "guide"
)

// IsUtility reports whether objects of this type are editor furniture
// (grid lines, guides) rather than user content.
func (t ObjectType) IsUtility() bool {
	return t == TypeGridLine || t == TypeGuide
}

type (
	Point struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	Size struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	Skew struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// LockFlags restrict which transformations an object accepts.
	LockFlags struct {
		Movement bool `json:"movement,omitempty"`
		Scaling  bool `json:"scaling,omitempty"`
		Rotation bool `json:"rotation,omitempty"`
		Skewing  bool `json:"skewing,omitempty"`
	}

	// ObjectMeta is the typed replacement for a free-form metadata bag.
	ObjectMeta struct {
		Fill   string `json:"fill,omitempty"`
		Stroke string `json:"stroke,omitempty"`
		Text   string `json:"text,omitempty"`
		Source string `json:"source,omitempty"`
	}

	// CanvasObject is one drawable entity on a canvas. OrderKey orders an
	// object among its siblings; higher keys render on top.
	CanvasObject struct {
		ID        string     `json:"id"`
		Type      ObjectType `json:"type"`
		Name      string     `json:"name,omitempty"`
		Left      float64    `json:"left"`
		Top       float64    `json:"top"`
		Width     float64    `json:"width"`
		Height    float64    `json:"height"`
		ScaleX    float64    `json:"scaleX"`
		ScaleY    float64    `json:"scaleY"`
		Angle     float64    `json:"angle"`
		SkewX     float64    `json:"skewX"`
		SkewY     float64    `json:"skewY"`
		Visible   bool       `json:"visible"`
		Lock      LockFlags  `json:"lock"`
		OrderKey  string     `json:"orderKey"`
		ParentID  string     `json:"parentId,omitempty"`
		Meta      ObjectMeta `json:"meta"`
		CreatedAt time.Time  `json:"createdAt"`
	}
)

// Locked reports whether every lock flag is set.
func (o *CanvasObject) Locked() bool {
	return o.Lock.Movement && o.Lock.Scaling && o.Lock.Rotation && o.Lock.Skewing
}

// SetLocked sets or clears every lock flag.
func (o *CanvasObject) SetLocked(locked bool) {
	o.Lock = LockFlags{Movement: locked, Scaling: locked, Rotation: locked, Skewing: locked}
}

func (o *CanvasObject) Position() Point { return Point{X: o.Left, Y: o.Top} }

func (o *CanvasObject) Dimensions() Size { return Size{Width: o.Width, Height: o.Height} }

// Center returns the centre of the unrotated bounding box.
func (o *CanvasObject) Center() Point {
	return Point{X: o.Left + o.Width/2, Y: o.Top + o.Height/2}
}

// Snapshot captures the full geometry of the object.
func (o *CanvasObject) Snapshot() TransformationSnapshot {
	pos := o.Position()
	dim := o.Dimensions()
	angle := o.Angle
	skew := Skew{X: o.SkewX, Y: o.SkewY}
	return TransformationSnapshot{Position: &pos, Dimensions: &dim, Rotation: &angle, Skew: &skew}
}

// Apply writes every part present in the snapshot onto the object.
func (o *CanvasObject) Apply(s TransformationSnapshot) {
	if s.Position != nil {
		o.Left, o.Top = s.Position.X, s.Position.Y
	}
	if s.Dimensions != nil {
		o.Width, o.Height = s.Dimensions.Width, s.Dimensions.Height
	}
	if s.Rotation != nil {
		o.Angle = *s.Rotation
	}
	if s.Skew != nil {
		o.SkewX, o.SkewY = s.Skew.X, s.Skew.Y
	}
}

// TransformationSnapshot is a partial record of an object's geometry.
type TransformationSnapshot struct {
	Position   *Point   `json:"position,omitempty"`
	Dimensions *Size    `json:"dimensions,omitempty"`
	Rotation   *float64 `json:"rotation,omitempty"`
	Skew       *Skew    `json:"skew,omitempty"`
}

// LayerItem is the tree projection of a canvas object. It is always derived
// from the canvas and never persisted.
type LayerItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     ObjectType  `json:"type"`
	Visible  bool        `json:"visible"`
	Locked   bool        `json:"locked"`
	Selected bool        `json:"selected"`
	Expanded bool        `json:"expanded"`
	ZIndex   int         `json:"zIndex"`
	OrderKey string      `json:"orderKey"`
	IsGroup  bool        `json:"isGroup"`
	Children []LayerItem `json:"children,omitempty"`
}
