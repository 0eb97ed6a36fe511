package transform

import (
	"fmt"
	"time"

	"wireframe-canvas/canvas"
	"wireframe-canvas/core"
)

// CopyID derives the id of a duplicate: "<original>-copy-<unix-ms>".
func CopyID(original string, stamp int64) string {
	return fmt.Sprintf("%s-copy-%d", original, stamp)
}

// DuplicateObject copies id (and its subtree) offset by DuplicateOffset on
// both axes. The stamp is bumped until no derived id collides.
func DuplicateObject(c *canvas.Canvas, now func() time.Time, id string) (core.CanvasObject, error) {
	if !c.Has(id) {
		return core.CanvasObject{}, fmt.Errorf("%w: %s", canvas.ErrNotFound, id)
	}
	ids := append([]string{id}, c.Descendants(id)...)
	stamp := now().UnixMilli()
	for collides(c, ids, stamp) {
		stamp++
	}
	return c.Duplicate(id, func(original string) string {
		return CopyID(original, stamp)
	}, DuplicateOffset, DuplicateOffset)
}

func collides(c *canvas.Canvas, ids []string, stamp int64) bool {
	for _, id := range ids {
		if c.Has(CopyID(id, stamp)) {
			return true
		}
	}
	return false
}
