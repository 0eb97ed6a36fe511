package shell

import (
	"context"
	"fmt"

	"wireframe-canvas/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

func (s *Shell) PersistentGuides() []core.PersistentGuide {
	return append([]core.PersistentGuide(nil), s.persistentGuides...)
}

// AddPersistentGuide places a ruler line and persists the guide list.
func (s *Shell) AddPersistentGuide(ctx context.Context, orientation core.Orientation, position float64) (core.PersistentGuide, error) {
	if orientation != core.Horizontal && orientation != core.Vertical {
		return core.PersistentGuide{}, fmt.Errorf("%w: %q", ErrInvalidOrientation, orientation)
	}
	g := core.PersistentGuide{
		ID:          ulid.Make().String(),
		Orientation: orientation,
		Position:    position,
		Persistent:  true,
	}
	s.persistentGuides = append(s.persistentGuides, g)
	s.persist(ctx, keyPersistentGuides, s.persistentGuides)

	logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "guide_id": g.ID, "orientation": orientation}).Debug("Persistent guide added")
	return g, nil
}

func (s *Shell) RemovePersistentGuide(ctx context.Context, id string) error {
	for i, g := range s.persistentGuides {
		if g.ID == id {
			s.persistentGuides = append(s.persistentGuides[:i:i], s.persistentGuides[i+1:]...)
			s.persist(ctx, keyPersistentGuides, s.persistentGuides)
			logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "guide_id": id}).Debug("Persistent guide removed")
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrGuideNotFound, id)
}
