package canvas

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// maxKeyLength triggers renormalisation of a sibling set.
const maxKeyLength = 24

// SetOrderKey moves an object among its siblings.
func (c *Canvas) SetOrderKey(id, key string) error {
	if c.disposed {
		return ErrDisposed
	}
	obj, ok := c.objects[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := c.checkKey(obj.ParentID, id, key); err != nil {
		return err
	}
	obj.OrderKey = key

	c.RequestRender()
	c.fire(Event{Type: ObjectModified, ObjectID: id})

	if len(key) > maxKeyLength {
		return c.NormalizeOrder(obj.ParentID)
	}
	return nil
}

// BringToFront gives the object the highest key among its siblings.
func (c *Canvas) BringToFront(id string) error {
	obj, ok := c.objects[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	top := c.topKey(obj.ParentID, id)
	if top == "" || obj.OrderKey > top {
		return nil
	}
	key, err := KeyBetween(top, "")
	if err != nil {
		return err
	}
	return c.SetOrderKey(id, key)
}

// SendToBack gives the object the lowest key among its siblings.
func (c *Canvas) SendToBack(id string) error {
	obj, ok := c.objects[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	bottom := c.bottomKey(obj.ParentID, id)
	if bottom == "" || obj.OrderKey < bottom {
		return nil
	}
	key, err := KeyBetween("", bottom)
	if err != nil {
		return err
	}
	return c.SetOrderKey(id, key)
}

// NormalizeOrder respreads the keys of parentID's children, keeping their
// order, so that keys stay short after many inserts between neighbours.
func (c *Canvas) NormalizeOrder(parentID string) error {
	if c.disposed {
		return ErrDisposed
	}
	kids := c.siblings(parentID)
	keys, err := keysBetween("", "", len(kids))
	if err != nil {
		return err
	}
	for i, obj := range kids {
		obj.OrderKey = keys[i]
	}

	logrus.WithFields(logrus.Fields{"parent_id": parentID, "count": len(kids)}).Debug("Order keys normalized")
	c.RequestRender()
	for _, obj := range kids {
		c.fire(Event{Type: ObjectModified, ObjectID: obj.ID})
	}
	return nil
}

// KeyAbove returns the key of the sibling directly above id, or "".
func (c *Canvas) KeyAbove(id string) string {
	obj, ok := c.objects[id]
	if !ok {
		return ""
	}
	above := ""
	for _, sib := range c.objects {
		if sib.ParentID == obj.ParentID && sib.OrderKey > obj.OrderKey && (above == "" || sib.OrderKey < above) {
			above = sib.OrderKey
		}
	}
	return above
}

// KeyBelow returns the key of the sibling directly below id, or "".
func (c *Canvas) KeyBelow(id string) string {
	obj, ok := c.objects[id]
	if !ok {
		return ""
	}
	below := ""
	for _, sib := range c.objects {
		if sib.ParentID == obj.ParentID && sib.OrderKey < obj.OrderKey && sib.OrderKey > below {
			below = sib.OrderKey
		}
	}
	return below
}
