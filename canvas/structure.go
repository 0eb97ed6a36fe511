package canvas

import (
	"fmt"
	"math"

	"wireframe-canvas/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// TranslateDescendants moves the descendants of id by (dx, dy). The object itself is
// left alone; callers move it through Update.
func (c *Canvas) TranslateDescendants(id string, dx, dy float64) error {
	if c.disposed {
		return ErrDisposed
	}
	if _, ok := c.objects[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if dx == 0 && dy == 0 {
		return nil
	}
	for _, did := range c.Descendants(id) {
		obj := c.objects[did]
		obj.Left += dx
		obj.Top += dy
		c.fire(Event{Type: ObjectModified, ObjectID: did})
	}
	c.RequestRender()
	return nil
}

// Duplicate deep-copies an object and its subtree, offset by (dx, dy). The
// copy is placed directly above the original. newID derives each copy's id
// from the original id.
func (c *Canvas) Duplicate(id string, newID func(original string) string, dx, dy float64) (core.CanvasObject, error) {
	if c.disposed {
		return core.CanvasObject{}, ErrDisposed
	}
	src, ok := c.objects[id]
	if !ok {
		return core.CanvasObject{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	key, err := KeyBetween(src.OrderKey, c.KeyAbove(id))
	if err != nil {
		return core.CanvasObject{}, err
	}

	idMap := map[string]string{id: newID(id)}
	subtree := c.Descendants(id)
	for _, did := range subtree {
		idMap[did] = newID(did)
	}
	for orig, nid := range idMap {
		if _, exists := c.objects[nid]; exists {
			return core.CanvasObject{}, fmt.Errorf("%w: %s (copy of %s)", ErrDuplicateID, nid, orig)
		}
	}

	now := c.now()
	copyOf := func(orig *core.CanvasObject) *core.CanvasObject {
		dup := *orig
		dup.ID = idMap[orig.ID]
		dup.Left += dx
		dup.Top += dy
		dup.CreatedAt = now
		if p, ok := idMap[orig.ParentID]; ok {
			dup.ParentID = p
		}
		return &dup
	}

	root := copyOf(src)
	root.OrderKey = key
	added := []*core.CanvasObject{root}
	for _, did := range subtree {
		added = append(added, copyOf(c.objects[did]))
	}
	for _, obj := range added {
		c.objects[obj.ID] = obj
		c.objectCount.Add(1)
	}

	logrus.WithFields(logrus.Fields{"object_id": id, "copy_id": root.ID, "count": len(added)}).Debug("Object duplicated")
	c.RequestRender()
	for _, obj := range added {
		c.fire(Event{Type: ObjectAdded, ObjectID: obj.ID})
	}
	return *root, nil
}

// Group wraps members in a new group object. Members must share a parent;
// the group takes the slot of the topmost member and its geometry is the
// members' bounding box. Repeated ids count once.
func (c *Canvas) Group(group core.CanvasObject, memberIDs []string) (core.CanvasObject, error) {
	if c.disposed {
		return core.CanvasObject{}, ErrDisposed
	}
	if len(memberIDs) == 0 {
		return core.CanvasObject{}, fmt.Errorf("%w: no members", ErrNotFound)
	}

	members := make([]*core.CanvasObject, 0, len(memberIDs))
	seen := make(map[string]bool, len(memberIDs))
	for _, mid := range memberIDs {
		if seen[mid] {
			continue
		}
		seen[mid] = true
		obj, ok := c.objects[mid]
		if !ok {
			return core.CanvasObject{}, fmt.Errorf("%w: %s", ErrNotFound, mid)
		}
		members = append(members, obj)
	}
	parentID := members[0].ParentID
	for _, m := range members[1:] {
		if m.ParentID != parentID {
			return core.CanvasObject{}, ErrMixedParents
		}
	}

	if group.ID == "" {
		group.ID = ulid.Make().String()
	}
	if _, exists := c.objects[group.ID]; exists {
		return core.CanvasObject{}, fmt.Errorf("%w: %s", ErrDuplicateID, group.ID)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	top := ""
	for _, m := range members {
		minX = math.Min(minX, m.Left)
		minY = math.Min(minY, m.Top)
		maxX = math.Max(maxX, m.Left+m.Width)
		maxY = math.Max(maxY, m.Top+m.Height)
		if m.OrderKey > top {
			top = m.OrderKey
		}
	}

	group.Type = core.TypeGroup
	group.ParentID = parentID
	group.OrderKey = top
	group.Left, group.Top = minX, minY
	group.Width, group.Height = maxX-minX, maxY-minY
	group.ScaleX, group.ScaleY = 1, 1
	group.Visible = true
	if group.CreatedAt.IsZero() {
		group.CreatedAt = c.now()
	}

	stored := group
	c.objects[group.ID] = &stored
	c.objectCount.Add(1)
	for _, m := range members {
		m.ParentID = group.ID
	}

	logrus.WithFields(logrus.Fields{"group_id": group.ID, "members": len(members)}).Debug("Objects grouped")
	c.RequestRender()
	c.fire(Event{Type: ObjectAdded, ObjectID: group.ID})
	for _, m := range members {
		c.fire(Event{Type: ObjectModified, ObjectID: m.ID})
	}
	return stored, nil
}

// Ungroup removes a group object and re-slots its children where the group
// was, keeping their relative order. It returns the children's ids.
func (c *Canvas) Ungroup(id string) ([]string, error) {
	if c.disposed {
		return nil, ErrDisposed
	}
	group, ok := c.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if group.Type != core.TypeGroup {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, id)
	}

	kids := c.siblings(id)
	keys, err := keysBetween(c.KeyBelow(id), c.KeyAbove(id), len(kids))
	if err != nil {
		return nil, err
	}
	childIDs := make([]string, len(kids))
	for i, k := range kids {
		k.ParentID = group.ParentID
		k.OrderKey = keys[i]
		childIDs[i] = k.ID
	}
	delete(c.objects, id)
	c.objectCount.Add(-1)
	c.dropFromSelection(id)

	logrus.WithFields(logrus.Fields{"group_id": id, "children": len(childIDs)}).Debug("Group dissolved")
	c.RequestRender()
	for _, cid := range childIDs {
		c.fire(Event{Type: ObjectModified, ObjectID: cid})
	}
	c.fire(Event{Type: ObjectRemoved, ObjectID: id})
	return childIDs, nil
}
