package transform

import (
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"wireframe-canvas/canvas"
	"wireframe-canvas/core"
	"wireframe-canvas/events"
)

func setupEngine(t *testing.T, objects ...core.CanvasObject) (*Engine, *canvas.Canvas, *[]events.Event) {
	t.Helper()
	c := canvas.New(1280, 800)
	for _, obj := range objects {
		if _, err := c.Add(obj); err != nil {
			t.Fatalf("Add(%s) failed: %v", obj.ID, err)
		}
	}
	bus := events.NewBus()
	published := &[]events.Event{}
	bus.Subscribe(func(e events.Event) { *published = append(*published, e) })
	e := New(c, bus)
	t.Cleanup(e.Close)
	return e, c, published
}

func rect(id string, left, top, width, height float64) core.CanvasObject {
	return core.CanvasObject{ID: id, Type: core.TypeShape, Left: left, Top: top, Width: width, Height: height, Visible: true}
}

func mustObject(t *testing.T, c *canvas.Canvas, id string) core.CanvasObject {
	t.Helper()
	obj, err := c.Object(id)
	if err != nil {
		t.Fatalf("Object(%s) failed: %v", id, err)
	}
	return obj
}

func TestResize_SouthEastExample(t *testing.T) {
	e, c, _ := setupEngine(t, rect("A", 100, 100, 50, 50))

	if err := e.StartResize("A", core.Point{X: 150, Y: 150}, "se"); err != nil {
		t.Fatalf("StartResize() failed: %v", err)
	}
	b, err := e.Resize(core.Point{X: 170, Y: 170})
	if err != nil {
		t.Fatalf("Resize() failed: %v", err)
	}
	if b.Dimensions.Width != 70 || b.Dimensions.Height != 70 {
		t.Errorf("Resize() dimensions = %+v, want 70x70", b.Dimensions)
	}
	if b.Position.X != 100 || b.Position.Y != 100 {
		t.Errorf("Resize() position = %+v, want (100,100)", b.Position)
	}

	obj := mustObject(t, c, "A")
	if obj.Width != 70 || obj.Height != 70 || obj.Left != 100 || obj.Top != 100 {
		t.Errorf("object geometry = %+v", obj)
	}

	before, _ := e.HistoryDepth("A")
	if _, err := e.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	after, _ := e.HistoryDepth("A")
	if after != before+1 {
		t.Errorf("past stack grew from %d to %d, want +1", before, after)
	}
}

func TestResize_FloorAllDirections(t *testing.T) {
	directions := []Direction{"n", "s", "e", "w", "ne", "se", "sw", "nw"}
	deltas := []float64{-10000, -75, -31, 0, 31, 75, 10000}

	for _, dir := range directions {
		for _, d := range deltas {
			b := resizeBounds(rect("A", 100, 100, 50, 50), dir, d, d)
			if b.Dimensions.Width < MinDimension || b.Dimensions.Height < MinDimension {
				t.Errorf("dir=%s delta=%v: dimensions %+v below floor", dir, d, b.Dimensions)
			}
		}
	}
}

func TestResize_WestKeepsRightEdge(t *testing.T) {
	b := resizeBounds(rect("A", 100, 100, 50, 50), "nw", 1000, 1000)
	if b.Dimensions.Width != MinDimension || b.Dimensions.Height != MinDimension {
		t.Fatalf("dimensions = %+v, want floored", b.Dimensions)
	}
	if b.Position.X+b.Dimensions.Width != 150 || b.Position.Y+b.Dimensions.Height != 150 {
		t.Errorf("opposite edges moved: %+v", b)
	}
}

func TestResize_InvalidDirection(t *testing.T) {
	e, _, _ := setupEngine(t, rect("A", 0, 0, 50, 50))
	if err := e.StartResize("A", core.Point{}, "up"); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("StartResize() error = %v, want ErrInvalidDirection", err)
	}
}

func TestRotate(t *testing.T) {
	e, _, _ := setupEngine(t, rect("A", 100, 100, 50, 50))
	// Centre is (125, 125).
	if err := e.StartRotate("A", core.Point{X: 225, Y: 125}); err != nil {
		t.Fatalf("StartRotate() failed: %v", err)
	}

	testCases := []struct {
		pointer core.Point
		want    float64
	}{
		{core.Point{X: 125, Y: 225}, 90},
		{core.Point{X: 25, Y: 125}, 180},
		{core.Point{X: 125, Y: 25}, 270},
		{core.Point{X: 225, Y: 125}, 0},
	}
	for _, tc := range testCases {
		got, err := e.Rotate(tc.pointer)
		if err != nil {
			t.Fatalf("Rotate(%+v) failed: %v", tc.pointer, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Rotate(%+v) = %v, want %v", tc.pointer, got, tc.want)
		}
		if got < 0 || got >= 360 {
			t.Errorf("Rotate(%+v) = %v outside [0, 360)", tc.pointer, got)
		}
	}
}

func TestRotate_AccumulatesFromBaseline(t *testing.T) {
	obj := rect("A", 100, 100, 50, 50)
	obj.Angle = 350
	e, _, _ := setupEngine(t, obj)

	if err := e.StartRotate("A", core.Point{X: 225, Y: 125}); err != nil {
		t.Fatalf("StartRotate() failed: %v", err)
	}
	got, err := e.Rotate(core.Point{X: 125, Y: 225})
	if err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}
	if math.Abs(got-80) > 1e-9 {
		t.Errorf("Rotate() = %v, want 80", got)
	}
}

func TestNormalizeAngle(t *testing.T) {
	testCases := []struct {
		in, want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{-90, 270},
		{725, 5},
		{-720, 0},
		{-1e-17, 0},
	}
	for _, tc := range testCases {
		got := NormalizeAngle(tc.in)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tc.in, got, tc.want)
		}
		if got < 0 || got >= 360 {
			t.Errorf("NormalizeAngle(%v) = %v outside [0, 360)", tc.in, got)
		}
	}
}

func TestSkew(t *testing.T) {
	e, c, _ := setupEngine(t, rect("A", 0, 0, 50, 50))

	if err := e.StartSkew("A", core.Point{X: 10, Y: 10}, AxisX); err != nil {
		t.Fatalf("StartSkew() failed: %v", err)
	}
	got, err := e.Skew(core.Point{X: 60, Y: 500})
	if err != nil {
		t.Fatalf("Skew() failed: %v", err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Skew() = %v, want 0.5", got)
	}
	obj := mustObject(t, c, "A")
	if obj.SkewY != 0 {
		t.Errorf("SkewY changed to %v on an x-axis gesture", obj.SkewY)
	}
}

func TestMove(t *testing.T) {
	e, c, published := setupEngine(t, rect("A", 10, 20, 50, 50))

	if err := e.StartMove("A", core.Point{X: 0, Y: 0}); err != nil {
		t.Fatalf("StartMove() failed: %v", err)
	}
	if _, err := e.Move(core.Point{X: 5, Y: 5}); err != nil {
		t.Fatalf("Move() failed: %v", err)
	}
	pos, err := e.Move(core.Point{X: 30, Y: -10})
	if err != nil {
		t.Fatalf("Move() failed: %v", err)
	}
	if pos.X != 40 || pos.Y != 10 {
		t.Errorf("Move() = %+v, want (40,10)", pos)
	}
	if e.State() != Moving {
		t.Errorf("State() = %s, want moving", e.State())
	}
	if !c.IsSelected("A") {
		t.Error("transformed object is not the active selection")
	}

	if _, err := e.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if e.State() != Idle {
		t.Errorf("State() after Stop = %s, want idle", e.State())
	}
	if len(*published) != 1 {
		t.Fatalf("published %d events, want 1", len(*published))
	}
	ev, ok := (*published)[0].(events.ObjectTransformed)
	if !ok {
		t.Fatalf("published %T, want ObjectTransformed", (*published)[0])
	}
	if ev.ID != "A" || ev.Type != string(KindMove) || ev.Position != (core.Point{X: 40, Y: 10}) {
		t.Errorf("event = %+v", ev)
	}
}

func TestMove_GroupCarriesChildren(t *testing.T) {
	e, c, _ := setupEngine(t, rect("a", 0, 0, 10, 10), rect("b", 20, 20, 10, 10))
	group, err := c.Group(core.CanvasObject{ID: "g"}, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Group() failed: %v", err)
	}

	if err := e.StartMove(group.ID, core.Point{}); err != nil {
		t.Fatalf("StartMove() failed: %v", err)
	}
	if _, err := e.Move(core.Point{X: 5, Y: 5}); err != nil {
		t.Fatalf("Move() failed: %v", err)
	}
	if _, err := e.Move(core.Point{X: 100, Y: 50}); err != nil {
		t.Fatalf("Move() failed: %v", err)
	}
	if _, err := e.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	if b := mustObject(t, c, "b"); b.Left != 120 || b.Top != 70 {
		t.Errorf("child b at (%v,%v), want (120,70)", b.Left, b.Top)
	}

	if _, err := e.UndoObject("g"); err != nil {
		t.Fatalf("UndoObject() failed: %v", err)
	}
	if a := mustObject(t, c, "a"); a.Left != 0 || a.Top != 0 {
		t.Errorf("child a at (%v,%v) after undo, want (0,0)", a.Left, a.Top)
	}
}

func TestUpdateWithoutSession(t *testing.T) {
	e, _, _ := setupEngine(t, rect("A", 0, 0, 50, 50))
	if _, err := e.Move(core.Point{}); !errors.Is(err, ErrNoActiveTransformation) {
		t.Errorf("Move() error = %v, want ErrNoActiveTransformation", err)
	}
	if _, err := e.Stop(); !errors.Is(err, ErrNoActiveTransformation) {
		t.Errorf("Stop() error = %v, want ErrNoActiveTransformation", err)
	}
	if err := e.StartMove("A", core.Point{}); err != nil {
		t.Fatalf("StartMove() failed: %v", err)
	}
	if _, err := e.Rotate(core.Point{}); !errors.Is(err, ErrWrongTransformation) {
		t.Errorf("Rotate() during move error = %v, want ErrWrongTransformation", err)
	}
}

func TestStart_NotFound(t *testing.T) {
	e, _, _ := setupEngine(t)
	if err := e.StartMove("missing", core.Point{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("StartMove() error = %v, want ErrNotFound", err)
	}
	if e.State() != Idle {
		t.Errorf("State() = %s after failed start", e.State())
	}
}

func TestStart_Locked(t *testing.T) {
	obj := rect("A", 0, 0, 50, 50)
	obj.Lock.Movement = true
	e, _, _ := setupEngine(t, obj)

	if err := e.StartMove("A", core.Point{}); !errors.Is(err, ErrLocked) {
		t.Errorf("StartMove() error = %v, want ErrLocked", err)
	}
	if err := e.StartRotate("A", core.Point{X: 1}); err != nil {
		t.Errorf("StartRotate() on movement-locked object failed: %v", err)
	}
}

func TestStart_AbandonsPreviousSession(t *testing.T) {
	e, c, published := setupEngine(t, rect("A", 0, 0, 50, 50), rect("B", 100, 100, 50, 50))

	if err := e.StartMove("A", core.Point{}); err != nil {
		t.Fatalf("StartMove(A) failed: %v", err)
	}
	if _, err := e.Move(core.Point{X: 40, Y: 40}); err != nil {
		t.Fatalf("Move() failed: %v", err)
	}
	if err := e.StartResize("B", core.Point{X: 150, Y: 150}, "se"); err != nil {
		t.Fatalf("StartResize(B) failed: %v", err)
	}

	if a := mustObject(t, c, "A"); a.Left != 0 || a.Top != 0 {
		t.Errorf("abandoned object at (%v,%v), want baseline (0,0)", a.Left, a.Top)
	}
	if past, _ := e.HistoryDepth("A"); past != 0 {
		t.Errorf("abandoned session committed %d entries", past)
	}
	if len(*published) != 0 {
		t.Errorf("abandoned session published %d events", len(*published))
	}
	if e.State() != Resizing || e.ActiveObject() != "B" {
		t.Errorf("state = %s active = %s, want resizing B", e.State(), e.ActiveObject())
	}
}

func TestCancel(t *testing.T) {
	e, c, _ := setupEngine(t, rect("A", 0, 0, 50, 50))
	if err := e.Cancel(); !errors.Is(err, ErrNoActiveTransformation) {
		t.Errorf("Cancel() when idle error = %v", err)
	}
	if err := e.StartSkew("A", core.Point{}, AxisY); err != nil {
		t.Fatalf("StartSkew() failed: %v", err)
	}
	if _, err := e.Skew(core.Point{Y: 100}); err != nil {
		t.Fatalf("Skew() failed: %v", err)
	}
	if err := e.Cancel(); err != nil {
		t.Fatalf("Cancel() failed: %v", err)
	}
	if a := mustObject(t, c, "A"); a.SkewY != 0 {
		t.Errorf("SkewY = %v after cancel, want 0", a.SkewY)
	}
}

func commitMove(t *testing.T, e *Engine, id string, dx, dy float64) {
	t.Helper()
	if err := e.StartMove(id, core.Point{}); err != nil {
		t.Fatalf("StartMove(%s) failed: %v", id, err)
	}
	if _, err := e.Move(core.Point{X: dx, Y: dy}); err != nil {
		t.Fatalf("Move() failed: %v", err)
	}
	if _, err := e.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
}

func TestUndoRedo_RoundTrip(t *testing.T) {
	e, c, _ := setupEngine(t, rect("A", 100, 100, 50, 50))

	if err := e.StartResize("A", core.Point{X: 150, Y: 150}, "nw"); err != nil {
		t.Fatalf("StartResize() failed: %v", err)
	}
	if _, err := e.Resize(core.Point{X: 120, Y: 135}); err != nil {
		t.Fatalf("Resize() failed: %v", err)
	}
	committed, err := e.Stop()
	if err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	post := mustObject(t, c, "A")

	if _, err := e.Undo(); err != nil {
		t.Fatalf("Undo() failed: %v", err)
	}
	if a := mustObject(t, c, "A"); a.Left != 100 || a.Top != 100 || a.Width != 50 || a.Height != 50 {
		t.Errorf("after undo geometry = %+v, want original", a)
	}

	redone, err := e.Redo()
	if err != nil {
		t.Fatalf("Redo() failed: %v", err)
	}
	if got := mustObject(t, c, "A"); got.Left != post.Left || got.Top != post.Top ||
		got.Width != post.Width || got.Height != post.Height || got.Angle != post.Angle {
		t.Errorf("after redo geometry = %+v, want %+v", got, post)
	}
	if *redone.Dimensions != *committed.Dimensions || *redone.Position != *committed.Position {
		t.Errorf("Redo() snapshot %+v differs from committed %+v", redone, committed)
	}
}

func TestUndo_Empty(t *testing.T) {
	e, _, _ := setupEngine(t, rect("A", 0, 0, 50, 50))
	if _, err := e.Undo(); !errors.Is(err, ErrNoActiveObject) {
		t.Errorf("Undo() with no active object error = %v", err)
	}
	if _, err := e.UndoObject("A"); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("UndoObject() error = %v, want ErrNothingToUndo", err)
	}
	if _, err := e.RedoObject("A"); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("RedoObject() error = %v, want ErrNothingToRedo", err)
	}
}

func TestUndo_RejectedDuringSession(t *testing.T) {
	e, _, _ := setupEngine(t, rect("A", 0, 0, 50, 50))
	commitMove(t, e, "A", 10, 10)
	if err := e.StartMove("A", core.Point{}); err != nil {
		t.Fatalf("StartMove() failed: %v", err)
	}
	if _, err := e.Undo(); !errors.Is(err, ErrTransformationInProgress) {
		t.Errorf("Undo() during session error = %v", err)
	}
}

func TestHistory_Cap(t *testing.T) {
	e, c, _ := setupEngine(t, rect("A", 0, 0, 50, 50))
	for i := 0; i < HistoryLimit+5; i++ {
		commitMove(t, e, "A", 1, 0)
	}
	past, _ := e.HistoryDepth("A")
	if past != HistoryLimit {
		t.Errorf("past = %d, want %d", past, HistoryLimit)
	}

	for i := 0; i < HistoryLimit; i++ {
		if _, err := e.UndoObject("A"); err != nil {
			t.Fatalf("undo %d failed: %v", i, err)
		}
	}
	if _, err := e.UndoObject("A"); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("extra undo error = %v", err)
	}
	// The oldest five moves were evicted.
	if a := mustObject(t, c, "A"); a.Left != 5 {
		t.Errorf("A.Left = %v after undoing everything, want 5", a.Left)
	}
}

func TestHistory_RedoInvalidatedByCommit(t *testing.T) {
	e, _, _ := setupEngine(t, rect("A", 0, 0, 50, 50))
	commitMove(t, e, "A", 10, 0)
	commitMove(t, e, "A", 10, 0)
	if _, err := e.Undo(); err != nil {
		t.Fatalf("Undo() failed: %v", err)
	}
	if _, future := e.HistoryDepth("A"); future != 1 {
		t.Fatalf("future = %d, want 1", future)
	}

	commitMove(t, e, "A", 0, 10)

	if _, future := e.HistoryDepth("A"); future != 0 {
		t.Errorf("future = %d after new commit, want 0", future)
	}
}

func TestHistory_KeyedByObject(t *testing.T) {
	e, c, _ := setupEngine(t, rect("A", 0, 0, 50, 50), rect("B", 0, 0, 50, 50))
	commitMove(t, e, "A", 10, 0)
	commitMove(t, e, "B", 0, 10)

	if _, err := e.UndoObject("A"); err != nil {
		t.Fatalf("UndoObject(A) failed: %v", err)
	}
	if a := mustObject(t, c, "A"); a.Left != 0 {
		t.Errorf("A.Left = %v, want 0", a.Left)
	}
	if b := mustObject(t, c, "B"); b.Top != 10 {
		t.Errorf("B.Top = %v, want untouched 10", b.Top)
	}
}

func TestQuickAction_Duplicate(t *testing.T) {
	e, c, published := setupEngine(t, rect("rect-1", 10, 10, 50, 50))
	e.now = func() time.Time { return time.UnixMilli(1700000000000) }

	newID, err := e.ApplyQuickAction("rect-1", Duplicate)
	if err != nil {
		t.Fatalf("ApplyQuickAction(duplicate) failed: %v", err)
	}
	if !regexp.MustCompile(`^rect-1-copy-\d+$`).MatchString(newID) {
		t.Errorf("copy id %q does not match rect-1-copy-<timestamp>", newID)
	}
	dup := mustObject(t, c, newID)
	if dup.Left != 30 || dup.Top != 30 {
		t.Errorf("copy at (%v,%v), want (30,30)", dup.Left, dup.Top)
	}
	if sel := c.ActiveSelection(); len(sel) != 1 || sel[0] != newID {
		t.Errorf("selection = %v, want [%s]", sel, newID)
	}

	again, err := e.ApplyQuickAction("rect-1", Duplicate)
	if err != nil {
		t.Fatalf("second duplicate failed: %v", err)
	}
	if again == newID {
		t.Error("second duplicate in the same millisecond reused the id")
	}

	if len(*published) != 2 {
		t.Fatalf("published %d events, want 2", len(*published))
	}
	ev, ok := (*published)[0].(events.ObjectDuplicated)
	if !ok || ev.OriginalID != "rect-1" || ev.NewID != newID {
		t.Errorf("event = %#v", (*published)[0])
	}
}

func TestQuickAction_Delete(t *testing.T) {
	e, c, published := setupEngine(t, rect("A", 0, 0, 50, 50))
	commitMove(t, e, "A", 5, 5)
	*published = nil

	if _, err := e.ApplyQuickAction("A", Delete); err != nil {
		t.Fatalf("ApplyQuickAction(delete) failed: %v", err)
	}
	if c.Has("A") {
		t.Error("object still on canvas")
	}
	if past, _ := e.HistoryDepth("A"); past != 0 {
		t.Errorf("history of deleted object kept %d entries", past)
	}
	if len(*published) != 1 {
		t.Fatalf("published %d events, want 1", len(*published))
	}
	if ev, ok := (*published)[0].(events.ObjectDeleted); !ok || ev.ID != "A" {
		t.Errorf("event = %#v", (*published)[0])
	}
}

func TestQuickAction_Order(t *testing.T) {
	e, c, _ := setupEngine(t, rect("A", 0, 0, 5, 5), rect("B", 0, 0, 5, 5), rect("C", 0, 0, 5, 5))

	if _, err := e.ApplyQuickAction("A", BringToFront); err != nil {
		t.Fatalf("bring-to-front failed: %v", err)
	}
	if _, err := e.ApplyQuickAction("C", SendToBack); err != nil {
		t.Fatalf("send-to-back failed: %v", err)
	}
	objs := c.Objects()
	got := []string{objs[0].ID, objs[1].ID, objs[2].ID}
	want := []string{"C", "B", "A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("render order = %v, want %v", got, want)
		}
	}

	if _, err := e.ApplyQuickAction("A", "explode"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("unknown action error = %v", err)
	}
}
