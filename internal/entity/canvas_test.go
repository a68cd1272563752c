package entity

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/geom"
)

func TestCanvas_Ownership(t *testing.T) {
	s, cs := newTestScene(t, 2)
	st := addStroke(t, s, cs[0], mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0})

	if err := cs[1].AddDrawable(st); !errors.Is(err, ErrOwnership) {
		t.Fatalf("attach to second canvas err = %v, want ErrOwnership", err)
	}
	if err := cs[1].RemoveDrawable(st); !errors.Is(err, ErrOwnership) {
		t.Fatalf("remove from non-owner err = %v, want ErrOwnership", err)
	}
	if cs[1].NumDrawables() != 0 || cs[0].NumDrawables() != 1 {
		t.Fatalf("drawables = %d/%d, want 1/0", cs[0].NumDrawables(), cs[1].NumDrawables())
	}

	if err := cs[0].RemoveDrawable(st); err != nil {
		t.Fatalf("RemoveDrawable: %v", err)
	}
	if st.Canvas() != nil {
		t.Error("detached stroke still has an owner")
	}
	if err := cs[1].InsertDrawable(st, 5); err != nil {
		t.Fatalf("InsertDrawable: %v", err)
	}
	if !cs[1].Owns(st) || cs[1].IndexOf(st) != 0 {
		t.Errorf("stroke not owned at index 0 of second canvas")
	}
}

func TestCanvas_RemoveCurrentPhotoClears(t *testing.T) {
	s, cs := newTestScene(t, 1)
	p, err := s.AddPhoto(cs[0], PhotoSpec{Texture: "tex"})
	if err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	if cs[0].PhotoCurrent() != p {
		t.Fatal("new photo is not current")
	}
	if err := cs[0].RemoveDrawable(p); err != nil {
		t.Fatalf("RemoveDrawable: %v", err)
	}
	if cs[0].PhotoCurrent() != nil {
		t.Error("photo current not cleared")
	}
	if err := cs[0].SetPhotoCurrent(p); !errors.Is(err, ErrOwnership) {
		t.Errorf("SetPhotoCurrent on detached photo err = %v, want ErrOwnership", err)
	}
}

func TestCanvas_FrameStaysConsistent(t *testing.T) {
	s := NewScene("", "frame")
	c := s.AddCanvas(CanvasSpec{Translation: mgl64.Vec3{1, 2, 3}})

	c.Rotate(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))
	c.Translate(mgl64.Vec3{0, 0, -1})

	if c.Center() != (mgl64.Vec3{1, 2, 2}) {
		t.Errorf("center = %v", c.Center())
	}
	n := c.Normal()
	if n.Sub(mgl64.Vec3{1, 0, 0}).Len() > 1e-12 {
		t.Errorf("normal = %v, want +X", n)
	}
	// Local points land on the canvas plane.
	w := c.LocalToWorld(0.5, -0.25)
	if d := c.Plane().Distance(w); math.Abs(d) > 1e-12 {
		t.Errorf("local point is %v off the plane", d)
	}
}

func TestCanvas_Selection(t *testing.T) {
	s, cs := newTestScene(t, 1)
	a := addStroke(t, s, cs[0], mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b := addStroke(t, s, cs[0], mgl64.Vec2{5, 5}, mgl64.Vec2{6, 6})

	hits := cs[0].StrokesIn(geom.Rect{X: 0.5, Y: 0.5, Width: 1, Height: 1})
	if len(hits) != 1 || hits[0] != a {
		t.Fatalf("StrokesIn = %v, want [a]", hits)
	}

	for _, st := range []*Stroke{a, b} {
		if err := cs[0].SelectStroke(st); err != nil {
			t.Fatalf("SelectStroke: %v", err)
		}
	}
	if got := cs[0].SelectedStrokes(); len(got) != 2 {
		t.Fatalf("selected = %d, want 2", len(got))
	}
	cs[0].UnselectStrokes()
	if got := cs[0].SelectedStrokes(); len(got) != 0 {
		t.Errorf("selected after clear = %d", len(got))
	}
}

func TestCanvas_BatchEditsSkipForeignStrokes(t *testing.T) {
	s, cs := newTestScene(t, 2)
	mine := addStroke(t, s, cs[0], mgl64.Vec2{0, 0})
	theirs := addStroke(t, s, cs[1], mgl64.Vec2{0, 0})

	cs[0].MoveStrokes([]*Stroke{mine, theirs, nil}, 1, 2)

	if p, _ := mine.Point(0); p != (mgl64.Vec2{1, 2}) {
		t.Errorf("owned stroke at %v, want (1, 2)", p)
	}
	if p, _ := theirs.Point(0); p != (mgl64.Vec2{}) {
		t.Errorf("foreign stroke moved to %v", p)
	}
}

func TestCanvas_BatchEditsEmptySet(t *testing.T) {
	s, cs := newTestScene(t, 1)
	st := addStroke(t, s, cs[0], mgl64.Vec2{1, 1}, mgl64.Vec2{2, 3})
	before := st.Vertices()

	for _, set := range [][]*Stroke{nil, {}} {
		cs[0].MoveStrokes(set, 1, 1)
		cs[0].ScaleStrokes(set, 2, mgl64.Vec2{})
		cs[0].RotateStrokes(set, 1, mgl64.Vec2{})
	}
	for i, p := range st.Vertices() {
		if p != before[i] {
			t.Errorf("point %d = %v, want %v", i, p, before[i])
		}
	}
}
