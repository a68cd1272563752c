package command

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/clipboard"
	"github.com/inamate/sketchplane/internal/entity"
	"github.com/inamate/sketchplane/internal/geom"
)

func TestStrokeEdits_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		make func(f *fixture, set []*entity.Stroke) (Command, error)
	}{
		{"move", func(f *fixture, set []*entity.Stroke) (Command, error) {
			return NewStrokesMove(f.scene, set, f.c, 0.3, -0.7)
		}},
		{"scale", func(f *fixture, set []*entity.Stroke) (Command, error) {
			return NewStrokesScale(f.scene, set, f.c, 2.5, mgl64.Vec2{0.5, 0.5})
		}},
		{"rotate", func(f *fixture, set []*entity.Stroke) (Command, error) {
			return NewStrokesRotate(f.scene, set, f.c, 1.2, mgl64.Vec2{-1, 0})
		}},
		{"delete", func(f *fixture, set []*entity.Stroke) (Command, error) {
			return NewStrokeDelete(f.scene, f.c, set[0])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.stroke(t, f.c, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, mgl64.Vec2{1, 1})
			b := f.stroke(t, f.c, mgl64.Vec2{2, 2}, mgl64.Vec2{3, 3})
			f.stroke(t, f.c, mgl64.Vec2{-1, -1}, mgl64.Vec2{-2, -1})

			cmd, err := tt.make(f, []*entity.Stroke{a, b})
			if err != nil {
				t.Fatalf("constructor: %v", err)
			}
			roundTrip(t, f.scene, cmd)
		})
	}
}

func TestStrokesScale_InverseFactor(t *testing.T) {
	f := newFixture(t)
	st := f.stroke(t, f.c, mgl64.Vec2{1, 2}, mgl64.Vec2{3, -1})
	before := st.Vertices()
	center := mgl64.Vec2{0.25, 0.75}

	up, err := NewStrokesScale(f.scene, []*entity.Stroke{st}, f.c, 4, center)
	if err != nil {
		t.Fatalf("NewStrokesScale: %v", err)
	}
	down, err := NewStrokesScale(f.scene, []*entity.Stroke{st}, f.c, 0.25, center)
	if err != nil {
		t.Fatalf("NewStrokesScale: %v", err)
	}
	if _, err := up.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := down.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i, p := range st.Vertices() {
		if p.Sub(before[i]).Len() > tol {
			t.Errorf("point %d = %v, want %v", i, p, before[i])
		}
	}

	for _, s := range []float64{0, math.NaN(), math.Inf(1)} {
		if _, err := NewStrokesScale(f.scene, []*entity.Stroke{st}, f.c, s, center); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("scale %v err = %v, want ErrInvalidArgument", s, err)
		}
	}
}

func TestStrokeDelete_NotOwned(t *testing.T) {
	f := newFixture(t)
	st := f.stroke(t, f.a, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0})

	cmd, err := NewStrokeDelete(f.scene, f.c, st)
	if err != nil {
		t.Fatalf("NewStrokeDelete: %v", err)
	}
	if _, err := cmd.Apply(); !errors.Is(err, entity.ErrOwnership) {
		t.Fatalf("err = %v, want ErrOwnership", err)
	}
	if st.Canvas() != f.a {
		t.Error("failed delete detached the stroke")
	}
}

func TestStrokesPush_Reprojects(t *testing.T) {
	f := newFixture(t)
	f.current(t, f.a)
	st := f.stroke(t, f.a, mgl64.Vec2{1, 0}, mgl64.Vec2{0, -2})
	keep := f.stroke(t, f.a, mgl64.Vec2{5, 5}, mgl64.Vec2{6, 6})
	if err := f.a.SelectStroke(st); err != nil {
		t.Fatalf("SelectStroke: %v", err)
	}
	before := capture(f.scene)

	cmd, err := NewStrokesPush(f.scene, []*entity.Stroke{st}, f.a, f.b, mgl64.Vec3{0, 0, 5})
	if err != nil {
		t.Fatalf("NewStrokesPush: %v", err)
	}
	chg, err := cmd.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if st.Canvas() != f.b || keep.Canvas() != f.a {
		t.Fatalf("owners after push = %v/%v", st.Canvas().Name(), keep.Canvas().Name())
	}
	want := []mgl64.Vec3{{1.2, 0, 0}, {0, -2.4, 0}}
	for i, p := range st.Vertices() {
		if p.Sub(want[i]).Len() > tol {
			t.Errorf("point %d = %v, want %v", i, p, want[i])
		}
	}
	if len(f.a.SelectedStrokes()) != 0 {
		t.Error("source selection not cleared")
	}
	if len(chg.Canvases) != 2 {
		t.Errorf("change canvases = %v, want source and target", chg.Canvases)
	}

	if _, err := cmd.Revert(); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	assertSameState(t, capture(f.scene), before)
}

func TestStrokesPush_TiltedRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.current(t, f.a)
	f.stroke(t, f.a, mgl64.Vec2{0.2, 0.1}, mgl64.Vec2{-0.3, 0.4})
	f.stroke(t, f.a, mgl64.Vec2{0.5, -0.5}, mgl64.Vec2{0.6, -0.4}, mgl64.Vec2{0.7, -0.2})

	// c is rotated a quarter turn; an eye in front of both still hits it.
	cmd, err := NewStrokesPush(f.scene, f.a.Strokes(), f.a, f.c, mgl64.Vec3{3, 0, 4})
	if err != nil {
		t.Fatalf("NewStrokesPush: %v", err)
	}
	roundTrip(t, f.scene, cmd)
}

func TestStrokesPush_DegenerateLeavesSceneUntouched(t *testing.T) {
	f := newFixture(t)
	f.current(t, f.a)
	ok := f.stroke(t, f.a, mgl64.Vec2{0, 1}, mgl64.Vec2{0, 2})
	bad := f.stroke(t, f.a, mgl64.Vec2{1, 0}, mgl64.Vec2{2, 0})
	before := capture(f.scene)

	// An eye inside a's plane sends every ray parallel to b.
	cmd, err := NewStrokesPush(f.scene, []*entity.Stroke{ok, bad}, f.a, f.b, mgl64.Vec3{})
	if err != nil {
		t.Fatalf("NewStrokesPush: %v", err)
	}
	if _, err := cmd.Apply(); !errors.Is(err, geom.ErrRayParallel) {
		t.Fatalf("err = %v, want ErrRayParallel", err)
	}
	assertSameState(t, capture(f.scene), before)
}

func TestStrokesPush_Validation(t *testing.T) {
	f := newFixture(t)
	if _, err := NewStrokesPush(f.scene, nil, f.a, f.a, mgl64.Vec3{0, 0, 5}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("same canvas err = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewStrokesPush(f.scene, nil, f.a, f.b, mgl64.Vec3{math.NaN(), 0, 0}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NaN eye err = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewStrokesPush(f.scene, nil, f.a, nil, mgl64.Vec3{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil target err = %v, want ErrInvalidArgument", err)
	}
}

func TestCutPaste(t *testing.T) {
	f := newFixture(t)
	f.current(t, f.a)
	s1 := f.stroke(t, f.a, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0})
	s2 := f.stroke(t, f.a, mgl64.Vec2{0, 1}, mgl64.Vec2{1, 1})
	if err := f.a.SelectStroke(s1); err != nil {
		t.Fatalf("SelectStroke: %v", err)
	}
	clip := clipboard.New()
	start := capture(f.scene)

	cut, err := NewCut(f.scene, f.a, f.a.SelectedStrokes(), clip)
	if err != nil {
		t.Fatalf("NewCut: %v", err)
	}
	if _, err := cut.Apply(); err != nil {
		t.Fatalf("cut: %v", err)
	}
	if got := f.a.Strokes(); len(got) != 1 || got[0] != s2 {
		t.Fatalf("strokes after cut = %v, want [s2]", got)
	}
	if got := clip.Strokes(); len(got) != 1 || got[0] != s1 {
		t.Fatalf("clipboard = %v, want [s1]", got)
	}

	paste, err := NewPaste(f.scene, f.b, clip.Strokes(), PasteDelta)
	if err != nil {
		t.Fatalf("NewPaste: %v", err)
	}
	if _, err := paste.Apply(); err != nil {
		t.Fatalf("paste: %v", err)
	}
	pasted := paste.Strokes()
	if len(pasted) != 1 || pasted[0] == s1 {
		t.Fatalf("pasted = %v, want one clone", pasted)
	}
	if p, _ := pasted[0].Point(0); p.Sub(mgl64.Vec2{0.2, 0.2}).Len() > tol {
		t.Errorf("pasted point = %v, want (0.2, 0.2)", p)
	}
	if !pasted[0].Selected() || pasted[0].Canvas() != f.b {
		t.Error("pasted stroke not selected on target")
	}
	if s1.Canvas() != nil {
		t.Error("paste attached the clipboard stroke itself")
	}

	if _, err := paste.Revert(); err != nil {
		t.Fatalf("undo paste: %v", err)
	}
	if f.b.NumDrawables() != 0 {
		t.Errorf("target still has %d drawables", f.b.NumDrawables())
	}
	if _, err := cut.Revert(); err != nil {
		t.Fatalf("undo cut: %v", err)
	}
	assertSameState(t, capture(f.scene), start)
	if clip.Len() != 0 {
		t.Errorf("clipboard after undo = %d strokes, want 0", clip.Len())
	}
}

func TestPaste_RestoresTargetSelection(t *testing.T) {
	f := newFixture(t)
	existing := f.stroke(t, f.b, mgl64.Vec2{3, 3})
	if err := f.b.SelectStroke(existing); err != nil {
		t.Fatalf("SelectStroke: %v", err)
	}
	src := entity.NewStroke("")
	src.AppendPoint(0, 0)

	cmd, err := NewPaste(f.scene, f.b, []*entity.Stroke{src, nil}, 1)
	if err != nil {
		t.Fatalf("NewPaste: %v", err)
	}
	if _, err := cmd.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if existing.Selected() {
		t.Error("existing selection kept during paste")
	}
	if _, err := cmd.Revert(); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if !existing.Selected() {
		t.Error("existing selection not restored")
	}
	roundTrip(t, f.scene, cmd)
}

func TestMacro_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	a := f.stroke(t, f.c, mgl64.Vec2{0, 0})
	stray := f.stroke(t, f.a, mgl64.Vec2{0, 0})
	before := capture(f.scene)

	move, err := NewStrokesMove(f.scene, []*entity.Stroke{a}, f.c, 1, 1)
	if err != nil {
		t.Fatalf("NewStrokesMove: %v", err)
	}
	del, err := NewStrokeDelete(f.scene, f.c, stray)
	if err != nil {
		t.Fatalf("NewStrokeDelete: %v", err)
	}
	m, err := NewMacro("move then delete", move, del)
	if err != nil {
		t.Fatalf("NewMacro: %v", err)
	}
	if _, err := m.Apply(); !errors.Is(err, entity.ErrOwnership) {
		t.Fatalf("err = %v, want ErrOwnership", err)
	}
	assertSameState(t, capture(f.scene), before)

	if _, err := NewMacro("bad", move, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil child err = %v, want ErrInvalidArgument", err)
	}
}

func TestMacro_RoundTrip(t *testing.T) {
	f := newFixture(t)
	s1 := f.stroke(t, f.c, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0})
	s2 := f.stroke(t, f.c, mgl64.Vec2{0, 1}, mgl64.Vec2{1, 1})
	f.stroke(t, f.c, mgl64.Vec2{0, 2}, mgl64.Vec2{1, 2})

	d1, err := NewStrokeDelete(f.scene, f.c, s1)
	if err != nil {
		t.Fatalf("NewStrokeDelete: %v", err)
	}
	d2, err := NewStrokeDelete(f.scene, f.c, s2)
	if err != nil {
		t.Fatalf("NewStrokeDelete: %v", err)
	}
	m, err := NewMacro("Delete 2 strokes", d1, d2)
	if err != nil {
		t.Fatalf("NewMacro: %v", err)
	}
	chg, err := m.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if chg.Label != "Delete 2 strokes" || len(chg.Canvases) != 1 {
		t.Errorf("change = %+v", chg)
	}
	if _, err := m.Revert(); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	roundTrip(t, f.scene, m)
}

func TestStrokeEdits_EmptySet(t *testing.T) {
	tests := []struct {
		name string
		make func(f *fixture, set []*entity.Stroke) (Command, error)
	}{
		{"move", func(f *fixture, set []*entity.Stroke) (Command, error) {
			return NewStrokesMove(f.scene, set, f.c, 1, 1)
		}},
		{"scale", func(f *fixture, set []*entity.Stroke) (Command, error) {
			return NewStrokesScale(f.scene, set, f.c, 3, mgl64.Vec2{})
		}},
		{"rotate", func(f *fixture, set []*entity.Stroke) (Command, error) {
			return NewStrokesRotate(f.scene, set, f.c, 0.5, mgl64.Vec2{})
		}},
	}
	for _, tt := range tests {
		for _, set := range [][]*entity.Stroke{nil, {}} {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				f.stroke(t, f.c, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
				before := capture(f.scene)

				cmd, err := tt.make(f, set)
				if err != nil {
					t.Fatalf("constructor: %v", err)
				}
				if _, err := cmd.Apply(); err != nil {
					t.Fatalf("Apply: %v", err)
				}
				assertSameState(t, capture(f.scene), before)
				if _, err := cmd.Revert(); err != nil {
					t.Fatalf("Revert: %v", err)
				}
				roundTrip(t, f.scene, cmd)
			})
		}
	}
}

func TestStrokeCommands_DuplicateStrokes(t *testing.T) {
	t.Run("move applies once", func(t *testing.T) {
		f := newFixture(t)
		st := f.stroke(t, f.c, mgl64.Vec2{0, 0})
		cmd, err := NewStrokesMove(f.scene, []*entity.Stroke{st, st, nil}, f.c, 1, 2)
		if err != nil {
			t.Fatalf("NewStrokesMove: %v", err)
		}
		if _, err := cmd.Apply(); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if p, _ := st.Point(0); p.Sub(mgl64.Vec2{1, 2}).Len() > tol {
			t.Errorf("point = %v, want (1, 2)", p)
		}
		if _, err := cmd.Revert(); err != nil {
			t.Fatalf("Revert: %v", err)
		}
		roundTrip(t, f.scene, cmd)
	})

	t.Run("push", func(t *testing.T) {
		f := newFixture(t)
		f.current(t, f.a)
		st := f.stroke(t, f.a, mgl64.Vec2{1, 0}, mgl64.Vec2{0, -2})
		cmd, err := NewStrokesPush(f.scene, []*entity.Stroke{st, st}, f.a, f.b, mgl64.Vec3{0, 0, 5})
		if err != nil {
			t.Fatalf("NewStrokesPush: %v", err)
		}
		if _, err := cmd.Apply(); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if len(f.a.Drawables()) != 0 || len(f.b.Drawables()) != 1 {
			t.Errorf("drawables a=%d b=%d, want 0 and 1", len(f.a.Drawables()), len(f.b.Drawables()))
		}
		if _, err := cmd.Revert(); err != nil {
			t.Fatalf("Revert: %v", err)
		}
		roundTrip(t, f.scene, cmd)
	})

	t.Run("cut", func(t *testing.T) {
		f := newFixture(t)
		st := f.stroke(t, f.a, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0})
		clip := clipboard.New()
		cmd, err := NewCut(f.scene, f.a, []*entity.Stroke{st, st}, clip)
		if err != nil {
			t.Fatalf("NewCut: %v", err)
		}
		if n := len(cmd.Strokes()); n != 1 {
			t.Fatalf("cut strokes = %d, want 1", n)
		}
		if _, err := cmd.Apply(); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if clip.Len() != 1 || len(f.a.Drawables()) != 0 {
			t.Errorf("clipboard = %d, drawables = %d, want 1 and 0", clip.Len(), len(f.a.Drawables()))
		}
		if _, err := cmd.Revert(); err != nil {
			t.Fatalf("Revert: %v", err)
		}
		if clip.Len() != 0 || st.Canvas() != f.a {
			t.Errorf("after revert clipboard = %d, owner = %v", clip.Len(), st.Canvas())
		}
		roundTrip(t, f.scene, cmd)
	})
}
