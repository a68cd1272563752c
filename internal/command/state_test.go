package command

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/entity"
)

const tol = 1e-6

// sceneState is a comparable capture of everything a command may touch.
type sceneState struct {
	current, previous string
	canvases          []canvasState
}

type canvasState struct {
	id           string
	rotation     mgl64.Quat
	translation  mgl64.Vec3
	texture      entity.Texture
	drawables    []string
	selected     []string
	photoCurrent string
	points       map[string][]mgl64.Vec3
	placements   map[string][6]float64
}

func capture(s *entity.Scene) sceneState {
	st := sceneState{}
	if c := s.Current(); c != nil {
		st.current = c.ID()
	}
	if c := s.Previous(); c != nil {
		st.previous = c.ID()
	}
	for _, c := range s.Canvases() {
		cs := canvasState{
			id:          c.ID(),
			rotation:    c.Rotation(),
			translation: c.Translation(),
			texture:     c.Texture(),
			points:      map[string][]mgl64.Vec3{},
			placements:  map[string][6]float64{},
		}
		if p := c.PhotoCurrent(); p != nil {
			cs.photoCurrent = p.ID()
		}
		for _, d := range c.Drawables() {
			cs.drawables = append(cs.drawables, d.ID())
		}
		for _, str := range c.Strokes() {
			cs.points[str.ID()] = str.Vertices()
			if str.Selected() {
				cs.selected = append(cs.selected, str.ID())
			}
		}
		for _, p := range c.Photos() {
			cs.placements[p.ID()] = [6]float64(p.Placement())
		}
		st.canvases = append(st.canvases, cs)
	}
	return st
}

func assertSameState(t *testing.T, got, want sceneState) {
	t.Helper()
	if got.current != want.current || got.previous != want.previous {
		t.Fatalf("current/previous = %s/%s, want %s/%s", got.current, got.previous, want.current, want.previous)
	}
	if len(got.canvases) != len(want.canvases) {
		t.Fatalf("canvas count = %d, want %d", len(got.canvases), len(want.canvases))
	}
	for i := range want.canvases {
		g, w := got.canvases[i], want.canvases[i]
		if g.id != w.id {
			t.Fatalf("canvas %d = %s, want %s", i, g.id, w.id)
		}
		if !sameRotation(g.rotation, w.rotation) || g.translation.Sub(w.translation).Len() > tol {
			t.Errorf("canvas %s frame = %v %v, want %v %v", w.id, g.rotation, g.translation, w.rotation, w.translation)
		}
		if g.texture != w.texture || g.photoCurrent != w.photoCurrent {
			t.Errorf("canvas %s texture/photo = %q/%q, want %q/%q", w.id, g.texture, g.photoCurrent, w.texture, w.photoCurrent)
		}
		if !sameIDs(g.drawables, w.drawables) {
			t.Errorf("canvas %s drawables = %v, want %v", w.id, g.drawables, w.drawables)
		}
		if !sameIDs(g.selected, w.selected) {
			t.Errorf("canvas %s selection = %v, want %v", w.id, g.selected, w.selected)
		}
		for id, wp := range w.points {
			gp := g.points[id]
			if len(gp) != len(wp) {
				t.Errorf("stroke %s has %d points, want %d", id, len(gp), len(wp))
				continue
			}
			for k := range wp {
				if gp[k].Sub(wp[k]).Len() > tol {
					t.Errorf("stroke %s point %d = %v, want %v", id, k, gp[k], wp[k])
				}
			}
		}
		for id, wm := range w.placements {
			gm := g.placements[id]
			for k := range wm {
				if math.Abs(gm[k]-wm[k]) > tol {
					t.Errorf("photo %s placement = %v, want %v", id, gm, wm)
					break
				}
			}
		}
	}
}

func sameRotation(a, b mgl64.Quat) bool {
	// q and -q describe the same rotation.
	d := math.Abs(a.Dot(b))
	return math.Abs(d-1) < tol
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// roundTrip applies and reverts cmd twice, checking after each revert that
// the scene is back where it started.
func roundTrip(t *testing.T, s *entity.Scene, cmd Command) {
	t.Helper()
	before := capture(s)
	for pass := range 2 {
		if _, err := cmd.Apply(); err != nil {
			t.Fatalf("pass %d apply: %v", pass, err)
		}
		if _, err := cmd.Revert(); err != nil {
			t.Fatalf("pass %d revert: %v", pass, err)
		}
		assertSameState(t, capture(s), before)
	}
}

type fixture struct {
	scene   *entity.Scene
	a, b, c *entity.Canvas
}

// newFixture builds three canvases: a at the origin, b one unit behind it and
// c rotated a quarter turn about Y. Current is c, previous b.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := entity.NewScene("", "fixture")
	f := &fixture{scene: s}
	f.a = s.AddCanvas(entity.CanvasSpec{})
	f.b = s.AddCanvas(entity.CanvasSpec{Translation: mgl64.Vec3{0, 0, -1}})
	f.c = s.AddCanvas(entity.CanvasSpec{
		Rotation:    mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}),
		Translation: mgl64.Vec3{1, 0, 0},
	})
	return f
}

func (f *fixture) stroke(t *testing.T, c *entity.Canvas, pts ...mgl64.Vec2) *entity.Stroke {
	t.Helper()
	st, err := f.scene.AddStroke(c, entity.StrokeSpec{Points: pts})
	if err != nil {
		t.Fatalf("AddStroke: %v", err)
	}
	return st
}

func (f *fixture) photo(t *testing.T, c *entity.Canvas, tex entity.Texture) *entity.Photo {
	t.Helper()
	p, err := f.scene.AddPhoto(c, entity.PhotoSpec{Texture: tex, Center: mgl64.Vec2{0.5, 0.5}})
	if err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	return p
}

func (f *fixture) current(t *testing.T, c *entity.Canvas) {
	t.Helper()
	if err := f.scene.SetCanvasCurrent(c); err != nil {
		t.Fatalf("SetCanvasCurrent: %v", err)
	}
}
