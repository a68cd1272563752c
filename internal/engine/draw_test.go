package engine

import (
	"encoding/json"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/entity"
	"github.com/inamate/sketchplane/internal/geom"
)

func TestRender_PainterOrder(t *testing.T) {
	e, front, back := newTestEngine(t)
	line := mustStroke(t, e, front, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0})
	photo, err := e.AddPhoto(front, entity.PhotoSpec{Texture: "tex_p"})
	if err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	curve, err := e.AddStroke(back, entity.StrokeSpec{
		Points: []mgl64.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
		Curved: true,
	})
	if err != nil {
		t.Fatalf("AddStroke: %v", err)
	}
	e.AddStroke(back, entity.StrokeSpec{})

	cmds := e.Render()
	want := []struct{ op, object string }{
		{"canvas", ""},
		{"path", line},
		{"image", photo},
		{"canvas", ""},
		{"path", curve},
	}
	if len(cmds) != len(want) {
		t.Fatalf("got %d commands, want %d: %+v", len(cmds), len(want), cmds)
	}
	for i, w := range want {
		if cmds[i].Op != w.op || cmds[i].ObjectID != w.object {
			t.Errorf("command %d = %s %s, want %s %s", i, cmds[i].Op, cmds[i].ObjectID, w.op, w.object)
		}
	}

	if len(cmds[0].Transform) != 16 || cmds[0].Current {
		t.Errorf("front canvas op = %+v", cmds[0])
	}
	if !cmds[3].Current || cmds[3].Transform[14] != -1 {
		t.Errorf("back canvas op = %+v", cmds[3])
	}
	if got := cmds[1].Path; len(got) != 2 || got[0][0] != "M" || got[1][0] != "L" {
		t.Errorf("line path = %v", got)
	}
	if got := cmds[4].Path; len(got) != 2 || got[1][0] != "C" || len(got[1]) != 7 {
		t.Errorf("curve path = %v", got)
	}
	if cmds[1].Stroke != "rgba(0,0,0,1)" {
		t.Errorf("stroke color = %q", cmds[1].Stroke)
	}
	if !cmds[2].Current || cmds[2].Texture != "tex_p" || len(cmds[2].Transform) != 6 {
		t.Errorf("image op = %+v", cmds[2])
	}
}

func TestRender_SelectionAndVertexColors(t *testing.T) {
	e, _, back := newTestEngine(t)
	id, err := e.AddStroke(back, entity.StrokeSpec{
		Points: []mgl64.Vec2{{0, 0}, {1, 1}},
		Colors: []mgl64.Vec4{{1, 0, 0, 1}, {0, 0, 1, 0.5}},
	})
	if err != nil {
		t.Fatalf("AddStroke: %v", err)
	}

	cmd := e.Render()[len(e.Render())-1]
	if len(cmd.Colors) != 2 || cmd.Colors[0] != "rgba(255,0,0,1)" || cmd.Colors[1] != "rgba(0,0,255,0.5)" {
		t.Errorf("colors = %v", cmd.Colors)
	}

	if err := e.SelectStrokes(back, []string{id}); err != nil {
		t.Fatalf("SelectStrokes: %v", err)
	}
	cmds := e.Render()
	cmd = cmds[len(cmds)-1]
	if cmd.Stroke != rgba(entity.StrokeColorSelected) || cmd.Colors != nil {
		t.Errorf("selected stroke = %q %v", cmd.Stroke, cmd.Colors)
	}
}

func TestDrawCommandsToJSON(t *testing.T) {
	got, err := DrawCommandsToJSON(nil)
	if err != nil || got != "[]" {
		t.Fatalf("nil = %q, %v", got, err)
	}

	e, _, back := newTestEngine(t)
	mustStroke(t, e, back, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	out, err := DrawCommandsToJSON(e.Render())
	if err != nil {
		t.Fatalf("DrawCommandsToJSON: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(decoded) != 3 || decoded[2]["op"] != "path" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestHitTestAndSelectRect(t *testing.T) {
	e, _, back := newTestEngine(t)
	low := mustStroke(t, e, back, mgl64.Vec2{0, 0}, mgl64.Vec2{2, 2})
	high := mustStroke(t, e, back, mgl64.Vec2{1, 1}, mgl64.Vec2{3, 3})
	far := mustStroke(t, e, back, mgl64.Vec2{10, 10}, mgl64.Vec2{11, 11})

	tests := []struct {
		u, v float64
		want string
	}{
		{1.5, 1.5, high},
		{0.5, 0.5, low},
		{10.5, 10.5, far},
		{5, 5, ""},
	}
	for _, tt := range tests {
		got, err := e.HitTest(back, tt.u, tt.v)
		if err != nil {
			t.Fatalf("HitTest: %v", err)
		}
		if got != tt.want {
			t.Errorf("HitTest(%v, %v) = %q, want %q", tt.u, tt.v, got, tt.want)
		}
	}

	ids, err := e.SelectRect("", geom.Rect{X: -1, Y: -1, Width: 2.5, Height: 2.5})
	if err != nil {
		t.Fatalf("SelectRect: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("selected = %v, want low and high", ids)
	}
	b := e.SelectionBounds()
	if b != (geom.Rect{X: 0, Y: 0, Width: 3, Height: 3}) {
		t.Errorf("SelectionBounds = %+v", b)
	}

	// A new rect replaces the selection.
	ids, _ = e.SelectRect("", geom.Rect{X: 9, Y: 9, Width: 1, Height: 1})
	if len(ids) != 1 || ids[0] != far {
		t.Errorf("reselect = %v, want [far]", ids)
	}
}
