package engine

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/command"
	"github.com/inamate/sketchplane/internal/entity"
	"github.com/inamate/sketchplane/internal/geom"
)

// DrawCommand is one operation for a view to execute. A "canvas" op sets the
// 4x4 world transform (column-major) for the ops that follow it; "path" and
// "image" ops are in canvas-local coordinates.
type DrawCommand struct {
	Op        string        `json:"op"` // "canvas", "path", "image"
	CanvasID  string        `json:"canvasId,omitempty"`
	ObjectID  string        `json:"objectId,omitempty"`
	Transform []float64     `json:"transform,omitempty"`
	Path      []PathCommand `json:"path,omitempty"`
	Stroke    string        `json:"stroke,omitempty"`
	Colors    []string      `json:"colors,omitempty"` // per vertex, only when not uniform
	Current   bool          `json:"current,omitempty"`
	Texture   string        `json:"texture,omitempty"`
}

// PathCommand is one path segment in Canvas2D form: ["M", x, y], ["L", x, y]
// or ["C", x1, y1, x2, y2, x, y].
type PathCommand []any

// CompileDrawCommands emits the scene in painter's order: canvases in
// collection order, drawables in canvas order.
func CompileDrawCommands(s *entity.Scene) []DrawCommand {
	var commands []DrawCommand
	for _, c := range s.Canvases() {
		m := c.Transform()
		commands = append(commands, DrawCommand{
			Op:        "canvas",
			CanvasID:  c.ID(),
			Transform: m[:],
			Current:   c == s.Current(),
			Texture:   string(c.Texture()),
		})
		for _, d := range c.Drawables() {
			switch v := d.(type) {
			case *entity.Stroke:
				if v.NumPoints() == 0 {
					continue
				}
				commands = append(commands, strokeCommand(c, v))
			case *entity.Photo:
				commands = append(commands, DrawCommand{
					Op:        "image",
					CanvasID:  c.ID(),
					ObjectID:  v.ID(),
					Transform: v.Placement().ToSlice(),
					Current:   v == c.PhotoCurrent(),
					Texture:   string(v.Texture()),
				})
			}
		}
	}
	return commands
}

func strokeCommand(c *entity.Canvas, s *entity.Stroke) DrawCommand {
	color := s.Color()
	if s.Selected() {
		color = entity.StrokeColorSelected
	}
	cmd := DrawCommand{
		Op:       "path",
		CanvasID: c.ID(),
		ObjectID: s.ID(),
		Path:     strokePath(s),
		Stroke:   rgba(color),
	}
	if !s.Selected() {
		colors := s.Colors()
		for _, col := range colors {
			if col != s.Color() {
				cmd.Colors = make([]string, len(colors))
				for i, col := range colors {
					cmd.Colors[i] = rgba(col)
				}
				break
			}
		}
	}
	return cmd
}

// strokePath turns a polyline into M/L segments and a curved stroke into one
// cubic segment per control group of four points.
func strokePath(s *entity.Stroke) []PathCommand {
	pts := s.Vertices()
	if s.IsCurved() {
		path := make([]PathCommand, 0, len(pts)/4+1)
		for i := 0; i+3 < len(pts); i += 4 {
			p0, p1, p2, p3 := pts[i], pts[i+1], pts[i+2], pts[i+3]
			if i == 0 {
				path = append(path, PathCommand{"M", p0.X(), p0.Y()})
			}
			path = append(path, PathCommand{"C", p1.X(), p1.Y(), p2.X(), p2.Y(), p3.X(), p3.Y()})
		}
		return path
	}
	path := make([]PathCommand, 0, len(pts))
	for i, p := range pts {
		op := "L"
		if i == 0 {
			op = "M"
		}
		path = append(path, PathCommand{op, p.X(), p.Y()})
	}
	return path
}

func rgba(c mgl64.Vec4) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.3g)", channel(c[0]), channel(c[1]), channel(c[2]), c[3])
}

func channel(v float64) int {
	return int(max(0, min(1, v))*255 + 0.5)
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the id of the topmost stroke on c whose bounds contain the
// local point (u, v), or "".
func HitTest(c *entity.Canvas, u, v float64) string {
	drawables := c.Drawables()
	for i := len(drawables) - 1; i >= 0; i-- {
		s, ok := drawables[i].(*entity.Stroke)
		if !ok || s.NumPoints() == 0 {
			continue
		}
		if s.Bounds().Contains(u, v) {
			return s.ID()
		}
	}
	return ""
}

// SelectionBounds returns the combined local bounds of the strokes.
func SelectionBounds(strokes []*entity.Stroke) geom.Rect {
	var xs, ys []float64
	for _, s := range strokes {
		for _, p := range s.Vertices() {
			xs = append(xs, p.X())
			ys = append(ys, p.Y())
		}
	}
	return geom.BoundsOf(xs, ys)
}

// --- Engine queries ---

// Render compiles the whole scene into draw commands.
func (e *Engine) Render() []DrawCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CompileDrawCommands(e.scene)
}

// HitTest finds the topmost stroke under a local point of a canvas.
func (e *Engine) HitTest(canvasID string, u, v float64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return "", err
	}
	return HitTest(c, u, v), nil
}

// SelectRect selects exactly the strokes of a canvas that intersect r and
// returns their ids.
func (e *Engine) SelectRect(canvasID string, r geom.Rect) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return nil, err
	}
	c.UnselectStrokes()
	var ids []string
	for _, s := range c.StrokesIn(r) {
		s.SetSelected(true)
		ids = append(ids, s.ID())
	}
	e.events.Publish(command.Change{Label: "Select strokes", Canvases: []string{c.ID()}})
	return ids, nil
}

// SelectionBounds returns the local bounds of the current canvas selection.
func (e *Engine) SelectionBounds() geom.Rect {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.scene.Current()
	if c == nil {
		return geom.Rect{}
	}
	return SelectionBounds(c.SelectedStrokes())
}
