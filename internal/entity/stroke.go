package entity

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/geom"
	"github.com/inamate/sketchplane/internal/typeid"
)

// Fitter converts a sampled polyline into cubic Bézier control points. The
// result length must be a multiple of 4.
type Fitter interface {
	Fit(path []mgl64.Vec3, tolerance float64) ([]mgl64.Vec3, error)
}

// Stroke is a polyline or curve drawn on exactly one canvas. Points are local
// to the owning canvas and always have z == 0.
type Stroke struct {
	id        string
	name      string
	points    []mgl64.Vec3
	colors    []mgl64.Vec4
	color     mgl64.Vec4
	curved    bool
	selected  bool
	canvas    *Canvas
	destroyed bool
}

// NewStroke creates an empty stroke. An empty id generates a fresh one.
func NewStroke(id string) *Stroke {
	if id == "" {
		id = typeid.NewStrokeID()
	}
	return &Stroke{
		id:    id,
		name:  "Stroke",
		color: StrokeColorNormal,
	}
}

func (s *Stroke) ID() string      { return s.id }
func (s *Stroke) Name() string    { return s.name }
func (s *Stroke) Kind() Kind      { return KindStroke }
func (s *Stroke) Canvas() *Canvas { return s.canvas }

func (s *Stroke) Alive() bool {
	return s != nil && !s.destroyed
}

func (s *Stroke) setCanvas(c *Canvas) { s.canvas = c }
func (s *Stroke) destroy()             { s.destroyed = true }

// AppendPoint adds a local point painted with the stroke color.
func (s *Stroke) AppendPoint(u, v float64) {
	s.points = append(s.points, mgl64.Vec3{u, v, 0})
	s.colors = append(s.colors, s.color)
}

func (s *Stroke) NumPoints() int {
	return len(s.points)
}

// Point returns the i-th point, or false when i is out of range.
func (s *Stroke) Point(i int) (mgl64.Vec2, bool) {
	if i < 0 || i >= len(s.points) {
		slog.Warn("stroke point index out of range", "stroke", s.id, "index", i, "size", len(s.points))
		return mgl64.Vec2{}, false
	}
	return s.points[i].Vec2(), true
}

// Vertices returns a copy of the local vertex array.
func (s *Stroke) Vertices() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(s.points))
	copy(out, s.points)
	return out
}

// ReplaceVertices swaps the vertex array, resizing the color array to match.
// New trailing vertices take the stroke color.
func (s *Stroke) ReplaceVertices(vertices []mgl64.Vec3) {
	s.points = make([]mgl64.Vec3, len(vertices))
	copy(s.points, vertices)
	s.resizeColors()
}

func (s *Stroke) resizeColors() {
	n := len(s.points)
	if len(s.colors) > n {
		s.colors = s.colors[:n]
		return
	}
	for len(s.colors) < n {
		s.colors = append(s.colors, s.color)
	}
}

// Colors returns a copy of the per-vertex colors.
func (s *Stroke) Colors() []mgl64.Vec4 {
	out := make([]mgl64.Vec4, len(s.colors))
	copy(out, s.colors)
	return out
}

func (s *Stroke) Color() mgl64.Vec4 {
	return s.color
}

// SetColor repaints every vertex.
func (s *Stroke) SetColor(c mgl64.Vec4) {
	s.color = c
	for i := range s.colors {
		s.colors[i] = c
	}
}

func (s *Stroke) IsCurved() bool        { return s.curved }
func (s *Stroke) SetCurved(curved bool) { s.curved = curved }
func (s *Stroke) Selected() bool        { return s.selected }
func (s *Stroke) SetSelected(sel bool)  { s.selected = sel }

// MoveDelta translates every point by (du, dv).
func (s *Stroke) MoveDelta(du, dv float64) {
	s.apply(geom.Translate(du, dv))
}

// Scale scales every point uniformly about center.
func (s *Stroke) Scale(factor float64, center mgl64.Vec2) {
	s.ScaleXY(factor, factor, center)
}

// ScaleXY scales every point about center with independent factors.
func (s *Stroke) ScaleXY(sx, sy float64, center mgl64.Vec2) {
	s.apply(geom.About(geom.Scale(sx, sy), center.X(), center.Y()))
}

// Rotate rotates every point by theta radians about center.
func (s *Stroke) Rotate(theta float64, center mgl64.Vec2) {
	s.apply(geom.About(geom.Rotate(theta), center.X(), center.Y()))
}

func (s *Stroke) apply(m geom.Affine2D) {
	for i, p := range s.points {
		x, y := m.TransformPoint(p.X(), p.Y())
		s.points[i] = mgl64.Vec3{x, y, 0}
	}
}

// Bounds returns the local bounding box of the stroke.
func (s *Stroke) Bounds() geom.Rect {
	xs := make([]float64, len(s.points))
	ys := make([]float64, len(s.points))
	for i, p := range s.points {
		xs[i], ys[i] = p.X(), p.Y()
	}
	return geom.BoundsOf(xs, ys)
}

// Length is the larger extent of the bounding box.
func (s *Stroke) Length() float64 {
	b := s.Bounds()
	return math.Max(b.Width, b.Height)
}

func (s *Stroke) IsLengthy() bool {
	return s.Length() > StrokeMinLength
}

// CopyFrom fills an empty stroke with the points of src.
func (s *Stroke) CopyFrom(src *Stroke) error {
	if src == nil {
		return fmt.Errorf("%w: copy source is nil", ErrNotFound)
	}
	if len(s.points) != 0 || len(src.points) == 0 {
		return fmt.Errorf("%w: copy requires an empty receiver and a non-empty source", ErrInvalidCurve)
	}
	if src.curved && len(src.points)%4 != 0 {
		return fmt.Errorf("%w: curved stroke has %d points", ErrInvalidCurve, len(src.points))
	}
	for _, p := range src.points {
		s.AppendPoint(p.X(), p.Y())
	}
	s.curved = src.curved
	return nil
}

// Clone returns a detached deep copy with a fresh id.
func (s *Stroke) Clone() *Stroke {
	c := NewStroke("")
	c.name = s.name
	c.color = s.color
	c.curved = s.curved
	c.points = s.Vertices()
	c.colors = s.Colors()
	return c
}

// RedefineToCurve replaces the sampled path with fitted Bézier control points.
// A negative tolerance is derived from the stroke length.
func (s *Stroke) RedefineToCurve(f Fitter, tolerance float64) error {
	if s.curved {
		return nil
	}
	if f == nil {
		return fmt.Errorf("%w: no curve fitter", ErrInvalidCurve)
	}
	if tolerance < 0 {
		tolerance = s.Length() * 0.001
	}

	curves, err := f.Fit(s.Vertices(), tolerance)
	if err != nil {
		return fmt.Errorf("fit stroke %s: %w", s.id, err)
	}
	if len(curves) == 0 || len(curves)%4 != 0 {
		return fmt.Errorf("%w: fitter returned %d points", ErrInvalidCurve, len(curves))
	}

	slog.Debug("stroke redefined to curve", "stroke", s.id, "samples", len(s.points), "points", len(curves))
	s.ReplaceVertices(curves)
	s.curved = true
	return nil
}
