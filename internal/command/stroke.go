package command

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/entity"
	"github.com/inamate/sketchplane/internal/geom"
)

// StrokeDelete detaches a stroke from its canvas and owns it until reverted.
type StrokeDelete struct {
	sceneRef
	canvas entity.Ref[*entity.Canvas]
	stroke *entity.Stroke
	index  int
}

func NewStrokeDelete(scene *entity.Scene, canvas *entity.Canvas, stroke *entity.Stroke) (*StrokeDelete, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return nil, err
	}
	if !canvas.Alive() {
		return nil, invalid("canvas is nil or destroyed")
	}
	if !stroke.Alive() {
		return nil, invalid("stroke is nil or destroyed")
	}
	ref.label = fmt.Sprintf("Delete stroke from %s", canvas.Name())
	return &StrokeDelete{sceneRef: ref, canvas: entity.Observe(canvas), stroke: stroke, index: -1}, nil
}

func (c *StrokeDelete) Apply() (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	idx := cnv.IndexOf(c.stroke)
	if err := cnv.RemoveDrawable(c.stroke); err != nil {
		return Change{}, err
	}
	c.index = idx
	return touched(c.label, cnv), nil
}

func (c *StrokeDelete) Revert() (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	if err := cnv.InsertDrawable(c.stroke, c.index); err != nil {
		return Change{}, err
	}
	return touched(c.label, cnv), nil
}

// strokeSet is a captured set of strokes edited in place within one canvas.
type strokeSet struct {
	sceneRef
	canvas  entity.Ref[*entity.Canvas]
	strokes []*entity.Stroke
}

func observeStrokes(scene *entity.Scene, strokes []*entity.Stroke, canvas *entity.Canvas) (strokeSet, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return strokeSet{}, err
	}
	if !canvas.Alive() {
		return strokeSet{}, invalid("canvas is nil or destroyed")
	}
	return strokeSet{sceneRef: ref, canvas: entity.Observe(canvas), strokes: uniqueStrokes(strokes)}, nil
}

// uniqueStrokes returns strokes without nils and repeats, keeping first
// occurrences in order.
func uniqueStrokes(strokes []*entity.Stroke) []*entity.Stroke {
	seen := make(map[*entity.Stroke]bool, len(strokes))
	out := make([]*entity.Stroke, 0, len(strokes))
	for _, s := range strokes {
		if s == nil || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// StrokesMove translates a set of strokes within their canvas.
type StrokesMove struct {
	strokeSet
	du, dv float64
}

func NewStrokesMove(scene *entity.Scene, strokes []*entity.Stroke, canvas *entity.Canvas, du, dv float64) (*StrokesMove, error) {
	set, err := observeStrokes(scene, strokes, canvas)
	if err != nil {
		return nil, err
	}
	set.label = fmt.Sprintf("Move strokes within %s", canvas.Name())
	return &StrokesMove{strokeSet: set, du: du, dv: dv}, nil
}

func (c *StrokesMove) Apply() (Change, error)  { return c.move(c.du, c.dv) }
func (c *StrokesMove) Revert() (Change, error) { return c.move(-c.du, -c.dv) }

func (c *StrokesMove) move(du, dv float64) (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	cnv.MoveStrokes(c.strokes, du, dv)
	return touched(c.label, cnv), nil
}

// StrokesScale scales a set of strokes about a local center.
type StrokesScale struct {
	strokeSet
	scale  float64
	center mgl64.Vec2
}

func NewStrokesScale(scene *entity.Scene, strokes []*entity.Stroke, canvas *entity.Canvas, scale float64, center mgl64.Vec2) (*StrokesScale, error) {
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, invalid("stroke scale factor %v", scale)
	}
	set, err := observeStrokes(scene, strokes, canvas)
	if err != nil {
		return nil, err
	}
	set.label = fmt.Sprintf("Scale strokes within %s", canvas.Name())
	return &StrokesScale{strokeSet: set, scale: scale, center: center}, nil
}

func (c *StrokesScale) Apply() (Change, error)  { return c.scaleBy(c.scale) }
func (c *StrokesScale) Revert() (Change, error) { return c.scaleBy(1 / c.scale) }

func (c *StrokesScale) scaleBy(s float64) (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	cnv.ScaleStrokes(c.strokes, s, c.center)
	return touched(c.label, cnv), nil
}

// StrokesRotate rotates a set of strokes about a local center.
type StrokesRotate struct {
	strokeSet
	theta  float64
	center mgl64.Vec2
}

func NewStrokesRotate(scene *entity.Scene, strokes []*entity.Stroke, canvas *entity.Canvas, theta float64, center mgl64.Vec2) (*StrokesRotate, error) {
	set, err := observeStrokes(scene, strokes, canvas)
	if err != nil {
		return nil, err
	}
	set.label = fmt.Sprintf("Rotate strokes within %s", canvas.Name())
	return &StrokesRotate{strokeSet: set, theta: theta, center: center}, nil
}

func (c *StrokesRotate) Apply() (Change, error)  { return c.rotateBy(c.theta) }
func (c *StrokesRotate) Revert() (Change, error) { return c.rotateBy(-c.theta) }

func (c *StrokesRotate) rotateBy(theta float64) (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	cnv.RotateStrokes(c.strokes, theta, c.center)
	return touched(c.label, cnv), nil
}

// StrokesPush moves strokes to another canvas, reprojecting every point along
// the ray from eye so the strokes keep their on-screen position.
type StrokesPush struct {
	sceneRef
	source  entity.Ref[*entity.Canvas]
	target  entity.Ref[*entity.Canvas]
	strokes []*entity.Stroke
	eye     mgl64.Vec3

	indices  []int
	selected []*entity.Stroke
}

func NewStrokesPush(scene *entity.Scene, strokes []*entity.Stroke, source, target *entity.Canvas, eye mgl64.Vec3) (*StrokesPush, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return nil, err
	}
	if !source.Alive() || !target.Alive() {
		return nil, invalid("push needs live source and target canvases")
	}
	if source == target {
		return nil, invalid("push source and target are the same canvas %s", source.Name())
	}
	if !geom.Finite(eye) {
		return nil, invalid("eye position %v", eye)
	}
	set := uniqueStrokes(strokes)
	ref.label = fmt.Sprintf("Push set of strokes from %s to %s", source.Name(), target.Name())
	return &StrokesPush{
		sceneRef: ref,
		source:   entity.Observe(source),
		target:   entity.Observe(target),
		strokes:  set,
		eye:      eye,
	}, nil
}

func (c *StrokesPush) live() (*entity.Canvas, *entity.Canvas, error) {
	src, err := c.liveCanvas(c.source)
	if err != nil {
		return nil, nil, err
	}
	dst, err := c.liveCanvas(c.target)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

func (c *StrokesPush) Apply() (Change, error) {
	src, dst, err := c.live()
	if err != nil {
		return Change{}, err
	}
	moved, err := reprojectAll(c.strokes, src, dst, c.eye)
	if err != nil {
		return Change{}, err
	}

	c.selected = src.SelectedStrokes()
	src.UnselectStrokes()

	c.indices = detachAll(src, c.strokes)
	for i, s := range c.strokes {
		s.ReplaceVertices(moved[i])
		if err := dst.AddDrawable(s); err != nil {
			return Change{}, err
		}
	}
	return touched(c.label, src, dst), nil
}

func (c *StrokesPush) Revert() (Change, error) {
	src, dst, err := c.live()
	if err != nil {
		return Change{}, err
	}
	moved, err := reprojectAll(c.strokes, dst, src, c.eye)
	if err != nil {
		return Change{}, err
	}

	detachAll(dst, c.strokes)
	for i, s := range c.strokes {
		s.ReplaceVertices(moved[i])
	}
	if err := reattachAll(src, c.strokes, c.indices); err != nil {
		return Change{}, err
	}
	for _, s := range c.selected {
		if src.Owns(s) {
			s.SetSelected(true)
		}
	}
	return touched(c.label, src, dst), nil
}

// reprojectAll computes the new vertices of every stroke before anything is
// mutated, so a degenerate ray aborts the whole push.
func reprojectAll(strokes []*entity.Stroke, src, dst *entity.Canvas, eye mgl64.Vec3) ([][]mgl64.Vec3, error) {
	out := make([][]mgl64.Vec3, len(strokes))
	for i, s := range strokes {
		if !src.Owns(s) {
			return nil, fmt.Errorf("%w: stroke %s is not on %s", entity.ErrOwnership, s.ID(), src.Name())
		}
		pts, err := geom.Reproject(s.Vertices(), src, dst, eye)
		if err != nil {
			return nil, fmt.Errorf("push stroke %s from %s to %s: %w", s.ID(), src.Name(), dst.Name(), err)
		}
		out[i] = pts
	}
	return out, nil
}

// detachAll removes each stroke from c and returns the indices they occupied,
// aligned with strokes (-1 for strokes c did not own).
func detachAll(c *entity.Canvas, strokes []*entity.Stroke) []int {
	indices := make([]int, len(strokes))
	for i, s := range strokes {
		indices[i] = c.IndexOf(s)
	}
	for i, s := range strokes {
		if indices[i] < 0 {
			continue
		}
		_ = c.RemoveDrawable(s)
	}
	return indices
}

// reattachAll puts strokes back at the indices detachAll reported. Inserting
// in ascending index order reproduces the original drawable order.
func reattachAll(c *entity.Canvas, strokes []*entity.Stroke, indices []int) error {
	order := make([]int, 0, len(strokes))
	for i := range strokes {
		if i < len(indices) && indices[i] >= 0 {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(a, b int) bool { return indices[order[a]] < indices[order[b]] })
	for _, i := range order {
		if err := c.InsertDrawable(strokes[i], indices[i]); err != nil {
			return err
		}
	}
	return nil
}

// Paste attaches deep copies of the clipboard strokes to a canvas. The copies
// are made and offset once, at construction, and owned by the command.
type Paste struct {
	sceneRef
	canvas   entity.Ref[*entity.Canvas]
	strokes  []*entity.Stroke
	selected []*entity.Stroke
}

// PasteDelta is the default offset applied to pasted strokes in both axes.
const PasteDelta = 0.2

func NewPaste(scene *entity.Scene, target *entity.Canvas, buffer []*entity.Stroke, delta float64) (*Paste, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return nil, err
	}
	if !target.Alive() {
		return nil, invalid("paste target canvas is nil or destroyed")
	}
	clones := make([]*entity.Stroke, 0, len(buffer))
	for _, s := range buffer {
		if s == nil {
			continue
		}
		clone := s.Clone()
		clone.MoveDelta(delta, delta)
		clones = append(clones, clone)
	}
	ref.label = fmt.Sprintf("Paste strokes to canvas %s", target.Name())
	return &Paste{sceneRef: ref, canvas: entity.Observe(target), strokes: clones}, nil
}

// Strokes returns the clones this command attaches.
func (c *Paste) Strokes() []*entity.Stroke {
	return slices.Clone(c.strokes)
}

func (c *Paste) Apply() (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	c.selected = cnv.SelectedStrokes()
	cnv.UnselectStrokes()
	for i, s := range c.strokes {
		if err := cnv.AddDrawable(s); err != nil {
			detachAll(cnv, c.strokes[:i])
			restoreSelection(cnv, c.selected)
			return Change{}, err
		}
		s.SetSelected(true)
	}
	return touched(c.label, cnv), nil
}

func (c *Paste) Revert() (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	cnv.UnselectStrokes()
	detachAll(cnv, c.strokes)
	restoreSelection(cnv, c.selected)
	return touched(c.label, cnv), nil
}

func restoreSelection(c *entity.Canvas, selected []*entity.Stroke) {
	for _, s := range selected {
		if c.Owns(s) {
			s.SetSelected(true)
		}
	}
}
