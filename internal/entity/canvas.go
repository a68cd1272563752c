package entity

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/geom"
)

// Canvas is a named planar subspace placed in the scene by a rigid transform.
// Local points (u, v) map to world space as Translation · Rotation · (u, v, 0).
type Canvas struct {
	id   string
	name string

	// Frame state. transform, plane and center are derived and recomputed on
	// every mutation of rotation or translation.
	rotation    mgl64.Quat
	translation mgl64.Vec3
	transform   mgl64.Mat4
	plane       geom.Plane
	center      mgl64.Vec3

	drawables    []Drawable
	photoCurrent *Photo
	texture      Texture

	scene     *Scene
	destroyed bool
}

func newCanvas(id, name string, rotation mgl64.Quat, translation mgl64.Vec3) *Canvas {
	if rotation.Len() < geom.Epsilon {
		rotation = mgl64.QuatIdent()
	}
	c := &Canvas{
		id:          id,
		name:        name,
		rotation:    rotation.Normalize(),
		translation: translation,
	}
	c.updateFrame()
	return c
}

func (c *Canvas) ID() string   { return c.id }
func (c *Canvas) Name() string { return c.name }
func (c *Canvas) Scene() *Scene {
	return c.scene
}

func (c *Canvas) Alive() bool {
	return c != nil && !c.destroyed
}

// --- Frame ---

func (c *Canvas) Transform() mgl64.Mat4   { return c.transform }
func (c *Canvas) Plane() geom.Plane       { return c.plane }
func (c *Canvas) Center() mgl64.Vec3      { return c.center }
func (c *Canvas) Rotation() mgl64.Quat    { return c.rotation }
func (c *Canvas) Translation() mgl64.Vec3 { return c.translation }

// Normal is the world-space direction of the canvas plane normal.
func (c *Canvas) Normal() mgl64.Vec3 {
	return c.plane.Normal
}

// Translate moves the canvas by delta in world space.
func (c *Canvas) Translate(delta mgl64.Vec3) {
	c.translation = c.translation.Add(delta)
	c.updateFrame()
}

// Rotate turns the canvas by q about its own center.
func (c *Canvas) Rotate(q mgl64.Quat) {
	c.rotation = q.Mul(c.rotation).Normalize()
	c.updateFrame()
}

// SetFrame replaces the rotation and translation outright.
func (c *Canvas) SetFrame(rotation mgl64.Quat, translation mgl64.Vec3) {
	if rotation.Len() < geom.Epsilon {
		rotation = mgl64.QuatIdent()
	}
	c.rotation = rotation.Normalize()
	c.translation = translation
	c.updateFrame()
}

func (c *Canvas) updateFrame() {
	t := c.translation
	c.transform = mgl64.Translate3D(t.X(), t.Y(), t.Z()).Mul4(c.rotation.Mat4())
	c.center = t
	c.plane = geom.PlaneFromPoint(c.rotation.Rotate(mgl64.Vec3{0, 0, 1}), t)
}

// LocalToWorld maps a local point to world space.
func (c *Canvas) LocalToWorld(u, v float64) mgl64.Vec3 {
	return mgl64.TransformCoordinate(mgl64.Vec3{u, v, 0}, c.transform)
}

// --- Drawables ---

// Drawables returns the owned drawables in insertion order.
func (c *Canvas) Drawables() []Drawable {
	return slices.Clone(c.drawables)
}

func (c *Canvas) NumDrawables() int {
	return len(c.drawables)
}

// IndexOf returns the position of d among the drawables, or -1.
func (c *Canvas) IndexOf(d Drawable) int {
	return slices.IndexFunc(c.drawables, func(x Drawable) bool { return x == d })
}

// Owns reports whether d is attached to this canvas.
func (c *Canvas) Owns(d Drawable) bool {
	return d != nil && d.Canvas() == c && c.IndexOf(d) >= 0
}

// AddDrawable attaches d at the end of the drawable list.
func (c *Canvas) AddDrawable(d Drawable) error {
	return c.InsertDrawable(d, len(c.drawables))
}

// InsertDrawable attaches d at index, clamped to the valid range. A drawable
// already owned by any canvas is rejected and nothing changes.
func (c *Canvas) InsertDrawable(d Drawable, index int) error {
	if d == nil || !d.Alive() {
		return fmt.Errorf("%w: attach of a nil or destroyed drawable to %s", ErrOwnership, c.name)
	}
	if owner := d.Canvas(); owner != nil {
		slog.Warn("drawable already attached", "drawable", d.ID(), "owner", owner.Name(), "target", c.name)
		return fmt.Errorf("%w: %s %s is already attached to %s", ErrOwnership, d.Kind(), d.ID(), owner.Name())
	}
	index = max(0, min(index, len(c.drawables)))
	c.drawables = slices.Insert(c.drawables, index, d)
	d.setCanvas(c)
	return nil
}

// RemoveDrawable detaches d. Removing a drawable this canvas does not own is
// reported and leaves the container untouched.
func (c *Canvas) RemoveDrawable(d Drawable) error {
	idx := -1
	if d != nil && d.Canvas() == c {
		idx = c.IndexOf(d)
	}
	if idx < 0 {
		id := "<nil>"
		if d != nil {
			id = d.ID()
		}
		slog.Warn("drawable not owned by canvas", "drawable", id, "canvas", c.name)
		return fmt.Errorf("%w: %s does not own %s", ErrOwnership, c.name, id)
	}
	c.drawables = slices.Delete(c.drawables, idx, idx+1)
	d.setCanvas(nil)
	if p, ok := d.(*Photo); ok && p == c.photoCurrent {
		c.photoCurrent = nil
	}
	return nil
}

// Strokes returns the owned strokes in drawable order.
func (c *Canvas) Strokes() []*Stroke {
	var out []*Stroke
	for _, d := range c.drawables {
		if s, ok := d.(*Stroke); ok {
			out = append(out, s)
		}
	}
	return out
}

// Photos returns the owned photos in drawable order.
func (c *Canvas) Photos() []*Photo {
	var out []*Photo
	for _, d := range c.drawables {
		if p, ok := d.(*Photo); ok {
			out = append(out, p)
		}
	}
	return out
}

// Drawable looks up an owned drawable by id.
func (c *Canvas) Drawable(id string) (Drawable, bool) {
	for _, d := range c.drawables {
		if d.ID() == id {
			return d, true
		}
	}
	return nil, false
}

// --- Current photo ---

func (c *Canvas) PhotoCurrent() *Photo {
	return c.photoCurrent
}

// SetPhotoCurrent marks an owned photo as the active one; nil clears it.
func (c *Canvas) SetPhotoCurrent(p *Photo) error {
	if p != nil && !c.Owns(p) {
		return fmt.Errorf("%w: %s does not own photo %s", ErrOwnership, c.name, p.ID())
	}
	c.photoCurrent = p
	return nil
}

// Texture is the texture state the renderer binds for this canvas.
func (c *Canvas) Texture() Texture     { return c.texture }
func (c *Canvas) SetTexture(t Texture) { c.texture = t }

// --- Selection ---

// SelectStroke marks an owned stroke as selected.
func (c *Canvas) SelectStroke(s *Stroke) error {
	if !c.Owns(s) {
		return fmt.Errorf("%w: %s does not own stroke", ErrOwnership, c.name)
	}
	s.selected = true
	return nil
}

// UnselectStrokes clears the selection flag on every owned stroke.
func (c *Canvas) UnselectStrokes() {
	for _, s := range c.Strokes() {
		s.selected = false
	}
}

// SelectedStrokes returns the selected owned strokes in drawable order.
func (c *Canvas) SelectedStrokes() []*Stroke {
	var out []*Stroke
	for _, s := range c.Strokes() {
		if s.selected {
			out = append(out, s)
		}
	}
	return out
}

// StrokesIn returns the owned strokes whose bounds intersect r.
func (c *Canvas) StrokesIn(r geom.Rect) []*Stroke {
	var out []*Stroke
	for _, s := range c.Strokes() {
		if s.NumPoints() > 0 && s.Bounds().Intersects(r) {
			out = append(out, s)
		}
	}
	return out
}

// --- Batch stroke edits ---

// MoveStrokes translates each owned stroke of set by (du, dv).
func (c *Canvas) MoveStrokes(set []*Stroke, du, dv float64) {
	for _, s := range c.owned(set) {
		s.MoveDelta(du, dv)
	}
}

// ScaleStrokes scales each owned stroke of set about center.
func (c *Canvas) ScaleStrokes(set []*Stroke, factor float64, center mgl64.Vec2) {
	for _, s := range c.owned(set) {
		s.Scale(factor, center)
	}
}

// RotateStrokes rotates each owned stroke of set by theta about center.
func (c *Canvas) RotateStrokes(set []*Stroke, theta float64, center mgl64.Vec2) {
	for _, s := range c.owned(set) {
		s.Rotate(theta, center)
	}
}

func (c *Canvas) owned(set []*Stroke) []*Stroke {
	out := make([]*Stroke, 0, len(set))
	for _, s := range set {
		if s == nil || s.canvas != c {
			id := "<nil>"
			if s != nil {
				id = s.id
			}
			slog.Warn("skipping stroke not owned by canvas", "stroke", id, "canvas", c.name)
			continue
		}
		out = append(out, s)
	}
	return out
}

func (c *Canvas) destroy() {
	c.destroyed = true
	for _, d := range c.drawables {
		d.destroy()
	}
}
