package entity

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/typeid"
)

// Scene is the root aggregate: it owns the canvases in insertion order and
// tracks which canvas is being edited.
type Scene struct {
	id   string
	name string

	canvases []*Canvas
	current  *Canvas
	previous *Canvas

	// Monotonic counters used to name new canvases and misc entities.
	idCanvas uint
	idNode   uint

	destroyed bool
}

// CanvasSpec describes a canvas to add. An empty ID or Name is generated; a
// zero Rotation means identity.
type CanvasSpec struct {
	ID          string
	Name        string
	Rotation    mgl64.Quat
	Translation mgl64.Vec3
}

// StrokeSpec describes a stroke to add. Colors may be empty (uniform Color) or
// must have one entry per point.
type StrokeSpec struct {
	ID     string
	Points []mgl64.Vec2
	Color  *mgl64.Vec4
	Colors []mgl64.Vec4
	Curved bool
}

// NewScene creates an empty scene.
func NewScene(id, name string) *Scene {
	if id == "" {
		id = typeid.NewSceneID()
	}
	return &Scene{id: id, name: name}
}

func (s *Scene) ID() string   { return s.id }
func (s *Scene) Name() string { return s.name }

func (s *Scene) Alive() bool {
	return s != nil && !s.destroyed
}

// Destroy tears the scene down. Every canvas and drawable reachable from it
// stops being alive, so observers holding references see the empty state.
func (s *Scene) Destroy() {
	s.destroyed = true
	for _, c := range s.canvases {
		c.destroy()
	}
	s.canvases = nil
	s.current = nil
	s.previous = nil
}

// --- Canvases ---

// AddCanvas creates a canvas, appends it and makes it current.
func (s *Scene) AddCanvas(spec CanvasSpec) *Canvas {
	if spec.ID == "" {
		spec.ID = typeid.NewCanvasID()
	}
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("Canvas%d", s.idCanvas)
	}
	s.idCanvas++

	c := newCanvas(spec.ID, spec.Name, spec.Rotation, spec.Translation)
	c.scene = s
	s.canvases = append(s.canvases, c)
	s.SetCanvasCurrent(c)
	return c
}

// Canvases returns the canvases in insertion order.
func (s *Scene) Canvases() []*Canvas {
	return slices.Clone(s.canvases)
}

func (s *Scene) NumCanvases() int {
	return len(s.canvases)
}

// CanvasIndex returns the position of c, or -1 if it is not attached.
func (s *Scene) CanvasIndex(c *Canvas) int {
	return slices.Index(s.canvases, c)
}

func (s *Scene) CanvasByID(id string) (*Canvas, bool) {
	for _, c := range s.canvases {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

func (s *Scene) CanvasByName(name string) (*Canvas, bool) {
	for _, c := range s.canvases {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// InsertCanvas reattaches a detached canvas at index (clamped).
func (s *Scene) InsertCanvas(c *Canvas, index int) error {
	if !c.Alive() {
		return fmt.Errorf("%w: insert of a nil or destroyed canvas", ErrOwnership)
	}
	if s.CanvasIndex(c) >= 0 {
		return fmt.Errorf("%w: canvas %s is already in the scene", ErrOwnership, c.name)
	}
	index = max(0, min(index, len(s.canvases)))
	s.canvases = slices.Insert(s.canvases, index, c)
	c.scene = s
	return nil
}

// RemoveCanvas detaches c and returns the index it occupied. Current and
// previous pointers that still refer to c are cleared.
func (s *Scene) RemoveCanvas(c *Canvas) (int, error) {
	idx := s.CanvasIndex(c)
	if idx < 0 {
		return -1, fmt.Errorf("%w: canvas is not in the scene", ErrNotFound)
	}
	s.canvases = slices.Delete(s.canvases, idx, idx+1)
	c.scene = nil
	if s.current == c {
		s.current = nil
	}
	if s.previous == c {
		s.previous = nil
	}
	return idx, nil
}

// --- Current / previous ---

func (s *Scene) Current() *Canvas  { return s.current }
func (s *Scene) Previous() *Canvas { return s.previous }

// SetCanvasCurrent makes c current; the old current becomes previous.
func (s *Scene) SetCanvasCurrent(c *Canvas) error {
	if c != nil && s.CanvasIndex(c) < 0 {
		return fmt.Errorf("%w: canvas is not in the scene", ErrNotFound)
	}
	if c == s.current {
		return nil
	}
	if s.current != nil {
		s.previous = s.current
	}
	s.current = c
	return nil
}

// SetCanvasPrevious sets the previous canvas without touching current.
func (s *Scene) SetCanvasPrevious(c *Canvas) error {
	if c != nil && s.CanvasIndex(c) < 0 {
		return fmt.Errorf("%w: canvas is not in the scene", ErrNotFound)
	}
	s.previous = c
	return nil
}

// RestoreCanvasPointers sets both pointers verbatim, as captured earlier.
func (s *Scene) RestoreCanvasPointers(current, previous *Canvas) error {
	for _, c := range []*Canvas{current, previous} {
		if c != nil && s.CanvasIndex(c) < 0 {
			return fmt.Errorf("%w: canvas %s is not in the scene", ErrNotFound, c.name)
		}
	}
	s.current = current
	s.previous = previous
	return nil
}

// --- Drawable creation ---

// AddStroke builds a stroke from spec and attaches it to c.
func (s *Scene) AddStroke(c *Canvas, spec StrokeSpec) (*Stroke, error) {
	if s.CanvasIndex(c) < 0 {
		return nil, fmt.Errorf("%w: canvas is not in the scene", ErrNotFound)
	}
	if len(spec.Colors) != 0 && len(spec.Colors) != len(spec.Points) {
		return nil, fmt.Errorf("%w: %d colors for %d points", ErrColorMismatch, len(spec.Colors), len(spec.Points))
	}
	if spec.Curved && len(spec.Points)%4 != 0 {
		return nil, fmt.Errorf("%w: curved stroke has %d points", ErrInvalidCurve, len(spec.Points))
	}

	st := NewStroke(spec.ID)
	if spec.Color != nil {
		st.color = *spec.Color
	}
	for _, p := range spec.Points {
		st.AppendPoint(p.X(), p.Y())
	}
	if len(spec.Colors) != 0 {
		copy(st.colors, spec.Colors)
	}
	st.curved = spec.Curved

	if err := c.AddDrawable(st); err != nil {
		return nil, err
	}
	return st, nil
}

// AddPhoto builds a photo from spec, attaches it to c and makes it the
// canvas's current photo.
func (s *Scene) AddPhoto(c *Canvas, spec PhotoSpec) (*Photo, error) {
	if s.CanvasIndex(c) < 0 {
		return nil, fmt.Errorf("%w: canvas is not in the scene", ErrNotFound)
	}
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("Photo%d", s.idNode)
	}
	s.idNode++

	p := newPhoto(spec)
	if err := c.AddDrawable(p); err != nil {
		return nil, err
	}
	c.photoCurrent = p
	return p, nil
}

// Counters returns the next canvas and node name counters.
func (s *Scene) Counters() (canvas, node uint) {
	return s.idCanvas, s.idNode
}

// RestoreCounters sets the name counters, never moving them backwards.
func (s *Scene) RestoreCounters(canvas, node uint) {
	s.idCanvas = max(s.idCanvas, canvas)
	s.idNode = max(s.idNode, node)
}
