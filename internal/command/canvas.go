package command

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/entity"
	"github.com/inamate/sketchplane/internal/geom"
)

// CanvasOffset translates the current canvas.
type CanvasOffset struct {
	sceneRef
	canvas entity.Ref[*entity.Canvas]
	delta  mgl64.Vec3
}

func NewCanvasOffset(scene *entity.Scene, delta mgl64.Vec3) (*CanvasOffset, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return nil, err
	}
	cnv := scene.Current()
	if cnv == nil {
		return nil, invalid("no current canvas to offset")
	}
	ref.label = fmt.Sprintf("Offset %s", cnv.Name())
	return &CanvasOffset{sceneRef: ref, canvas: entity.Observe(cnv), delta: delta}, nil
}

func (c *CanvasOffset) Apply() (Change, error)  { return c.translate(c.delta) }
func (c *CanvasOffset) Revert() (Change, error) { return c.translate(c.delta.Mul(-1)) }

func (c *CanvasOffset) translate(v mgl64.Vec3) (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	cnv.Translate(v)
	return touched(c.label, cnv), nil
}

// CanvasRotate rotates the current canvas about its center.
type CanvasRotate struct {
	sceneRef
	canvas entity.Ref[*entity.Canvas]
	rotate mgl64.Quat
}

func NewCanvasRotate(scene *entity.Scene, rotate mgl64.Quat) (*CanvasRotate, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return nil, err
	}
	cnv := scene.Current()
	if cnv == nil {
		return nil, invalid("no current canvas to rotate")
	}
	if rotate.Len() < geom.Epsilon {
		return nil, invalid("rotation quaternion is zero")
	}
	ref.label = fmt.Sprintf("Rotate %s", cnv.Name())
	return &CanvasRotate{sceneRef: ref, canvas: entity.Observe(cnv), rotate: rotate.Normalize()}, nil
}

func (c *CanvasRotate) Apply() (Change, error) {
	return c.turn(c.rotate)
}

// Revert rotates by the negated angle about the same axis.
func (c *CanvasRotate) Revert() (Change, error) {
	return c.turn(geom.InverseRotation(c.rotate))
}

func (c *CanvasRotate) turn(q mgl64.Quat) (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	cnv.Rotate(q)
	return touched(c.label, cnv), nil
}

// CanvasDelete detaches a canvas from the scene and owns it until reverted.
type CanvasDelete struct {
	sceneRef
	canvas *entity.Canvas
	index  int

	// Pointers as they were right before the last Apply.
	current  *entity.Canvas
	previous *entity.Canvas
}

func NewCanvasDelete(scene *entity.Scene, canvas *entity.Canvas) (*CanvasDelete, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return nil, err
	}
	if !canvas.Alive() {
		return nil, invalid("canvas is nil or destroyed")
	}
	ref.label = fmt.Sprintf("Delete %s", canvas.Name())
	return &CanvasDelete{sceneRef: ref, canvas: canvas, index: -1}, nil
}

func (c *CanvasDelete) Apply() (Change, error) {
	scene, err := c.liveScene()
	if err != nil {
		return Change{}, err
	}
	idx := scene.CanvasIndex(c.canvas)
	if idx < 0 {
		return Change{}, fmt.Errorf("%w: %s is not in the scene", entity.ErrNotFound, c.canvas.Name())
	}

	c.current, c.previous = scene.Current(), scene.Previous()
	current, previous := c.current, c.previous
	if c.canvas == current {
		current = previous
	}
	if c.canvas == previous || current == previous {
		previous = nil
		for _, cnv := range scene.Canvases() {
			if cnv != current && cnv != c.canvas {
				previous = cnv
				break
			}
		}
	}
	if err := scene.RestoreCanvasPointers(current, previous); err != nil {
		return Change{}, err
	}

	if _, err := scene.RemoveCanvas(c.canvas); err != nil {
		return Change{}, err
	}
	c.index = idx

	chg := Change{Label: c.label}
	chg.Removed = append(chg.Removed, CanvasEvent{ID: c.canvas.ID(), Name: c.canvas.Name(), Index: idx})
	return chg, nil
}

func (c *CanvasDelete) Revert() (Change, error) {
	scene, err := c.liveScene()
	if err != nil {
		return Change{}, err
	}
	if err := scene.InsertCanvas(c.canvas, c.index); err != nil {
		return Change{}, err
	}
	if err := scene.RestoreCanvasPointers(c.current, c.previous); err != nil {
		return Change{}, err
	}

	chg := Change{Label: c.label}
	chg.Added = append(chg.Added, CanvasEvent{ID: c.canvas.ID(), Name: c.canvas.Name(), Index: scene.CanvasIndex(c.canvas)})
	return chg, nil
}
