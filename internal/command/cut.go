package command

import (
	"fmt"
	"slices"

	"github.com/inamate/sketchplane/internal/entity"
)

// Clipboard is the shared buffer Cut writes and Paste reads.
type Clipboard interface {
	Strokes() []*entity.Stroke
	// Set replaces the contents and returns what was there before.
	Set(strokes []*entity.Stroke) []*entity.Stroke
}

// Cut moves the selected strokes off a canvas into the clipboard.
type Cut struct {
	sceneRef
	canvas    *entity.Canvas
	strokes   []*entity.Stroke
	clipboard Clipboard

	indices   []int
	displaced []*entity.Stroke
	current   *entity.Canvas
	previous  *entity.Canvas
}

func NewCut(scene *entity.Scene, canvas *entity.Canvas, selected []*entity.Stroke, clipboard Clipboard) (*Cut, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return nil, err
	}
	if !canvas.Alive() {
		return nil, invalid("cut canvas is nil or destroyed")
	}
	if clipboard == nil {
		return nil, invalid("cut needs a clipboard")
	}
	strokes := uniqueStrokes(selected)
	ref.label = fmt.Sprintf("Cut strokes to buffer from canvas %s", canvas.Name())
	return &Cut{sceneRef: ref, canvas: canvas, strokes: strokes, clipboard: clipboard}, nil
}

// Strokes returns the strokes this command cuts.
func (c *Cut) Strokes() []*entity.Stroke {
	return slices.Clone(c.strokes)
}

func (c *Cut) Apply() (Change, error) {
	scene, err := c.liveScene()
	if err != nil {
		return Change{}, err
	}
	if !c.canvas.Alive() {
		return Change{}, dangling("canvas")
	}
	c.current, c.previous = scene.Current(), scene.Previous()
	if err := scene.SetCanvasCurrent(c.canvas); err != nil {
		return Change{}, err
	}

	c.displaced = c.clipboard.Set(slices.Clone(c.strokes))
	c.indices = detachAll(c.canvas, c.strokes)
	return touched(c.label, c.canvas), nil
}

func (c *Cut) Revert() (Change, error) {
	scene, err := c.liveScene()
	if err != nil {
		return Change{}, err
	}
	if !c.canvas.Alive() {
		return Change{}, dangling("canvas")
	}
	if err := reattachAll(c.canvas, c.strokes, c.indices); err != nil {
		return Change{}, err
	}
	for _, s := range c.strokes {
		if c.canvas.Owns(s) {
			s.SetSelected(true)
		}
	}
	c.clipboard.Set(c.displaced)
	if err := scene.RestoreCanvasPointers(c.current, c.previous); err != nil {
		return Change{}, err
	}
	return touched(c.label, c.canvas), nil
}
