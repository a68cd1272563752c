package engine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/command"
	"github.com/inamate/sketchplane/internal/entity"
)

// --- Creation and pointer changes (not undoable) ---

// AddCanvas appends a canvas, makes it current and returns its id.
func (e *Engine) AddCanvas(spec entity.CanvasSpec) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.scene.AddCanvas(spec)
	e.events.Publish(command.Change{
		Label:    "Add canvas " + c.Name(),
		Canvases: []string{c.ID()},
		Added:    []command.CanvasEvent{{ID: c.ID(), Name: c.Name(), Index: e.scene.CanvasIndex(c)}},
	})
	return c.ID()
}

// AddStroke attaches a new stroke to the canvas (current when canvasID is empty).
func (e *Engine) AddStroke(canvasID string, spec entity.StrokeSpec) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return "", err
	}
	s, err := e.scene.AddStroke(c, spec)
	if err != nil {
		return "", err
	}
	e.events.Publish(command.Change{Label: "Add stroke", Canvases: []string{c.ID()}})
	return s.ID(), nil
}

// AddPhoto attaches a new photo and makes it the canvas's current photo.
func (e *Engine) AddPhoto(canvasID string, spec entity.PhotoSpec) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return "", err
	}
	p, err := e.scene.AddPhoto(c, spec)
	if err != nil {
		return "", err
	}
	e.events.Publish(command.Change{Label: "Add photo " + p.Name(), Canvases: []string{c.ID()}})
	return p.ID(), nil
}

// SetCanvasCurrent makes a canvas current; the old one becomes previous.
func (e *Engine) SetCanvasCurrent(canvasID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return err
	}
	if err := e.scene.SetCanvasCurrent(c); err != nil {
		return err
	}
	e.events.Publish(command.Change{Label: "Set current canvas " + c.Name(), Canvases: []string{c.ID()}})
	return nil
}

// SetPhotoCurrent makes photoID the active photo of its canvas.
func (e *Engine) SetPhotoCurrent(canvasID, photoID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return err
	}
	p, err := photo(c, photoID)
	if err != nil {
		return err
	}
	return c.SetPhotoCurrent(p)
}

// SelectStrokes replaces the selection of a canvas with the given strokes.
func (e *Engine) SelectStrokes(canvasID string, strokeIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return err
	}
	strokes := make([]*entity.Stroke, 0, len(strokeIDs))
	for _, id := range strokeIDs {
		s, err := stroke(c, id)
		if err != nil {
			return err
		}
		strokes = append(strokes, s)
	}
	c.UnselectStrokes()
	for _, s := range strokes {
		if err := c.SelectStroke(s); err != nil {
			return err
		}
	}
	e.events.Publish(command.Change{Label: "Select strokes", Canvases: []string{c.ID()}})
	return nil
}

// --- Canvas commands ---

func (e *Engine) OffsetCanvas(delta mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.push(command.NewCanvasOffset(e.scene, delta))
}

func (e *Engine) RotateCanvas(q mgl64.Quat) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.push(command.NewCanvasRotate(e.scene, q))
}

func (e *Engine) DeleteCanvas(canvasID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return err
	}
	return e.push(command.NewCanvasDelete(e.scene, c))
}

// --- Photo commands (act on the current photo of the current canvas) ---

func (e *Engine) MovePhoto(u, v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.push(command.NewPhotoMove(e.scene, u, v))
}

func (e *Engine) ScalePhoto(scale float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.push(command.NewPhotoScale(e.scene, scale))
}

func (e *Engine) RotatePhoto(angle float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.push(command.NewPhotoRotate(e.scene, angle))
}

func (e *Engine) FlipPhoto(horizontal bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.push(command.NewPhotoFlip(e.scene, horizontal))
}

// DeletePhoto removes a photo; an empty photoID means the canvas's current photo.
func (e *Engine) DeletePhoto(canvasID, photoID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return err
	}
	p, err := photo(c, photoID)
	if err != nil {
		return err
	}
	return e.push(command.NewPhotoDelete(e.scene, c, p))
}

// PushPhoto moves a photo of the current canvas onto the previous canvas.
func (e *Engine) PushPhoto(photoID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.current()
	if err != nil {
		return err
	}
	dst, err := e.previous()
	if err != nil {
		return err
	}
	p, err := photo(src, photoID)
	if err != nil {
		return err
	}
	return e.push(command.NewPhotoPush(e.scene, src, dst, p))
}

// --- Stroke commands ---

func (e *Engine) DeleteStroke(canvasID, strokeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return err
	}
	s, err := stroke(c, strokeID)
	if err != nil {
		return err
	}
	return e.push(command.NewStrokeDelete(e.scene, c, s))
}

// DeleteSelectedStrokes deletes the selection of the current canvas as one
// undoable step.
func (e *Engine) DeleteSelectedStrokes() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, sel, err := e.selection()
	if err != nil {
		return err
	}
	children := make([]command.Command, 0, len(sel))
	for _, s := range sel {
		cmd, err := command.NewStrokeDelete(e.scene, c, s)
		if err != nil {
			return err
		}
		children = append(children, cmd)
	}
	return e.push(command.NewMacro(fmt.Sprintf("Delete %d strokes from %s", len(sel), c.Name()), children...))
}

func (e *Engine) MoveStrokes(du, dv float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, sel, err := e.selection()
	if err != nil {
		return err
	}
	return e.push(command.NewStrokesMove(e.scene, sel, c, du, dv))
}

// ScaleStrokes scales the selection about the center of its bounds.
func (e *Engine) ScaleStrokes(scale float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, sel, err := e.selection()
	if err != nil {
		return err
	}
	return e.push(command.NewStrokesScale(e.scene, sel, c, scale, selectionCenter(sel)))
}

// RotateStrokes rotates the selection about the center of its bounds.
func (e *Engine) RotateStrokes(theta float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, sel, err := e.selection()
	if err != nil {
		return err
	}
	return e.push(command.NewStrokesRotate(e.scene, sel, c, theta, selectionCenter(sel)))
}

// PushStrokes reprojects the selection of the current canvas onto the
// previous canvas as seen from eye.
func (e *Engine) PushStrokes(eye mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, sel, err := e.selection()
	if err != nil {
		return err
	}
	dst, err := e.previous()
	if err != nil {
		return err
	}
	return e.push(command.NewStrokesPush(e.scene, sel, src, dst, eye))
}

// --- Clipboard ---

// Cut moves the selection of a canvas into the clipboard.
func (e *Engine) Cut(canvasID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return err
	}
	sel := c.SelectedStrokes()
	if len(sel) == 0 {
		return ErrNoSelection
	}
	return e.push(command.NewCut(e.scene, c, sel, e.clipboard))
}

// Copy fills the clipboard with copies of the selection. It is not undoable.
func (e *Engine) Copy(canvasID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return 0, err
	}
	sel := c.SelectedStrokes()
	if len(sel) == 0 {
		return 0, ErrNoSelection
	}
	e.clipboard.Copy(sel)
	return e.clipboard.Len(), nil
}

// Paste attaches copies of the clipboard to a canvas and returns their ids.
// An empty clipboard pastes nothing and records no command.
func (e *Engine) Paste(canvasID string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.canvas(canvasID)
	if err != nil {
		return nil, err
	}
	if e.clipboard.Len() == 0 {
		return nil, nil
	}
	cmd, err := command.NewPaste(e.scene, c, e.clipboard.Strokes(), e.pasteDelta)
	if err != nil {
		return nil, err
	}
	if err := e.history.Push(cmd); err != nil {
		return nil, err
	}
	strokes := cmd.Strokes()
	ids := make([]string, len(strokes))
	for i, s := range strokes {
		ids[i] = s.ID()
	}
	return ids, nil
}

// ClipboardLen reports how many strokes the clipboard holds.
func (e *Engine) ClipboardLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clipboard.Len()
}
