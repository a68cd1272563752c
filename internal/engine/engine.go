package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/clipboard"
	"github.com/inamate/sketchplane/internal/command"
	"github.com/inamate/sketchplane/internal/document"
	"github.com/inamate/sketchplane/internal/entity"
	"github.com/inamate/sketchplane/internal/history"
	"github.com/inamate/sketchplane/internal/notify"
)

var (
	ErrNoCurrentCanvas  = errors.New("no current canvas")
	ErrNoPreviousCanvas = errors.New("no previous canvas")
	ErrNoSelection      = errors.New("no strokes selected")
	ErrNoCurrentPhoto   = errors.New("no current photo")
)

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	HistoryLimit int
	PasteDelta   float64
}

// Engine is the editor façade. It owns the scene, the undo history, the
// clipboard and the change dispatcher, and turns user intents into commands.
// All methods are safe for concurrent use; edits are serialized.
type Engine struct {
	mu sync.Mutex

	scene     *entity.Scene
	history   *history.Stack
	clipboard *clipboard.Buffer
	events    *notify.Dispatcher

	pasteDelta float64
}

// New creates an engine editing an empty scene.
func New(opts Options) *Engine {
	if opts.PasteDelta == 0 {
		opts.PasteDelta = command.PasteDelta
	}
	events := notify.NewDispatcher()
	return &Engine{
		scene:      entity.NewScene("", "Untitled"),
		history:    history.New(events, opts.HistoryLimit),
		clipboard:  clipboard.New(),
		events:     events,
		pasteDelta: opts.PasteDelta,
	}
}

// Subscribe registers fn for every change and returns an unsubscribe func.
// fn runs while the engine is locked and must not call back into it.
func (e *Engine) Subscribe(fn func(command.Change)) func() {
	return e.events.Subscribe(fn)
}

// SceneID returns the id of the scene being edited.
func (e *Engine) SceneID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.ID()
}

// View runs fn with the live scene while edits are blocked. fn must not
// retain the scene or mutate it.
func (e *Engine) View(fn func(s *entity.Scene)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.scene)
}

// --- Document ---

// Snapshot captures the scene as a document.
func (e *Engine) Snapshot() *document.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return document.FromScene(e.scene)
}

// Load replaces the scene with one built from doc. The history and clipboard
// are cleared; commands still referring to the old scene become dangling.
func (e *Engine) Load(doc *document.Document) error {
	scene, err := document.Build(doc)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	chg := command.Change{Label: "Load scene"}
	for i, c := range e.scene.Canvases() {
		chg.Removed = append(chg.Removed, command.CanvasEvent{ID: c.ID(), Name: c.Name(), Index: i})
	}
	for i, c := range scene.Canvases() {
		chg.Added = append(chg.Added, command.CanvasEvent{ID: c.ID(), Name: c.Name(), Index: i})
	}

	e.history.Clear()
	e.clipboard.Clear()
	e.scene.Destroy()
	e.scene = scene
	e.events.Publish(chg)
	slog.Info("scene loaded", "scene", scene.ID(), "canvases", scene.NumCanvases())
	return nil
}

// --- History ---

func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Undo()
}

func (e *Engine) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Redo()
}

// HistoryState summarizes the undo stack for views.
type HistoryState struct {
	Entries   []history.Entry `json:"entries"`
	Index     int             `json:"index"`
	UndoLabel string          `json:"undoLabel,omitempty"`
	RedoLabel string          `json:"redoLabel,omitempty"`
}

func (e *Engine) History() HistoryState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return HistoryState{
		Entries:   e.history.Entries(),
		Index:     e.history.Index(),
		UndoLabel: e.history.UndoLabel(),
		RedoLabel: e.history.RedoLabel(),
	}
}

// push hands a freshly built command to the history. Caller holds mu.
func (e *Engine) push(cmd command.Command, err error) error {
	if err != nil {
		return err
	}
	return e.history.Push(cmd)
}

// --- Lookups (caller holds mu) ---

// canvas resolves id, or the current canvas when id is empty.
func (e *Engine) canvas(id string) (*entity.Canvas, error) {
	if id == "" {
		if c := e.scene.Current(); c != nil {
			return c, nil
		}
		return nil, ErrNoCurrentCanvas
	}
	c, ok := e.scene.CanvasByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: canvas %s", entity.ErrNotFound, id)
	}
	return c, nil
}

func (e *Engine) current() (*entity.Canvas, error) {
	return e.canvas("")
}

func (e *Engine) previous() (*entity.Canvas, error) {
	if c := e.scene.Previous(); c != nil {
		return c, nil
	}
	return nil, ErrNoPreviousCanvas
}

func stroke(c *entity.Canvas, id string) (*entity.Stroke, error) {
	if d, ok := c.Drawable(id); ok {
		if s, ok := d.(*entity.Stroke); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: stroke %s on %s", entity.ErrNotFound, id, c.Name())
}

func photo(c *entity.Canvas, id string) (*entity.Photo, error) {
	if id == "" {
		if p := c.PhotoCurrent(); p != nil {
			return p, nil
		}
		return nil, ErrNoCurrentPhoto
	}
	if d, ok := c.Drawable(id); ok {
		if p, ok := d.(*entity.Photo); ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: photo %s on %s", entity.ErrNotFound, id, c.Name())
}

// selection returns the current canvas and its selected strokes.
func (e *Engine) selection() (*entity.Canvas, []*entity.Stroke, error) {
	c, err := e.current()
	if err != nil {
		return nil, nil, err
	}
	sel := c.SelectedStrokes()
	if len(sel) == 0 {
		return nil, nil, ErrNoSelection
	}
	return c, sel, nil
}

// selectionCenter is the center of the strokes' combined bounds.
func selectionCenter(strokes []*entity.Stroke) mgl64.Vec2 {
	x, y := SelectionBounds(strokes).Center()
	return mgl64.Vec2{x, y}
}
