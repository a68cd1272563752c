// Package command implements every reversible scene edit as a Command whose
// Apply and Revert are exact inverses. Commands never signal views; they return
// a Change describing what they touched and leave dispatch to the caller.
package command

import (
	"errors"
	"fmt"

	"github.com/inamate/sketchplane/internal/entity"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDangling        = errors.New("referenced entity no longer exists")
)

// Command is one reversible mutation of the scene.
type Command interface {
	// Apply performs (or re-performs) the edit.
	Apply() (Change, error)
	// Revert undoes the most recent Apply.
	Revert() (Change, error)
	// Label is a human-readable description for history listings.
	Label() string
}

// CanvasEvent identifies a canvas entering or leaving the scene collection.
type CanvasEvent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Change describes the effect of one Apply or Revert.
type Change struct {
	Label    string        `json:"label"`
	Canvases []string      `json:"canvases,omitempty"` // ids of canvases whose content or frame changed
	Added    []CanvasEvent `json:"added,omitempty"`
	Removed  []CanvasEvent `json:"removed,omitempty"`
}

// Merge folds other into c, keeping canvas ids unique.
func (c Change) Merge(other Change) Change {
	for _, id := range other.Canvases {
		if !contains(c.Canvases, id) {
			c.Canvases = append(c.Canvases, id)
		}
	}
	c.Added = append(c.Added, other.Added...)
	c.Removed = append(c.Removed, other.Removed...)
	return c
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func touched(label string, canvases ...*entity.Canvas) Change {
	chg := Change{Label: label}
	for _, c := range canvases {
		if c != nil && !contains(chg.Canvases, c.ID()) {
			chg.Canvases = append(chg.Canvases, c.ID())
		}
	}
	return chg
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func dangling(what string) error {
	return fmt.Errorf("%w: %s", ErrDangling, what)
}

// sceneRef is embedded by every command: the observed scene and the label.
type sceneRef struct {
	scene entity.Ref[*entity.Scene]
	label string
}

func (b *sceneRef) Label() string { return b.label }

func (b *sceneRef) liveScene() (*entity.Scene, error) {
	s, ok := b.scene.Get()
	if !ok {
		return nil, dangling("scene")
	}
	return s, nil
}

func observeScene(scene *entity.Scene) (sceneRef, error) {
	if !scene.Alive() {
		return sceneRef{}, invalid("scene is nil or destroyed")
	}
	return sceneRef{scene: entity.Observe(scene)}, nil
}

// liveCanvas resolves an observed canvas together with the scene.
func (b *sceneRef) liveCanvas(ref entity.Ref[*entity.Canvas]) (*entity.Canvas, error) {
	if _, err := b.liveScene(); err != nil {
		return nil, err
	}
	c, ok := ref.Get()
	if !ok {
		return nil, dangling("canvas")
	}
	return c, nil
}
