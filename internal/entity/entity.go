// Package entity holds the mutable scene graph edited by commands: a Scene
// owning Canvases, each owning Strokes and Photos.
package entity

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrOwnership     = errors.New("ownership violation")
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidCurve  = errors.New("invalid curve data")
	ErrColorMismatch = errors.New("color count does not match point count")
)

// Kind tells Strokes and Photos apart without a type switch.
type Kind string

const (
	KindStroke Kind = "stroke"
	KindPhoto  Kind = "photo"
)

// Texture is an opaque handle to photo image data owned by the renderer.
type Texture string

var (
	StrokeColorNormal   = mgl64.Vec4{0, 0, 0, 1}
	StrokeColorSelected = mgl64.Vec4{1, 0.8, 0.2, 1}
)

// StrokeMinLength is the extent below which a stroke is considered a click.
const StrokeMinLength = 0.05

// Drawable is anything a Canvas can own.
type Drawable interface {
	ID() string
	Name() string
	Kind() Kind
	Alive() bool
	Canvas() *Canvas

	setCanvas(c *Canvas)
	destroy()
}

// Alive is implemented by every entity; a nil or destroyed entity is not alive.
type Alive interface {
	Alive() bool
}

// Ref is a non-owning observer of an entity. Once the target is destroyed Get
// reports the empty state instead of handing out the stale pointer.
type Ref[T Alive] struct {
	target T
}

// Observe returns a Ref watching target.
func Observe[T Alive](target T) Ref[T] {
	return Ref[T]{target: target}
}

// Get returns the target if it is still alive.
func (r Ref[T]) Get() (T, bool) {
	if !r.target.Alive() {
		var zero T
		return zero, false
	}
	return r.target, true
}
