package entity

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/geom"
	"github.com/inamate/sketchplane/internal/typeid"
)

// PhotoSpec describes a photo to create. Zero Scale means 1.
type PhotoSpec struct {
	ID      string
	Name    string
	Texture Texture
	Center  mgl64.Vec2
	Scale   float64
	Angle   float64
	FlipH   bool
	FlipV   bool
}

// Photo is an image placed within one canvas.
type Photo struct {
	id        string
	name      string
	center    mgl64.Vec2
	scale     float64
	angle     float64
	flipH     bool
	flipV     bool
	texture   Texture
	canvas    *Canvas
	destroyed bool
}

func newPhoto(spec PhotoSpec) *Photo {
	if spec.ID == "" {
		spec.ID = typeid.NewPhotoID()
	}
	if spec.Scale == 0 {
		spec.Scale = 1
	}
	return &Photo{
		id:      spec.ID,
		name:    spec.Name,
		center:  spec.Center,
		scale:   spec.Scale,
		angle:   spec.Angle,
		flipH:   spec.FlipH,
		flipV:   spec.FlipV,
		texture: spec.Texture,
	}
}

func (p *Photo) ID() string      { return p.id }
func (p *Photo) Name() string    { return p.name }
func (p *Photo) Kind() Kind      { return KindPhoto }
func (p *Photo) Canvas() *Canvas { return p.canvas }

func (p *Photo) Alive() bool {
	return p != nil && !p.destroyed
}

func (p *Photo) setCanvas(c *Canvas) { p.canvas = c }
func (p *Photo) destroy()             { p.destroyed = true }

func (p *Photo) Center() mgl64.Vec2   { return p.center }
func (p *Photo) ScaleFactor() float64 { return p.scale }
func (p *Photo) Angle() float64       { return p.angle }
func (p *Photo) FlippedH() bool       { return p.flipH }
func (p *Photo) FlippedV() bool       { return p.flipV }
func (p *Photo) Texture() Texture     { return p.texture }

// Move places the photo center at (u, v).
func (p *Photo) Move(u, v float64) {
	p.center = mgl64.Vec2{u, v}
}

// Scale multiplies the photo size by factor about the given local point.
func (p *Photo) Scale(factor float64, about mgl64.Vec2) {
	p.center = about.Add(p.center.Sub(about).Mul(factor))
	p.scale *= factor
}

// Rotate turns the photo by theta radians about its center.
func (p *Photo) Rotate(theta float64) {
	p.angle += theta
}

func (p *Photo) FlipH() { p.flipH = !p.flipH }
func (p *Photo) FlipV() { p.flipV = !p.flipV }

// Placement is the local transform a renderer applies to the unit image quad.
func (p *Photo) Placement() geom.Affine2D {
	sx, sy := p.scale, p.scale
	if p.flipH {
		sx = -sx
	}
	if p.flipV {
		sy = -sy
	}
	return geom.Placement(p.center.X(), p.center.Y(), sx, sy, p.angle)
}
