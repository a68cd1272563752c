package command

import (
	"fmt"
	"math"

	"github.com/inamate/sketchplane/internal/entity"
)

// photoRef resolves the current canvas and its current photo at construction.
type photoRef struct {
	sceneRef
	canvas entity.Ref[*entity.Canvas]
	photo  entity.Ref[*entity.Photo]
}

func observeCurrentPhoto(scene *entity.Scene) (photoRef, *entity.Canvas, *entity.Photo, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return photoRef{}, nil, nil, err
	}
	cnv := scene.Current()
	if cnv == nil {
		return photoRef{}, nil, nil, invalid("no current canvas")
	}
	photo := cnv.PhotoCurrent()
	if photo == nil {
		return photoRef{}, nil, nil, invalid("canvas %s has no current photo", cnv.Name())
	}
	return photoRef{sceneRef: ref, canvas: entity.Observe(cnv), photo: entity.Observe(photo)}, cnv, photo, nil
}

func (r *photoRef) live() (*entity.Canvas, *entity.Photo, error) {
	cnv, err := r.liveCanvas(r.canvas)
	if err != nil {
		return nil, nil, err
	}
	p, ok := r.photo.Get()
	if !ok {
		return nil, nil, dangling("photo")
	}
	return cnv, p, nil
}

// PhotoMove places the current photo at a new center.
type PhotoMove struct {
	photoRef
	u0, v0 float64
	u1, v1 float64
}

func NewPhotoMove(scene *entity.Scene, u, v float64) (*PhotoMove, error) {
	ref, cnv, photo, err := observeCurrentPhoto(scene)
	if err != nil {
		return nil, err
	}
	ref.label = fmt.Sprintf("Move %s within %s", photo.Name(), cnv.Name())
	c := photo.Center()
	return &PhotoMove{photoRef: ref, u0: c.X(), v0: c.Y(), u1: u, v1: v}, nil
}

func (c *PhotoMove) Apply() (Change, error)  { return c.moveTo(c.u1, c.v1) }
func (c *PhotoMove) Revert() (Change, error) { return c.moveTo(c.u0, c.v0) }

func (c *PhotoMove) moveTo(u, v float64) (Change, error) {
	cnv, photo, err := c.live()
	if err != nil {
		return Change{}, err
	}
	photo.Move(u, v)
	return touched(c.label, cnv), nil
}

// PhotoScale scales the current photo about its own center.
type PhotoScale struct {
	photoRef
	scale float64
}

func NewPhotoScale(scene *entity.Scene, scale float64) (*PhotoScale, error) {
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, invalid("photo scale factor %v", scale)
	}
	ref, cnv, photo, err := observeCurrentPhoto(scene)
	if err != nil {
		return nil, err
	}
	ref.label = fmt.Sprintf("Scale %s within %s", photo.Name(), cnv.Name())
	return &PhotoScale{photoRef: ref, scale: scale}, nil
}

func (c *PhotoScale) Apply() (Change, error)  { return c.scaleBy(c.scale) }
func (c *PhotoScale) Revert() (Change, error) { return c.scaleBy(1 / c.scale) }

func (c *PhotoScale) scaleBy(s float64) (Change, error) {
	cnv, photo, err := c.live()
	if err != nil {
		return Change{}, err
	}
	photo.Scale(s, photo.Center())
	return touched(c.label, cnv), nil
}

// PhotoRotate turns the current photo.
type PhotoRotate struct {
	photoRef
	angle float64
}

func NewPhotoRotate(scene *entity.Scene, angle float64) (*PhotoRotate, error) {
	ref, cnv, photo, err := observeCurrentPhoto(scene)
	if err != nil {
		return nil, err
	}
	ref.label = fmt.Sprintf("Rotate %s within %s", photo.Name(), cnv.Name())
	return &PhotoRotate{photoRef: ref, angle: angle}, nil
}

func (c *PhotoRotate) Apply() (Change, error)  { return c.rotateBy(c.angle) }
func (c *PhotoRotate) Revert() (Change, error) { return c.rotateBy(-c.angle) }

func (c *PhotoRotate) rotateBy(theta float64) (Change, error) {
	cnv, photo, err := c.live()
	if err != nil {
		return Change{}, err
	}
	photo.Rotate(theta)
	return touched(c.label, cnv), nil
}

// PhotoFlip mirrors the current photo horizontally or vertically. Both
// directions perform the same flip.
type PhotoFlip struct {
	photoRef
	horizontal bool
}

func NewPhotoFlip(scene *entity.Scene, horizontal bool) (*PhotoFlip, error) {
	ref, cnv, photo, err := observeCurrentPhoto(scene)
	if err != nil {
		return nil, err
	}
	dir := "Vertical"
	if horizontal {
		dir = "Horizontal"
	}
	ref.label = fmt.Sprintf("%s flip photo %s within %s", dir, photo.Name(), cnv.Name())
	return &PhotoFlip{photoRef: ref, horizontal: horizontal}, nil
}

func (c *PhotoFlip) Apply() (Change, error)  { return c.flip() }
func (c *PhotoFlip) Revert() (Change, error) { return c.flip() }

func (c *PhotoFlip) flip() (Change, error) {
	cnv, photo, err := c.live()
	if err != nil {
		return Change{}, err
	}
	if c.horizontal {
		photo.FlipH()
	} else {
		photo.FlipV()
	}
	return touched(c.label, cnv), nil
}

// PhotoDelete detaches a photo from its canvas and owns it until reverted.
type PhotoDelete struct {
	sceneRef
	canvas     entity.Ref[*entity.Canvas]
	photo      *entity.Photo
	index      int
	wasCurrent bool
}

func NewPhotoDelete(scene *entity.Scene, canvas *entity.Canvas, photo *entity.Photo) (*PhotoDelete, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return nil, err
	}
	if !canvas.Alive() {
		return nil, invalid("canvas is nil or destroyed")
	}
	if !photo.Alive() {
		return nil, invalid("photo is nil or destroyed")
	}
	ref.label = fmt.Sprintf("Delete photo from %s", canvas.Name())
	return &PhotoDelete{sceneRef: ref, canvas: entity.Observe(canvas), photo: photo, index: -1}, nil
}

func (c *PhotoDelete) Apply() (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	idx := cnv.IndexOf(c.photo)
	c.wasCurrent = cnv.PhotoCurrent() == c.photo
	if err := cnv.RemoveDrawable(c.photo); err != nil {
		return Change{}, err
	}
	c.index = idx
	return touched(c.label, cnv), nil
}

func (c *PhotoDelete) Revert() (Change, error) {
	cnv, err := c.liveCanvas(c.canvas)
	if err != nil {
		return Change{}, err
	}
	if err := cnv.InsertDrawable(c.photo, c.index); err != nil {
		return Change{}, err
	}
	if c.wasCurrent {
		if err := cnv.SetPhotoCurrent(c.photo); err != nil {
			return Change{}, err
		}
	}
	return touched(c.label, cnv), nil
}

// PhotoPush moves a photo from the current canvas to the previous one and
// binds its texture to the receiving canvas.
type PhotoPush struct {
	sceneRef
	current  entity.Ref[*entity.Canvas]
	previous entity.Ref[*entity.Canvas]
	photo    entity.Ref[*entity.Photo]

	index      int
	wasCurrent bool
	texture    entity.Texture
}

func NewPhotoPush(scene *entity.Scene, current, previous *entity.Canvas, photo *entity.Photo) (*PhotoPush, error) {
	ref, err := observeScene(scene)
	if err != nil {
		return nil, err
	}
	if !current.Alive() || !previous.Alive() {
		return nil, invalid("photo push needs both a current and a previous canvas")
	}
	if current == previous {
		return nil, invalid("photo push source and target are the same canvas %s", current.Name())
	}
	if !photo.Alive() {
		return nil, invalid("photo is nil or destroyed")
	}
	ref.label = fmt.Sprintf("Move photo %s from canvas %s to canvas %s", photo.Name(), current.Name(), previous.Name())
	return &PhotoPush{
		sceneRef: ref,
		current:  entity.Observe(current),
		previous: entity.Observe(previous),
		photo:    entity.Observe(photo),
		index:    -1,
	}, nil
}

func (c *PhotoPush) live() (*entity.Canvas, *entity.Canvas, *entity.Photo, error) {
	src, err := c.liveCanvas(c.current)
	if err != nil {
		return nil, nil, nil, err
	}
	dst, err := c.liveCanvas(c.previous)
	if err != nil {
		return nil, nil, nil, err
	}
	p, ok := c.photo.Get()
	if !ok {
		return nil, nil, nil, dangling("photo")
	}
	return src, dst, p, nil
}

func (c *PhotoPush) Apply() (Change, error) {
	src, dst, photo, err := c.live()
	if err != nil {
		return Change{}, err
	}
	idx := src.IndexOf(photo)
	wasCurrent := src.PhotoCurrent() == photo
	if err := src.RemoveDrawable(photo); err != nil {
		return Change{}, err
	}
	if err := dst.AddDrawable(photo); err != nil {
		// Put it back where it was.
		_ = src.InsertDrawable(photo, idx)
		if wasCurrent {
			_ = src.SetPhotoCurrent(photo)
		}
		return Change{}, err
	}
	c.index, c.wasCurrent = idx, wasCurrent
	c.texture = dst.Texture()
	dst.SetTexture(photo.Texture())
	return touched(c.label, src, dst), nil
}

func (c *PhotoPush) Revert() (Change, error) {
	src, dst, photo, err := c.live()
	if err != nil {
		return Change{}, err
	}
	if err := dst.RemoveDrawable(photo); err != nil {
		return Change{}, err
	}
	if err := src.InsertDrawable(photo, c.index); err != nil {
		_ = dst.AddDrawable(photo)
		return Change{}, err
	}
	dst.SetTexture(c.texture)
	if c.wasCurrent {
		if err := src.SetPhotoCurrent(photo); err != nil {
			return Change{}, err
		}
	}
	return touched(c.label, src, dst), nil
}
