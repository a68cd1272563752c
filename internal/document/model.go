package document

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/entity"
)

// CurrentVersion is the document format version written by FromScene.
const CurrentVersion = 1

type Document struct {
	Version int   `json:"version"`
	Scene   Scene `json:"scene"`
}

type Scene struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Canvases   []Canvas `json:"canvases"`
	Current    string   `json:"current,omitempty"`
	Previous   string   `json:"previous,omitempty"`
	NextCanvas uint     `json:"nextCanvas"`
	NextNode   uint     `json:"nextNode"`
}

type Canvas struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"` // x, y, z, w
	Texture     string     `json:"texture,omitempty"`
	Strokes     []Stroke   `json:"strokes"`
	Photos      []Photo    `json:"photos"`
	PhotoActive string     `json:"photoCurrent,omitempty"`
}

type Stroke struct {
	ID       string       `json:"id"`
	Points   [][2]float64 `json:"points"`
	Color    [4]float64   `json:"color"`
	Colors   [][4]float64 `json:"colors,omitempty"`
	Curved   bool         `json:"curved"`
	Selected bool         `json:"selected,omitempty"`
}

type Photo struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Texture string     `json:"texture"`
	Center  [2]float64 `json:"center"`
	Scale   float64    `json:"scale"`
	Angle   float64    `json:"angle"`
	FlipH   bool       `json:"flipH,omitempty"`
	FlipV   bool       `json:"flipV,omitempty"`
}

// FromScene captures the current state of a scene as a document.
func FromScene(s *entity.Scene) *Document {
	nextCanvas, nextNode := s.Counters()
	doc := &Document{
		Version: CurrentVersion,
		Scene: Scene{
			ID:         s.ID(),
			Name:       s.Name(),
			Canvases:   []Canvas{},
			NextCanvas: nextCanvas,
			NextNode:   nextNode,
		},
	}
	if c := s.Current(); c != nil {
		doc.Scene.Current = c.ID()
	}
	if c := s.Previous(); c != nil {
		doc.Scene.Previous = c.ID()
	}

	for _, c := range s.Canvases() {
		q := c.Rotation()
		t := c.Translation()
		dc := Canvas{
			ID:          c.ID(),
			Name:        c.Name(),
			Translation: [3]float64{t.X(), t.Y(), t.Z()},
			Rotation:    [4]float64{q.V.X(), q.V.Y(), q.V.Z(), q.W},
			Texture:     string(c.Texture()),
			Strokes:     []Stroke{},
			Photos:      []Photo{},
		}
		if p := c.PhotoCurrent(); p != nil {
			dc.PhotoActive = p.ID()
		}
		for _, d := range c.Drawables() {
			switch v := d.(type) {
			case *entity.Stroke:
				dc.Strokes = append(dc.Strokes, strokeDoc(v))
			case *entity.Photo:
				dc.Photos = append(dc.Photos, photoDoc(v))
			}
		}
		doc.Scene.Canvases = append(doc.Scene.Canvases, dc)
	}
	return doc
}

func strokeDoc(s *entity.Stroke) Stroke {
	col := s.Color()
	ds := Stroke{
		ID:       s.ID(),
		Points:   make([][2]float64, 0, s.NumPoints()),
		Color:    [4]float64{col[0], col[1], col[2], col[3]},
		Curved:   s.IsCurved(),
		Selected: s.Selected(),
	}
	for _, v := range s.Vertices() {
		ds.Points = append(ds.Points, [2]float64{v.X(), v.Y()})
	}
	uniform := true
	colors := s.Colors()
	for _, c := range colors {
		if c != col {
			uniform = false
			break
		}
	}
	if !uniform {
		for _, c := range colors {
			ds.Colors = append(ds.Colors, [4]float64{c[0], c[1], c[2], c[3]})
		}
	}
	return ds
}

func photoDoc(p *entity.Photo) Photo {
	c := p.Center()
	return Photo{
		ID:      p.ID(),
		Name:    p.Name(),
		Texture: string(p.Texture()),
		Center:  [2]float64{c.X(), c.Y()},
		Scale:   p.ScaleFactor(),
		Angle:   p.Angle(),
		FlipH:   p.FlippedH(),
		FlipV:   p.FlippedV(),
	}
}

// Build reconstructs a live scene from a document.
func Build(doc *Document) (*entity.Scene, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	if doc.Version > CurrentVersion {
		return nil, fmt.Errorf("unsupported document version %d", doc.Version)
	}

	s := entity.NewScene(doc.Scene.ID, doc.Scene.Name)
	for i, dc := range doc.Scene.Canvases {
		r := dc.Rotation
		c := s.AddCanvas(entity.CanvasSpec{
			ID:          dc.ID,
			Name:        dc.Name,
			Rotation:    mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}},
			Translation: mgl64.Vec3(dc.Translation),
		})
		c.SetTexture(entity.Texture(dc.Texture))

		for j, ds := range dc.Strokes {
			if _, err := buildStroke(s, c, ds); err != nil {
				return nil, fmt.Errorf("canvas %d stroke %d: %w", i, j, err)
			}
		}
		for j, dp := range dc.Photos {
			_, err := s.AddPhoto(c, entity.PhotoSpec{
				ID:      dp.ID,
				Name:    dp.Name,
				Texture: entity.Texture(dp.Texture),
				Center:  mgl64.Vec2(dp.Center),
				Scale:   dp.Scale,
				Angle:   dp.Angle,
				FlipH:   dp.FlipH,
				FlipV:   dp.FlipV,
			})
			if err != nil {
				return nil, fmt.Errorf("canvas %d photo %d: %w", i, j, err)
			}
		}
		var active *entity.Photo
		for _, p := range c.Photos() {
			if p.ID() == dc.PhotoActive {
				active = p
			}
		}
		if err := c.SetPhotoCurrent(active); err != nil {
			return nil, err
		}
	}

	current, _ := s.CanvasByID(doc.Scene.Current)
	previous, _ := s.CanvasByID(doc.Scene.Previous)
	if err := s.RestoreCanvasPointers(current, previous); err != nil {
		return nil, err
	}
	s.RestoreCounters(doc.Scene.NextCanvas, doc.Scene.NextNode)
	return s, nil
}

func buildStroke(s *entity.Scene, c *entity.Canvas, ds Stroke) (*entity.Stroke, error) {
	col := mgl64.Vec4(ds.Color)
	spec := entity.StrokeSpec{
		ID:     ds.ID,
		Points: make([]mgl64.Vec2, len(ds.Points)),
		Color:  &col,
		Curved: ds.Curved,
	}
	for i, p := range ds.Points {
		spec.Points[i] = mgl64.Vec2(p)
	}
	for _, c := range ds.Colors {
		spec.Colors = append(spec.Colors, mgl64.Vec4(c))
	}
	st, err := s.AddStroke(c, spec)
	if err != nil {
		return nil, err
	}
	if ds.Selected {
		if err := c.SelectStroke(st); err != nil {
			return nil, err
		}
	}
	return st, nil
}
