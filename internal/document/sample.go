package document

import (
	"math"

	"github.com/inamate/sketchplane/internal/typeid"
)

// NewSampleDocument returns a small scene: a front canvas holding one stroke
// and a side canvas turned a quarter around Y, with the front one current.
func NewSampleDocument() *Document {
	front := typeid.NewCanvasID()
	side := typeid.NewCanvasID()
	s := math.Sqrt2 / 2

	return &Document{
		Version: CurrentVersion,
		Scene: Scene{
			ID:   typeid.NewSceneID(),
			Name: "Sample",
			Canvases: []Canvas{
				{
					ID:          side,
					Name:        "Canvas0",
					Translation: [3]float64{1, 0, 0},
					Rotation:    [4]float64{0, s, 0, s},
					Strokes:     []Stroke{},
					Photos:      []Photo{},
				},
				{
					ID:          front,
					Name:        "Canvas1",
					Translation: [3]float64{0, 0, 0},
					Rotation:    [4]float64{0, 0, 0, 1},
					Strokes: []Stroke{
						{
							ID:     typeid.NewStrokeID(),
							Points: [][2]float64{{-0.5, -0.5}, {0, 0.25}, {0.5, -0.5}},
							Color:  [4]float64{0, 0, 0, 1},
						},
					},
					Photos: []Photo{},
				},
			},
			Current:    front,
			Previous:   side,
			NextCanvas: 2,
		},
	}
}
