// Package clipboard holds the stroke buffer shared by cut, copy and paste.
package clipboard

import (
	"slices"

	"github.com/inamate/sketchplane/internal/entity"
)

// Buffer owns the strokes most recently cut or copied. It is accessed from the
// single editing goroutine only.
type Buffer struct {
	strokes []*entity.Stroke
}

func New() *Buffer {
	return &Buffer{}
}

// Strokes returns the buffered strokes. The slice is a copy; the strokes are not.
func (b *Buffer) Strokes() []*entity.Stroke {
	return slices.Clone(b.strokes)
}

// Set replaces the buffer contents and returns the previous contents.
func (b *Buffer) Set(strokes []*entity.Stroke) []*entity.Stroke {
	prev := b.strokes
	b.strokes = slices.Clone(strokes)
	return prev
}

// Copy fills the buffer with detached deep copies of strokes.
func (b *Buffer) Copy(strokes []*entity.Stroke) {
	clones := make([]*entity.Stroke, 0, len(strokes))
	for _, s := range strokes {
		if s != nil {
			clones = append(clones, s.Clone())
		}
	}
	b.strokes = clones
}

func (b *Buffer) Len() int { return len(b.strokes) }

func (b *Buffer) Clear() { b.strokes = nil }
