package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixScene    = "scene"
	PrefixCanvas   = "cnv"
	PrefixStroke   = "strk"
	PrefixPhoto    = "photo"
	PrefixSnapshot = "snap"
	PrefixTexture  = "tex"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewSceneID() string    { return New(PrefixScene) }
func NewCanvasID() string   { return New(PrefixCanvas) }
func NewStrokeID() string   { return New(PrefixStroke) }
func NewPhotoID() string    { return New(PrefixPhoto) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewTextureID() string  { return New(PrefixTexture) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
