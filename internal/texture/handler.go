// Package texture stores the image data photos refer to by texture handle.
package texture

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/inamate/sketchplane/internal/typeid"
)

const (
	maxUploadSize = 10 << 20 // 10MB

	// MaxDimension bounds the longer side of a stored texture.
	MaxDimension = 4096
)

var acceptedTypes = []string{"image/png", "image/jpeg", "image/webp"}

// UploadResponse is returned from the upload endpoint. URL is the texture
// handle to pass when adding a photo.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// Handler serves texture upload and retrieval endpoints.
type Handler struct {
	dir string
}

func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("create texture dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /textures (multipart form with a "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !accepted(header.Header.Get("Content-Type")) {
		http.Error(w, "only PNG, JPEG and WebP images are supported", http.StatusBadRequest)
		return
	}

	resp, err := h.store(file)
	if err != nil {
		slog.Warn("store texture", "error", err, "name", header.Filename)
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp.Name = header.Filename

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func accepted(contentType string) bool {
	for _, t := range acceptedTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// store decodes src, bounds its size and writes it as PNG.
func (h *Handler) store(src io.Reader) (*UploadResponse, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, err
	}
	img = Fit(img, MaxDimension)
	bounds := img.Bounds()

	id := typeid.NewTextureID()
	filename := id + ".png"
	path := filepath.Join(h.dir, filename)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create texture file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return &UploadResponse{
		ID:     id,
		URL:    "/textures/" + filename,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Fit scales img down so that its longer side is at most limit. Images that
// already fit are returned unchanged.
func Fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}
	if w >= h {
		h = max(1, h*limit/w)
		w = limit
	} else {
		w = max(1, w*limit/h)
		h = limit
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Serve returns an http.Handler for stored textures. Texture ids are unique,
// so files are immutable.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/textures/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes a stored texture.
func (h *Handler) Delete(id string) error {
	if err := typeid.Validate(id, typeid.PrefixTexture); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(h.dir, id+".png")); err != nil {
		return fmt.Errorf("texture not found: %s", id)
	}
	return nil
}
