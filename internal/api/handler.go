// Package api maps HTTP requests onto engine intents.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/mux"

	"github.com/inamate/sketchplane/internal/document"
	"github.com/inamate/sketchplane/internal/engine"
	"github.com/inamate/sketchplane/internal/entity"
	"github.com/inamate/sketchplane/internal/geom"
	"github.com/inamate/sketchplane/internal/typeid"
)

// Saver persists a scene document and returns the stored version.
type Saver interface {
	Save(ctx context.Context, sceneID string, doc *document.Document) (int, error)
}

type Handler struct {
	engine *engine.Engine
	saver  Saver
}

// NewHandler serves e. saver may be nil, in which case saving is unavailable.
func NewHandler(e *engine.Engine, saver Saver) *Handler {
	return &Handler{engine: e, saver: saver}
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/scene", h.GetScene).Methods("GET")
	r.HandleFunc("/scene", h.LoadScene).Methods("PUT")
	r.HandleFunc("/render", h.Render).Methods("GET")
	r.HandleFunc("/history", h.History).Methods("GET")
	r.HandleFunc("/undo", h.Undo).Methods("POST")
	r.HandleFunc("/redo", h.Redo).Methods("POST")
	r.HandleFunc("/save", h.Save).Methods("POST")

	r.HandleFunc("/canvases", h.AddCanvas).Methods("POST")
	r.HandleFunc("/canvases/{canvasId}", h.DeleteCanvas).Methods("DELETE")
	r.HandleFunc("/canvases/{canvasId}/current", h.SetCanvasCurrent).Methods("POST")
	r.HandleFunc("/canvases/{canvasId}/strokes", h.AddStroke).Methods("POST")
	r.HandleFunc("/canvases/{canvasId}/strokes/{strokeId}", h.DeleteStroke).Methods("DELETE")
	r.HandleFunc("/canvases/{canvasId}/select", h.Select).Methods("POST")
	r.HandleFunc("/canvases/{canvasId}/hit", h.HitTest).Methods("POST")
	r.HandleFunc("/canvases/{canvasId}/photos", h.AddPhoto).Methods("POST")
	r.HandleFunc("/canvases/{canvasId}/photos/{photoId}", h.DeletePhoto).Methods("DELETE")
	r.HandleFunc("/canvases/{canvasId}/photos/{photoId}/current", h.SetPhotoCurrent).Methods("POST")

	r.HandleFunc("/canvas/offset", h.OffsetCanvas).Methods("POST")
	r.HandleFunc("/canvas/rotate", h.RotateCanvas).Methods("POST")

	r.HandleFunc("/strokes/move", h.MoveStrokes).Methods("POST")
	r.HandleFunc("/strokes/scale", h.ScaleStrokes).Methods("POST")
	r.HandleFunc("/strokes/rotate", h.RotateStrokes).Methods("POST")
	r.HandleFunc("/strokes/push", h.PushStrokes).Methods("POST")
	r.HandleFunc("/strokes/delete", h.DeleteSelectedStrokes).Methods("POST")

	r.HandleFunc("/cut", h.Cut).Methods("POST")
	r.HandleFunc("/copy", h.Copy).Methods("POST")
	r.HandleFunc("/paste", h.Paste).Methods("POST")

	r.HandleFunc("/photo/move", h.MovePhoto).Methods("POST")
	r.HandleFunc("/photo/scale", h.ScalePhoto).Methods("POST")
	r.HandleFunc("/photo/rotate", h.RotatePhoto).Methods("POST")
	r.HandleFunc("/photo/flip", h.FlipPhoto).Methods("POST")
	r.HandleFunc("/photo/push", h.PushPhoto).Methods("POST")
}

// --- Scene and history ---

func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) LoadScene(w http.ResponseWriter, r *http.Request) {
	var doc document.Document
	if !decode(w, r, &doc) {
		return
	}
	if err := h.engine.Load(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	commands := h.engine.Render()
	if commands == nil {
		commands = []engine.DrawCommand{}
	}
	writeJSON(w, http.StatusOK, commands)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.History())
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.engine.Undo())
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.engine.Redo())
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if h.saver == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no store configured"})
		return
	}
	doc := h.engine.Snapshot()
	version, err := h.saver.Save(r.Context(), doc.Scene.ID, doc)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sceneId": doc.Scene.ID, "version": version})
}

// --- Canvases ---

type addCanvasRequest struct {
	Name        string      `json:"name"`
	Rotation    *[4]float64 `json:"rotation"` // x, y, z, w
	Translation [3]float64  `json:"translation"`
}

func (h *Handler) AddCanvas(w http.ResponseWriter, r *http.Request) {
	var req addCanvasRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	spec := entity.CanvasSpec{Name: req.Name, Translation: mgl64.Vec3(req.Translation)}
	if req.Rotation != nil {
		q := req.Rotation
		spec.Rotation = mgl64.Quat{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}
	}
	id := h.engine.AddCanvas(spec)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) DeleteCanvas(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := pathID(w, r, "canvasId", typeid.PrefixCanvas)
	if !ok {
		return
	}
	h.respond(w, h.engine.DeleteCanvas(canvasID))
}

func (h *Handler) SetCanvasCurrent(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := pathID(w, r, "canvasId", typeid.PrefixCanvas)
	if !ok {
		return
	}
	h.respond(w, h.engine.SetCanvasCurrent(canvasID))
}

type offsetRequest struct {
	Delta [3]float64 `json:"delta"`
}

func (h *Handler) OffsetCanvas(w http.ResponseWriter, r *http.Request) {
	var req offsetRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.OffsetCanvas(mgl64.Vec3(req.Delta)))
}

type rotateCanvasRequest struct {
	Angle float64    `json:"angle"` // radians
	Axis  [3]float64 `json:"axis"`
}

func (h *Handler) RotateCanvas(w http.ResponseWriter, r *http.Request) {
	var req rotateCanvasRequest
	if !decode(w, r, &req) {
		return
	}
	axis := mgl64.Vec3(req.Axis)
	if axis.Len() < geom.Epsilon {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "axis must be non-zero"})
		return
	}
	h.respond(w, h.engine.RotateCanvas(mgl64.QuatRotate(req.Angle, axis.Normalize())))
}

// --- Strokes ---

type addStrokeRequest struct {
	Points [][2]float64 `json:"points"`
	Color  *[4]float64  `json:"color"`
	Colors [][4]float64 `json:"colors"`
	Curved bool         `json:"curved"`
}

func (h *Handler) AddStroke(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := pathID(w, r, "canvasId", typeid.PrefixCanvas)
	if !ok {
		return
	}
	var req addStrokeRequest
	if !decode(w, r, &req) {
		return
	}
	spec := entity.StrokeSpec{Curved: req.Curved}
	for _, p := range req.Points {
		spec.Points = append(spec.Points, mgl64.Vec2(p))
	}
	if req.Color != nil {
		c := mgl64.Vec4(*req.Color)
		spec.Color = &c
	}
	for _, c := range req.Colors {
		spec.Colors = append(spec.Colors, mgl64.Vec4(c))
	}
	id, err := h.engine.AddStroke(canvasID, spec)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) DeleteStroke(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := pathID(w, r, "canvasId", typeid.PrefixCanvas)
	if !ok {
		return
	}
	strokeID, ok := pathID(w, r, "strokeId", typeid.PrefixStroke)
	if !ok {
		return
	}
	h.respond(w, h.engine.DeleteStroke(canvasID, strokeID))
}

type selectRequest struct {
	Strokes []string   `json:"strokes"`
	Rect    *geom.Rect `json:"rect"`
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := pathID(w, r, "canvasId", typeid.PrefixCanvas)
	if !ok {
		return
	}
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Rect != nil {
		ids, err := h.engine.SelectRect(canvasID, *req.Rect)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, map[string][]string{"strokes": ids})
		return
	}
	if err := h.engine.SelectStrokes(canvasID, req.Strokes); err != nil {
		handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"strokes": req.Strokes})
}

type hitRequest struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

func (h *Handler) HitTest(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := pathID(w, r, "canvasId", typeid.PrefixCanvas)
	if !ok {
		return
	}
	var req hitRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.engine.HitTest(canvasID, req.U, req.V)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"objectId": id})
}

type moveRequest struct {
	DU float64 `json:"du"`
	DV float64 `json:"dv"`
}

func (h *Handler) MoveStrokes(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.MoveStrokes(req.DU, req.DV))
}

type scaleRequest struct {
	Scale float64 `json:"scale"`
}

func (h *Handler) ScaleStrokes(w http.ResponseWriter, r *http.Request) {
	var req scaleRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.ScaleStrokes(req.Scale))
}

type rotateRequest struct {
	Angle float64 `json:"angle"` // radians
}

func (h *Handler) RotateStrokes(w http.ResponseWriter, r *http.Request) {
	var req rotateRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.RotateStrokes(req.Angle))
}

type pushStrokesRequest struct {
	Eye [3]float64 `json:"eye"`
}

func (h *Handler) PushStrokes(w http.ResponseWriter, r *http.Request) {
	var req pushStrokesRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.PushStrokes(mgl64.Vec3(req.Eye)))
}

func (h *Handler) DeleteSelectedStrokes(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.engine.DeleteSelectedStrokes())
}

// --- Clipboard ---

type clipboardRequest struct {
	CanvasID string `json:"canvasId"`
}

func (h *Handler) clipboardCanvas(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req clipboardRequest
	if !decodeOptional(w, r, &req) {
		return "", false
	}
	if req.CanvasID != "" {
		if err := typeid.Validate(req.CanvasID, typeid.PrefixCanvas); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return "", false
		}
	}
	return req.CanvasID, true
}

func (h *Handler) Cut(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := h.clipboardCanvas(w, r)
	if !ok {
		return
	}
	h.respond(w, h.engine.Cut(canvasID))
}

func (h *Handler) Copy(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := h.clipboardCanvas(w, r)
	if !ok {
		return
	}
	n, err := h.engine.Copy(canvasID)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"copied": n})
}

func (h *Handler) Paste(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := h.clipboardCanvas(w, r)
	if !ok {
		return
	}
	ids, err := h.engine.Paste(canvasID)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"strokes": ids})
}

// --- Photos ---

type addPhotoRequest struct {
	Name    string     `json:"name"`
	Texture string     `json:"texture"`
	Center  [2]float64 `json:"center"`
	Scale   float64    `json:"scale"`
	Angle   float64    `json:"angle"`
}

func (h *Handler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := pathID(w, r, "canvasId", typeid.PrefixCanvas)
	if !ok {
		return
	}
	var req addPhotoRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Texture == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "texture is required"})
		return
	}
	id, err := h.engine.AddPhoto(canvasID, entity.PhotoSpec{
		Name:    req.Name,
		Texture: entity.Texture(req.Texture),
		Center:  mgl64.Vec2(req.Center),
		Scale:   req.Scale,
		Angle:   req.Angle,
	})
	if err != nil {
		handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := pathID(w, r, "canvasId", typeid.PrefixCanvas)
	if !ok {
		return
	}
	photoID, ok := pathID(w, r, "photoId", typeid.PrefixPhoto)
	if !ok {
		return
	}
	h.respond(w, h.engine.DeletePhoto(canvasID, photoID))
}

func (h *Handler) SetPhotoCurrent(w http.ResponseWriter, r *http.Request) {
	canvasID, ok := pathID(w, r, "canvasId", typeid.PrefixCanvas)
	if !ok {
		return
	}
	photoID, ok := pathID(w, r, "photoId", typeid.PrefixPhoto)
	if !ok {
		return
	}
	h.respond(w, h.engine.SetPhotoCurrent(canvasID, photoID))
}

type movePhotoRequest struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

func (h *Handler) MovePhoto(w http.ResponseWriter, r *http.Request) {
	var req movePhotoRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.MovePhoto(req.U, req.V))
}

func (h *Handler) ScalePhoto(w http.ResponseWriter, r *http.Request) {
	var req scaleRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.ScalePhoto(req.Scale))
}

func (h *Handler) RotatePhoto(w http.ResponseWriter, r *http.Request) {
	var req rotateRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.RotatePhoto(req.Angle))
}

type flipRequest struct {
	Horizontal bool `json:"horizontal"`
}

func (h *Handler) FlipPhoto(w http.ResponseWriter, r *http.Request) {
	var req flipRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.FlipPhoto(req.Horizontal))
}

type pushPhotoRequest struct {
	PhotoID string `json:"photoId"`
}

func (h *Handler) PushPhoto(w http.ResponseWriter, r *http.Request) {
	var req pushPhotoRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	h.respond(w, h.engine.PushPhoto(req.PhotoID))
}

// --- Helpers ---

// respond answers an edit with the resulting history state.
func (h *Handler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.History())
}

func pathID(w http.ResponseWriter, r *http.Request, name, prefix string) (string, bool) {
	id := mux.Vars(r)[name]
	if err := typeid.Validate(id, prefix); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return "", false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// decodeOptional is decode that accepts an empty body.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}
