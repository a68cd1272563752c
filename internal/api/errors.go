package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/inamate/sketchplane/internal/command"
	"github.com/inamate/sketchplane/internal/engine"
	"github.com/inamate/sketchplane/internal/entity"
	"github.com/inamate/sketchplane/internal/geom"
	"github.com/inamate/sketchplane/internal/history"
	"github.com/inamate/sketchplane/internal/store"
)

// statusFor maps a domain error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, command.ErrInvalidArgument),
		errors.Is(err, entity.ErrInvalidCurve),
		errors.Is(err, entity.ErrColorMismatch):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, history.ErrNothingToUndo),
		errors.Is(err, history.ErrNothingToRedo),
		errors.Is(err, engine.ErrNoCurrentCanvas),
		errors.Is(err, engine.ErrNoPreviousCanvas),
		errors.Is(err, engine.ErrNoSelection),
		errors.Is(err, engine.ErrNoCurrentPhoto),
		errors.Is(err, entity.ErrOwnership),
		errors.Is(err, command.ErrDangling):
		return http.StatusConflict
	case errors.Is(err, geom.ErrRayParallel),
		errors.Is(err, geom.ErrDegenerate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func handleEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("engine error", "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
