package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/sketchplane/internal/api"
	"github.com/inamate/sketchplane/internal/collab"
	"github.com/inamate/sketchplane/internal/command"
	"github.com/inamate/sketchplane/internal/config"
	"github.com/inamate/sketchplane/internal/engine"
	"github.com/inamate/sketchplane/internal/store"
	"github.com/inamate/sketchplane/internal/texture"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(engine.Options{HistoryLimit: cfg.HistoryLimit, PasteDelta: cfg.PasteDelta})

	// The store is optional; without DATABASE_URL the scene lives in memory.
	var saver api.Saver
	var snapshots *store.Store
	if cfg.DatabaseURL != "" {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		snapshots = store.New(pool)
		if err := snapshots.Migrate(ctx); err != nil {
			slog.Error("migrate", "error", err)
			os.Exit(1)
		}
		restore(ctx, eng, snapshots)
		saver = snapshots
	} else {
		slog.Warn("DATABASE_URL not set, scene will not be persisted")
	}

	hub := collab.NewHub(eng)
	unsubscribe := eng.Subscribe(hub.Publish)
	defer unsubscribe()
	go hub.Run(ctx)

	if snapshots != nil && cfg.AutosaveInterval > 0 {
		go autosave(ctx, eng, snapshots, cfg.AutosaveInterval)
	}

	textures := texture.NewHandler(cfg.TextureDir)
	apiHandler := api.NewHandler(eng, saver)

	r := mux.NewRouter()
	r.Use(api.Recovery)
	r.Use(api.Logger)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/textures", textures.Upload).Methods("POST")
	r.PathPrefix("/textures/").Handler(textures.Serve()).Methods("GET")

	apiHandler.Routes(r.PathPrefix("/api").Subrouter())

	origins := cfg.Origins()
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, origins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.CORS(origins)(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if snapshots != nil {
			save(shutdownCtx, eng, snapshots)
		}
		cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// restore loads the most recent snapshot into eng, if there is one.
func restore(ctx context.Context, eng *engine.Engine, snapshots *store.Store) {
	snap, err := snapshots.LatestAny(ctx)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("no stored scene, starting empty")
		return
	}
	if err != nil {
		slog.Error("load latest snapshot", "error", err)
		return
	}
	if err := eng.Load(snap.Document); err != nil {
		slog.Error("restore snapshot", "error", err, "snapshot", snap.ID)
		return
	}
	slog.Info("restored scene", "scene", snap.SceneID, "version", snap.Version)
}

// autosave stores the scene every interval, skipping intervals without edits.
func autosave(ctx context.Context, eng *engine.Engine, snapshots *store.Store, interval time.Duration) {
	dirty := make(chan struct{}, 1)
	unsubscribe := eng.Subscribe(func(command.Change) {
		select {
		case dirty <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case <-dirty:
				save(ctx, eng, snapshots)
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

func save(ctx context.Context, eng *engine.Engine, snapshots *store.Store) {
	doc := eng.Snapshot()
	version, err := snapshots.Save(ctx, doc.Scene.ID, doc)
	if err != nil {
		slog.Error("save scene", "error", err)
		return
	}
	slog.Debug("scene saved", "scene", doc.Scene.ID, "version", version)
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, origins []string) {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: patterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(hub, conn, uuid.New().String())
	if !hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
