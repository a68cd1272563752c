// Package store persists scene documents as versioned snapshots in Postgres.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/sketchplane/internal/document"
	"github.com/inamate/sketchplane/internal/typeid"
)

var ErrNotFound = errors.New("snapshot not found")

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

// NewPool connects to databaseURL and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	scene_id   TEXT NOT NULL,
	version    INTEGER NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (scene_id, version)
)`

// Migrate creates the snapshots table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate snapshots: %w", err)
	}
	return nil
}

type Snapshot struct {
	ID        string             `json:"id"`
	SceneID   string             `json:"sceneId"`
	Version   int                `json:"version"`
	Document  *document.Document `json:"document"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Save stores doc as the next version of sceneID and returns that version.
func (s *Store) Save(ctx context.Context, sceneID string, doc *document.Document) (int, error) {
	if doc == nil {
		return 0, errors.New("save nil document")
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal document: %w", err)
	}

	var version int
	err = s.db.QueryRow(ctx, `
		INSERT INTO snapshots (id, scene_id, version, document)
		SELECT $1::text, $2::text, COALESCE(MAX(version), 0) + 1, $3::jsonb
		FROM snapshots WHERE scene_id = $2
		RETURNING version`,
		typeid.NewSnapshotID(), sceneID, string(docJSON),
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	return version, nil
}

// Latest returns the highest version stored for sceneID.
func (s *Store) Latest(ctx context.Context, sceneID string) (*Snapshot, error) {
	return scanSnapshot(s.db.QueryRow(ctx, `
		SELECT id, scene_id, version, document, created_at
		FROM snapshots WHERE scene_id = $1
		ORDER BY version DESC LIMIT 1`, sceneID))
}

// LatestAny returns the most recently written snapshot of any scene.
func (s *Store) LatestAny(ctx context.Context) (*Snapshot, error) {
	return scanSnapshot(s.db.QueryRow(ctx, `
		SELECT id, scene_id, version, document, created_at
		FROM snapshots ORDER BY created_at DESC, version DESC LIMIT 1`))
}

// Versions lists the stored versions of sceneID, newest first.
func (s *Store) Versions(ctx context.Context, sceneID string) ([]int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT version FROM snapshots WHERE scene_id = $1 ORDER BY version DESC`, sceneID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return versions, nil
}

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var (
		snap    Snapshot
		docJSON []byte
	)
	if err := row.Scan(&snap.ID, &snap.SceneID, &snap.Version, &docJSON, &snap.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var doc document.Document
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	snap.Document = &doc
	return &snap, nil
}
