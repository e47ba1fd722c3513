package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements port.VectorStore on an embedded SQLite database for
// single-node deployments without Postgres. Vectors are stored as
// little-endian float32 blobs; search is a brute-force cosine scan over the
// video's rows, which stays cheap because a video rarely has more than a few
// hundred chunks.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// base schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY on concurrent upserts.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: ping sqlite: %v", port.ErrStoreUnavailable, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dim  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			collection  TEXT NOT NULL,
			video_id    TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content     TEXT NOT NULL,
			vector      BLOB NOT NULL,
			PRIMARY KEY (collection, video_id, chunk_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_video ON embeddings(collection, video_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// EnsureCollection registers the collection if absent; a dimension mismatch
// on an existing one returns port.ErrSchemaConflict.
func (s *SQLiteStore) EnsureCollection(ctx context.Context, collection string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: dimension %d must be positive", port.ErrSchemaConflict, dim)
	}

	var existing int
	err := s.db.QueryRowContext(ctx, `SELECT dim FROM collections WHERE name = ?`, collection).Scan(&existing)
	switch {
	case err == nil:
		if existing != dim {
			return fmt.Errorf("%w: collection %q has dimension %d, want %d",
				port.ErrSchemaConflict, collection, existing, dim)
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO collections (name, dim) VALUES (?, ?)`, collection, dim); err != nil {
			return fmt.Errorf("%w: create collection %q: %v", port.ErrStoreUnavailable, collection, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: inspect collection %q: %v", port.ErrStoreUnavailable, collection, err)
	}
}

func (s *SQLiteStore) collectionDim(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, collection string) (int, error) {
	var dim int
	err := q.QueryRowContext(ctx, `SELECT dim FROM collections WHERE name = ?`, collection).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: unknown collection %q", port.ErrStoreUnavailable, collection)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: inspect collection %q: %v", port.ErrStoreUnavailable, collection, err)
	}
	return dim, nil
}

// Upsert inserts or replaces records in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, collection string, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", port.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	dim, err := s.collectionDim(ctx, tx, collection)
	if err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: record %s/%d has dimension %d, collection %q has %d",
				port.ErrSchemaConflict, r.VideoID, r.ChunkIndex, len(r.Vector), collection, dim)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (collection, video_id, chunk_index, content, vector)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, video_id, chunk_index)
		DO UPDATE SET content = excluded.content, vector = excluded.vector`)
	if err != nil {
		return fmt.Errorf("%w: prepare upsert: %v", port.ErrStoreUnavailable, err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, collection, r.VideoID, r.ChunkIndex, r.Text, encodeVector(r.Vector)); err != nil {
			return fmt.Errorf("%w: upsert %s/%d: %v", port.ErrStoreUnavailable, r.VideoID, r.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert: %v", port.ErrStoreUnavailable, err)
	}
	return nil
}

// Search scans the video's rows and ranks them by cosine similarity in Go.
func (s *SQLiteStore) Search(ctx context.Context, collection string, queryVector []float32, topK int, videoID string) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}
	if _, err := s.collectionDim(ctx, s.db, collection); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT video_id, chunk_index, content, vector
		FROM embeddings WHERE collection = ? AND video_id = ?`, collection, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", port.ErrStoreUnavailable, collection, err)
	}
	defer rows.Close()

	var results []domain.ScoredChunk
	for rows.Next() {
		var sc domain.ScoredChunk
		var blob []byte
		if err := rows.Scan(&sc.VideoID, &sc.ChunkIndex, &sc.Text, &blob); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		sc.Score = cosineSimilarity(queryVector, decodeVector(blob))
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rankChunks(results, topK), nil
}

// HasVideo reports whether at least one record exists for videoID.
func (s *SQLiteStore) HasVideo(ctx context.Context, collection, videoID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM embeddings WHERE collection = ? AND video_id = ?)`,
		collection, videoID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: has video %s: %v", port.ErrStoreUnavailable, videoID, err)
	}
	return exists, nil
}

// CountVideo returns the number of records stored for videoID.
func (s *SQLiteStore) CountVideo(ctx context.Context, collection, videoID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM embeddings WHERE collection = ? AND video_id = ?`,
		collection, videoID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count video %s: %v", port.ErrStoreUnavailable, videoID, err)
	}
	return count, nil
}

// DeleteVideo removes all records for videoID.
func (s *SQLiteStore) DeleteVideo(ctx context.Context, collection, videoID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM embeddings WHERE collection = ? AND video_id = ?`, collection, videoID)
	if err != nil {
		return fmt.Errorf("%w: delete video %s: %v", port.ErrStoreUnavailable, videoID, err)
	}
	return nil
}

// encodeVector packs a float32 slice into a little-endian blob.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian blob into a float32 slice.
func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
