package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
)

// Collection names become table names; restrict them before interpolation.
var collectionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// PgVectorStore implements port.VectorStore on Postgres with the pgvector
// extension. One table per collection, primary key (video_id, chunk_index),
// cosine distance for ranking.
type PgVectorStore struct {
	store *PostgresStore
}

// NewPgVectorStore creates a vector store backed by the given Postgres store.
func NewPgVectorStore(store *PostgresStore) *PgVectorStore {
	return &PgVectorStore{store: store}
}

// EnsureCollection creates the collection table if absent. Returns
// port.ErrSchemaConflict if the table exists with a different dimension.
func (v *PgVectorStore) EnsureCollection(ctx context.Context, collection string, dim int) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if dim <= 0 {
		return fmt.Errorf("%w: dimension %d must be positive", port.ErrSchemaConflict, dim)
	}

	var existingDim sql.NullInt64
	err := v.store.db.QueryRowContext(ctx, `
		SELECT a.atttypmod
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		WHERE c.relname = $1 AND a.attname = 'vector'`, collection,
	).Scan(&existingDim)

	switch {
	case err == nil:
		// pg_attribute.atttypmod carries the declared vector dimension.
		if int(existingDim.Int64) != dim {
			return fmt.Errorf("%w: collection %q has dimension %d, want %d",
				port.ErrSchemaConflict, collection, existingDim.Int64, dim)
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		// Table absent, create it below.
	default:
		return fmt.Errorf("%w: inspect collection %q: %v", port.ErrStoreUnavailable, collection, err)
	}

	create := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			video_id    TEXT NOT NULL,
			chunk_index INT  NOT NULL,
			content     TEXT NOT NULL,
			vector      vector(%d) NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (video_id, chunk_index)
		)`, collection, dim)
	if _, err := v.store.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("%w: create collection %q: %v", port.ErrStoreUnavailable, collection, err)
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_video ON %s (video_id)`, collection, collection)
	if _, err := v.store.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("%w: index collection %q: %v", port.ErrStoreUnavailable, collection, err)
	}
	return nil
}

// Upsert inserts or replaces records keyed by (video_id, chunk_index) in one
// transaction, so a batch becomes searchable atomically.
func (v *PgVectorStore) Upsert(ctx context.Context, collection string, records []domain.EmbeddingRecord) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	dim := len(records[0].Vector)
	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: record %s/%d has dimension %d, batch has %d",
				port.ErrSchemaConflict, r.VideoID, r.ChunkIndex, len(r.Vector), dim)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", port.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (video_id, chunk_index, content, vector)
		VALUES ($1, $2, $3, $4::vector)
		ON CONFLICT (video_id, chunk_index)
		DO UPDATE SET content = EXCLUDED.content, vector = EXCLUDED.vector`, collection))
	if err != nil {
		return fmt.Errorf("%w: prepare upsert: %v", port.ErrStoreUnavailable, err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.VideoID, r.ChunkIndex, r.Text, vectorToString(r.Vector)); err != nil {
			return fmt.Errorf("%w: upsert %s/%d: %v", port.ErrStoreUnavailable, r.VideoID, r.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert: %v", port.ErrStoreUnavailable, err)
	}
	return nil
}

// Search returns the topK records for videoID ranked by cosine similarity,
// ties broken by ascending chunk index for reproducible ordering.
func (v *PgVectorStore) Search(ctx context.Context, collection string, queryVector []float32, topK int, videoID string) ([]domain.ScoredChunk, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT video_id, chunk_index, content, 1 - (vector <=> $1::vector) AS similarity
		FROM %s
		WHERE video_id = $2
		ORDER BY vector <=> $1::vector, chunk_index
		LIMIT $3`, collection)

	rows, err := v.store.db.QueryContext(ctx, query, vectorToString(queryVector), videoID, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", port.ErrStoreUnavailable, collection, err)
	}
	defer rows.Close()

	var results []domain.ScoredChunk
	for rows.Next() {
		var sc domain.ScoredChunk
		if err := rows.Scan(&sc.VideoID, &sc.ChunkIndex, &sc.Text, &sc.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, sc)
	}
	return results, rows.Err()
}

// HasVideo reports whether at least one record exists for videoID.
func (v *PgVectorStore) HasVideo(ctx context.Context, collection, videoID string) (bool, error) {
	if err := validateCollection(collection); err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE video_id = $1)`, collection)
	if err := v.store.db.QueryRowContext(ctx, query, videoID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: has video %s: %v", port.ErrStoreUnavailable, videoID, err)
	}
	return exists, nil
}

// CountVideo returns the number of records stored for videoID.
func (v *PgVectorStore) CountVideo(ctx context.Context, collection, videoID string) (int, error) {
	if err := validateCollection(collection); err != nil {
		return 0, err
	}

	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE video_id = $1`, collection)
	if err := v.store.db.QueryRowContext(ctx, query, videoID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count video %s: %v", port.ErrStoreUnavailable, videoID, err)
	}
	return count, nil
}

// DeleteVideo removes all records for videoID.
func (v *PgVectorStore) DeleteVideo(ctx context.Context, collection, videoID string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE video_id = $1`, collection)
	if _, err := v.store.db.ExecContext(ctx, query, videoID); err != nil {
		return fmt.Errorf("%w: delete video %s: %v", port.ErrStoreUnavailable, videoID, err)
	}
	return nil
}

func validateCollection(name string) error {
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	return nil
}

// vectorToString converts a float32 slice to pgvector text format: [0.1,0.2].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
