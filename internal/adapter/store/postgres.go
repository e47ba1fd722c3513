package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
	"github.com/google/uuid"
)

// PostgresStore handles the relational side: connection pooling, schema
// bootstrap, and conversation persistence. The pgvector side lives in
// PgVectorStore, which shares this connection.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, verifies it, and ensures the base
// schema (pgvector extension + conversation tables) exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: ping database: %v", port.ErrStoreUnavailable, err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB, shared with the vector store.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS conversations (
			session_id UUID PRIMARY KEY,
			video_id   TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_messages (
			id         BIGSERIAL PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES conversations(session_id) ON DELETE CASCADE,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_video ON conversations(video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON conversation_messages(session_id, id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Conversations ---

// CreateConversation opens a new empty session for a video.
func (s *PostgresStore) CreateConversation(ctx context.Context, videoID string) (string, error) {
	sessionID := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (session_id, video_id) VALUES ($1, $2)`,
		sessionID, videoID,
	)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return sessionID, nil
}

// AppendMessages adds turns to an existing session.
func (s *PostgresStore) AppendMessages(ctx context.Context, sessionID string, messages []domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM conversations WHERE session_id = $1)`, sessionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", port.ErrSessionNotFound, sessionID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO conversation_messages (session_id, role, content) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		if _, err := stmt.ExecContext(ctx, sessionID, m.Role, m.Content); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = NOW() WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	return tx.Commit()
}

// GetConversation loads a session with its messages, oldest first.
func (s *PostgresStore) GetConversation(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, video_id, created_at, updated_at FROM conversations WHERE session_id = $1`,
		sessionID,
	).Scan(&conv.SessionID, &conv.VideoID, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", port.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM conversation_messages WHERE session_id = $1 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		conv.Messages = append(conv.Messages, m)
	}
	return &conv, rows.Err()
}

// ListConversations returns session summaries for a video, most recent first.
func (s *PostgresStore) ListConversations(ctx context.Context, videoID string) ([]domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, video_id, created_at, updated_at
		 FROM conversations WHERE video_id = $1 ORDER BY updated_at DESC`,
		videoID,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.SessionID, &c.VideoID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}
