// Package docstore persists the document catalog and chat history in
// SQLite. It sits beside the vector index; search correctness never depends
// on it.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// SQLiteStore implements ports.DocumentStore.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the store under dataPath.
func NewSQLiteStore(dataPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(dataPath, "docchat.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS conversation_turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		sources TEXT NOT NULL,
		model TEXT NOT NULL,
		temperature REAL NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveDocument records one ingested document.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *entities.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, type, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, string(doc.Type), doc.Content, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// ListDocuments returns all ingested documents, oldest first.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]entities.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, content, created_at
		FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []entities.Document
	for rows.Next() {
		var doc entities.Document
		var docType string
		if err := rows.Scan(&doc.ID, &doc.Name, &docType, &doc.Content, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Type = entities.DocumentType(docType)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SaveTurn appends one conversation turn to the chat history.
func (s *SQLiteStore) SaveTurn(ctx context.Context, turn *entities.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources, err := json.Marshal(turn.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (question, answer, sources, model, temperature, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		turn.Question, turn.Answer, string(sources), turn.Model, turn.Temperature, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		turn.ID = id
	}
	return nil
}

// ListTurns returns the most recent limit turns, oldest first.
func (s *SQLiteStore) ListTurns(ctx context.Context, limit int) ([]entities.ConversationTurn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, answer, sources, model, temperature, created_at
		FROM (
			SELECT * FROM conversation_turns ORDER BY id DESC LIMIT ?
		) ORDER BY id`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []entities.ConversationTurn
	for rows.Next() {
		var turn entities.ConversationTurn
		var sources string
		if err := rows.Scan(&turn.ID, &turn.Question, &turn.Answer, &sources, &turn.Model, &turn.Temperature, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &turn.Sources); err != nil {
			return nil, fmt.Errorf("decoding sources: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Reset drops all documents and chat history.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM conversation_turns"); err != nil {
		return fmt.Errorf("clearing turns: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
