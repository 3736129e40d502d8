// Package todo holds the server-side collection storage and the sync
// endpoint. Each email owns exactly one collection; a sync replaces it
// wholesale and echoes the stored state back.
package todo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fribble186/todos/internal/model"
)

// Store manages per-email collection persistence.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the stored collection for the email. A missing row reads
// as an empty collection.
func (s *Store) Get(ctx context.Context, email string) ([]model.Task, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM collections WHERE email=?`, email).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(payload), &tasks); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	return tasks, nil
}

// Replace overwrites the email's collection with the given tasks.
func (s *Store) Replace(ctx context.Context, email string, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections(email, payload, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		email, string(payload), now)
	if err != nil {
		return fmt.Errorf("replace collection: %w", err)
	}
	return nil
}
