package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// PromptByKey returns the content of the prompt template stored under key.
func (s *Store) PromptByKey(ctx context.Context, key string) (string, error) {
	var content string
	err := s.pool.QueryRow(ctx, `SELECT content FROM prompts WHERE key = $1`, key).Scan(&content)
	if err != nil {
		return "", fmt.Errorf("get prompt %s: %w", key, notFound(err))
	}
	return content, nil
}

// UpsertPrompt stores content under key, replacing any existing template.
func (s *Store) UpsertPrompt(ctx context.Context, key, content string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO prompts (id, key, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET content = EXCLUDED.content, updated_at = now()`,
		uuid.New(), key, content,
	)
	if err != nil {
		return fmt.Errorf("upsert prompt %s: %w", key, err)
	}
	return nil
}
