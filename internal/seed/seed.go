// Package seed loads the built-in questionnaire deck and reading prompt into
// the store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/sibyl/internal/store"
)

//go:embed deck.yaml
var deckYAML []byte

// Deck is a questionnaire category plus the prompt template its answers feed.
type Deck struct {
	Category  string                `yaml:"category"`
	PromptKey string                `yaml:"prompt_key"`
	Prompt    string                `yaml:"prompt"`
	Questions []store.QuestionInput `yaml:"questions"`
}

// Target is where a deck is written.
type Target interface {
	UpsertPrompt(ctx context.Context, key, content string) error
	ReplaceCategory(ctx context.Context, category string, qs []store.QuestionInput) error
}

// Load parses a deck and checks every question.
func Load(data []byte) (*Deck, error) {
	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse deck: %w", err)
	}
	if d.Category == "" {
		return nil, fmt.Errorf("deck has no category")
	}
	if d.PromptKey == "" || strings.TrimSpace(d.Prompt) == "" {
		return nil, fmt.Errorf("deck %s has no prompt", d.Category)
	}
	for i := range d.Questions {
		d.Questions[i].Category = d.Category
		if err := d.Questions[i].Validate(); err != nil {
			return nil, fmt.Errorf("deck %s question %d: %w", d.Category, i+1, err)
		}
	}
	return &d, nil
}

// Default is the embedded turning-of-the-year deck.
func Default() (*Deck, error) {
	return Load(deckYAML)
}

// Seed writes the deck's prompt and replaces its category's questions.
func Seed(ctx context.Context, t Target, d *Deck, logger *slog.Logger) error {
	if err := t.UpsertPrompt(ctx, d.PromptKey, d.Prompt); err != nil {
		return fmt.Errorf("seed prompt: %w", err)
	}
	logger.Info("seeded prompt", "key", d.PromptKey)

	if err := t.ReplaceCategory(ctx, d.Category, d.Questions); err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	logger.Info("seeded questions", "category", d.Category, "count", len(d.Questions))
	return nil
}
