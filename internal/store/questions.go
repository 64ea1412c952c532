package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/sibyl/internal/reading"
)

type Question struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Options   []string  `json:"options"`
	Order     int       `json:"order"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Option is one decoded answer choice.
type Option struct {
	Value       string `json:"value"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ParseOption splits an option encoded as "value|Title|Description". A
// missing title falls back to the value; a bare string is all three.
func ParseOption(raw string) Option {
	parts := strings.SplitN(raw, "|", 3)
	o := Option{Value: strings.TrimSpace(parts[0])}
	o.Title = o.Value
	if len(parts) > 1 {
		if t := strings.TrimSpace(parts[1]); t != "" {
			o.Title = t
		}
	}
	if len(parts) > 2 {
		o.Description = strings.TrimSpace(parts[2])
	}
	return o
}

// ParsedOptions decodes every option of the question.
func (q Question) ParsedOptions() []Option {
	out := make([]Option, len(q.Options))
	for i, raw := range q.Options {
		out[i] = ParseOption(raw)
	}
	return out
}

// QuestionInput is the body for creating a question.
type QuestionInput struct {
	Text     string   `json:"text" yaml:"text"`
	Options  []string `json:"options" yaml:"options"`
	Order    int      `json:"order" yaml:"order"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
}

func (in QuestionInput) Validate() error {
	var v []string
	if strings.TrimSpace(in.Text) == "" {
		v = append(v, "text is required")
	}
	if len(in.Options) < 2 {
		v = append(v, fmt.Sprintf("options must have at least 2 entries, got %d", len(in.Options)))
	}
	if in.Order < 0 {
		v = append(v, fmt.Sprintf("order must be >= 0, got %d", in.Order))
	}
	if len(v) > 0 {
		return &reading.ValidationError{Violations: v}
	}
	return nil
}

// QuestionPatch is a partial update; nil fields are left unchanged.
type QuestionPatch struct {
	Text     *string   `json:"text,omitempty"`
	Options  *[]string `json:"options,omitempty"`
	Order    *int      `json:"order,omitempty"`
	Category *string   `json:"category,omitempty"`
}

func (p QuestionPatch) Validate() error {
	var v []string
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		v = append(v, "text must not be empty")
	}
	if p.Options != nil && len(*p.Options) < 2 {
		v = append(v, fmt.Sprintf("options must have at least 2 entries, got %d", len(*p.Options)))
	}
	if p.Order != nil && *p.Order < 0 {
		v = append(v, fmt.Sprintf("order must be >= 0, got %d", *p.Order))
	}
	if len(v) > 0 {
		return &reading.ValidationError{Violations: v}
	}
	return nil
}

const questionColumns = `id, text, options, sort_order, COALESCE(category, ''), created_at, updated_at`

func scanQuestion(row pgx.Row) (Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.Text, &q.Options, &q.Order, &q.Category, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func (s *Store) queryQuestions(ctx context.Context, sql string, args ...any) ([]Question, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ListQuestions returns every question in ascending display order.
func (s *Store) ListQuestions(ctx context.Context) ([]Question, error) {
	qs, err := s.queryQuestions(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY sort_order ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return qs, nil
}

// QuestionsByCategory returns the questions of one category, highest order
// first.
func (s *Store) QuestionsByCategory(ctx context.Context, category string) ([]Question, error) {
	qs, err := s.queryQuestions(ctx, `SELECT `+questionColumns+` FROM questions WHERE category = $1 ORDER BY sort_order DESC`, category)
	if err != nil {
		return nil, fmt.Errorf("list questions in %s: %w", category, err)
	}
	return qs, nil
}

func (s *Store) QuestionByID(ctx context.Context, id uuid.UUID) (*Question, error) {
	q, err := scanQuestion(s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get question %s: %w", id, notFound(err))
	}
	return &q, nil
}

func (s *Store) CreateQuestion(ctx context.Context, in QuestionInput) (*Question, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	q, err := insertQuestion(ctx, s.pool, in)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateQuestion applies the non-nil fields of p.
func (s *Store) UpdateQuestion(ctx context.Context, id uuid.UUID, p QuestionPatch) (*Question, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var options []byte
	if p.Options != nil {
		b, err := json.Marshal(*p.Options)
		if err != nil {
			return nil, fmt.Errorf("encode options: %w", err)
		}
		options = b
	}

	q, err := scanQuestion(s.pool.QueryRow(ctx, `
		UPDATE questions SET
			text = COALESCE($2, text),
			options = COALESCE($3::jsonb, options),
			sort_order = COALESCE($4, sort_order),
			category = COALESCE($5, category),
			updated_at = now()
		WHERE id = $1
		RETURNING `+questionColumns,
		id, p.Text, options, p.Order, p.Category,
	))
	if err != nil {
		return nil, fmt.Errorf("update question %s: %w", id, notFound(err))
	}
	return &q, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete question %s: %w", id, ErrNotFound)
	}
	return nil
}

// ReplaceCategory atomically swaps every question in category for qs.
// Responses to the removed questions are deleted with them.
func (s *Store) ReplaceCategory(ctx context.Context, category string, qs []QuestionInput) error {
	for i, in := range qs {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE category = $1`, category); err != nil {
		return fmt.Errorf("clear category %s: %w", category, err)
	}
	for _, in := range qs {
		in.Category = category
		if _, err := insertQuestion(ctx, tx, in); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertQuestion(ctx context.Context, db querier, in QuestionInput) (Question, error) {
	options, err := json.Marshal(in.Options)
	if err != nil {
		return Question{}, fmt.Errorf("encode options: %w", err)
	}
	var category *string
	if in.Category != "" {
		category = &in.Category
	}

	q, err := scanQuestion(db.QueryRow(ctx, `
		INSERT INTO questions (id, text, options, sort_order, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+questionColumns,
		uuid.New(), in.Text, options, in.Order, category,
	))
	if err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}
