package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/sibyl/internal/reading"
)

type Response struct {
	ID            uuid.UUID `json:"id"`
	QuestionID    uuid.UUID `json:"questionId"`
	UserID        string    `json:"userId"`
	Response      string    `json:"response"`
	ResponseLabel string    `json:"responseLabel,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ResponseInput is one submitted answer.
type ResponseInput struct {
	QuestionID    string `json:"questionId"`
	Response      string `json:"response"`
	ResponseLabel string `json:"responseLabel,omitempty"`
}

// Parse validates the input and returns the question id.
func (in ResponseInput) Parse() (uuid.UUID, error) {
	var v []string
	id, err := uuid.Parse(in.QuestionID)
	if err != nil {
		v = append(v, fmt.Sprintf("questionId must be a UUID, got %q", in.QuestionID))
	}
	if strings.TrimSpace(in.Response) == "" {
		v = append(v, "response is required")
	}
	if len(v) > 0 {
		return uuid.Nil, &reading.ValidationError{Violations: v}
	}
	return id, nil
}

// ResponseWithQuestion pairs an answer with the question it answers.
type ResponseWithQuestion struct {
	Response
	Question Question `json:"question"`
}

// SubmitResponse records userID's answer. An unknown question yields
// ErrNotFound.
func (s *Store) SubmitResponse(ctx context.Context, userID string, in ResponseInput) (*Response, error) {
	questionID, err := in.Parse()
	if err != nil {
		return nil, err
	}

	var label *string
	if in.ResponseLabel != "" {
		label = &in.ResponseLabel
	}

	r := Response{
		ID:            uuid.New(),
		QuestionID:    questionID,
		UserID:        userID,
		Response:      in.Response,
		ResponseLabel: in.ResponseLabel,
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO question_responses (id, question_id, user_id, response, response_label)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		r.ID, r.QuestionID, r.UserID, r.Response, label,
	).Scan(&r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert response: %w", notFound(err))
	}
	return &r, nil
}

// ResponsesByUser lists userID's answers, newest first.
func (s *Store) ResponsesByUser(ctx context.Context, userID string) ([]Response, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question_id, user_id, response, COALESCE(response_label, ''), created_at
		FROM question_responses
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.ID, &r.QuestionID, &r.UserID, &r.Response, &r.ResponseLabel, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResponsesWithQuestions lists userID's answers joined with their questions,
// newest first.
func (s *Store) ResponsesWithQuestions(ctx context.Context, userID string) ([]ResponseWithQuestion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.question_id, r.user_id, r.response, COALESCE(r.response_label, ''), r.created_at,
		       q.id, q.text, q.options, q.sort_order, COALESCE(q.category, ''), q.created_at, q.updated_at
		FROM question_responses r
		JOIN questions q ON q.id = r.question_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list responses with questions: %w", err)
	}
	defer rows.Close()

	var out []ResponseWithQuestion
	for rows.Next() {
		var rq ResponseWithQuestion
		r, q := &rq.Response, &rq.Question
		err := rows.Scan(
			&r.ID, &r.QuestionID, &r.UserID, &r.Response, &r.ResponseLabel, &r.CreatedAt,
			&q.ID, &q.Text, &q.Options, &q.Order, &q.Category, &q.CreatedAt, &q.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, rq)
	}
	return out, rows.Err()
}
