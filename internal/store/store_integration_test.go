//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/sibyl/internal/reading"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_MigrateIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestIntegration_Prompts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	key := "integration-" + uuid.New().String()[:8]

	if _, err := s.PromptByKey(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.UpsertPrompt(ctx, key, "first {{cardName}}"); err != nil {
		t.Fatalf("UpsertPrompt failed: %v", err)
	}
	if err := s.UpsertPrompt(ctx, key, "second {{cardName}}"); err != nil {
		t.Fatalf("UpsertPrompt (update) failed: %v", err)
	}

	got, err := s.PromptByKey(ctx, key)
	if err != nil {
		t.Fatalf("PromptByKey failed: %v", err)
	}
	if got != "second {{cardName}}" {
		t.Errorf("expected updated content, got %q", got)
	}
}

func TestIntegration_QuestionLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	category := "integration-" + uuid.New().String()[:8]

	err := s.ReplaceCategory(ctx, category, []QuestionInput{
		{Text: "First", Options: []string{"a|A", "b|B"}, Order: 1},
		{Text: "Second", Options: []string{"c|C", "d|D"}, Order: 2},
	})
	if err != nil {
		t.Fatalf("ReplaceCategory failed: %v", err)
	}

	qs, err := s.QuestionsByCategory(ctx, category)
	if err != nil {
		t.Fatalf("QuestionsByCategory failed: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[0].Text != "Second" {
		t.Errorf("expected descending order, first is %q", qs[0].Text)
	}
	if qs[0].Options[1] != "d|D" {
		t.Errorf("options did not round-trip: %v", qs[0].Options)
	}

	text := "Second, revised"
	updated, err := s.UpdateQuestion(ctx, qs[0].ID, QuestionPatch{Text: &text})
	if err != nil {
		t.Fatalf("UpdateQuestion failed: %v", err)
	}
	if updated.Text != text || updated.Order != 2 || updated.Category != category {
		t.Errorf("unexpected update result: %+v", updated)
	}

	got, err := s.QuestionByID(ctx, qs[0].ID)
	if err != nil {
		t.Fatalf("QuestionByID failed: %v", err)
	}
	if got.Text != text {
		t.Errorf("expected %q, got %q", text, got.Text)
	}

	if err := s.DeleteQuestion(ctx, qs[0].ID); err != nil {
		t.Fatalf("DeleteQuestion failed: %v", err)
	}
	if err := s.DeleteQuestion(ctx, qs[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.QuestionByID(ctx, qs[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Replacing again drops the remaining question.
	if err := s.ReplaceCategory(ctx, category, nil); err != nil {
		t.Fatalf("ReplaceCategory (clear) failed: %v", err)
	}
	qs, err = s.QuestionsByCategory(ctx, category)
	if err != nil {
		t.Fatalf("QuestionsByCategory failed: %v", err)
	}
	if len(qs) != 0 {
		t.Errorf("expected empty category, got %d", len(qs))
	}
}

func TestIntegration_Responses(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "user-" + uuid.New().String()[:8]

	q, err := s.CreateQuestion(ctx, QuestionInput{Text: "Which burden?", Options: []string{"a|A", "b|B"}, Order: 0})
	if err != nil {
		t.Fatalf("CreateQuestion failed: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteQuestion(context.Background(), q.ID) })

	if _, err := s.SubmitResponse(ctx, userID, ResponseInput{QuestionID: q.ID.String(), Response: "a"}); err != nil {
		t.Fatalf("SubmitResponse failed: %v", err)
	}
	if _, err := s.SubmitResponse(ctx, userID, ResponseInput{QuestionID: q.ID.String(), Response: "b", ResponseLabel: "B"}); err != nil {
		t.Fatalf("SubmitResponse failed: %v", err)
	}
	if _, err := s.SubmitResponse(ctx, userID, ResponseInput{QuestionID: uuid.New().String(), Response: "a"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown question, got %v", err)
	}

	rs, err := s.ResponsesByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ResponsesByUser failed: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(rs))
	}
	if rs[0].Response != "b" || rs[0].ResponseLabel != "B" {
		t.Errorf("expected newest first, got %+v", rs[0])
	}

	joined, err := s.ResponsesWithQuestions(ctx, userID)
	if err != nil {
		t.Fatalf("ResponsesWithQuestions failed: %v", err)
	}
	if len(joined) != 2 || joined[0].Question.Text != "Which burden?" {
		t.Errorf("unexpected joined responses: %+v", joined)
	}
}

func TestIntegration_SaveReading(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "user-" + uuid.New().String()[:8]

	req := reading.Request{
		Profile:   reading.Profile{Openness: 80, Conscientiousness: 50, Extraversion: 75, Agreeableness: 50, Neuroticism: 30, LifeArea: "career"},
		FocusArea: "work",
	}
	r := &reading.Reading{
		CardDrawn:       "The Seeker",
		Interpretation:  "i",
		GuidanceMessage: "g",
		ActionSteps:     []string{"one", "two"},
		Affirmation:     "a",
		Model:           "m1",
	}

	id, err := s.SaveReading(ctx, userID, req, r)
	if err != nil {
		t.Fatalf("SaveReading failed: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected non-nil reading ID")
	}

	var readingType string
	var steps []string
	err = s.pool.QueryRow(ctx, `SELECT reading_type, action_steps FROM readings WHERE id = $1`, id).Scan(&readingType, &steps)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if readingType != reading.TypeGuidance {
		t.Errorf("expected default reading type, got %q", readingType)
	}
	if len(steps) != 2 {
		t.Errorf("expected 2 action steps, got %v", steps)
	}
}

func TestIntegration_SaveReadingLongClientFields(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	long := strings.Repeat("x", 2000)
	userID := "user-" + uuid.New().String() + long

	req := reading.Request{
		Profile:   reading.Profile{Openness: 50, Conscientiousness: 50, Extraversion: 50, Agreeableness: 50, Neuroticism: 50, LifeAreaLabel: long},
		FocusArea: long,
		Mood:      long,
	}
	r := &reading.Reading{CardDrawn: "The Mirror", Interpretation: "i", GuidanceMessage: "g", ActionSteps: []string{"one"}}

	id, err := s.SaveReading(ctx, userID, req, r)
	if err != nil {
		t.Fatalf("SaveReading with long fields failed: %v", err)
	}

	var mood string
	if err := s.pool.QueryRow(ctx, `SELECT mood FROM readings WHERE id = $1`, id).Scan(&mood); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if mood != long {
		t.Errorf("mood truncated to %d bytes", len(mood))
	}
}
