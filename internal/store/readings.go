package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/sibyl/internal/reading"
)

// SaveReading persists the profile a reading was drawn from and the reading
// itself in one transaction. It returns the new reading id.
func (s *Store) SaveReading(ctx context.Context, userID string, req reading.Request, r *reading.Reading) (uuid.UUID, error) {
	payload, err := json.Marshal(req.Profile)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode profile: %w", err)
	}
	actions, err := json.Marshal(r.ActionSteps)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode action steps: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p := req.Profile
	profileID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO personality_profiles (id, user_id, openness, conscientiousness, extraversion, agreeableness, neuroticism, life_area, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8::text, ''), $9)`,
		profileID, userID, p.Openness, p.Conscientiousness, p.Extraversion, p.Agreeableness, p.Neuroticism, p.LifeAreaText(), payload,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert profile: %w", err)
	}

	readingID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO readings (id, user_id, profile_id, reading_type, card_drawn, interpretation, guidance_message, action_steps, affirmation, focus_area, mood, model)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10::text, ''), NULLIF($11::text, ''), NULLIF($12::text, ''))`,
		readingID, userID, profileID, req.Type(), r.CardDrawn, r.Interpretation, r.GuidanceMessage, actions, r.Affirmation, req.FocusArea, req.Mood, r.Model,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert reading: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return readingID, nil
}
