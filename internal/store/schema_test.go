package store

import (
	"regexp"
	"testing"
)

func TestSchema_ClientFieldsAreUnbounded(t *testing.T) {
	columns := map[string][]string{
		"question_responses":   {"user_id"},
		"personality_profiles": {"user_id", "life_area"},
		"readings":             {"user_id", "focus_area", "mood"},
	}
	for table, cols := range columns {
		for _, col := range cols {
			widen := regexp.MustCompile(`ALTER TABLE ` + table + ` ALTER COLUMN ` + col + ` TYPE TEXT;`)
			if !widen.MatchString(schema) {
				t.Errorf("%s.%s is not widened to TEXT", table, col)
			}
		}
	}

	if m := regexp.MustCompile(`(?m)^\s+(user_id|life_area|focus_area|mood)\s+VARCHAR`).FindString(schema); m != "" {
		t.Errorf("client-supplied column declared with a length limit: %q", m)
	}
}
