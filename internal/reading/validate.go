package reading

import "fmt"

// Validate checks trait presence and bounds. It returns a *ValidationError
// listing every violation, or nil.
func (p Profile) Validate() error {
	var violations []string
	for _, name := range p.missing {
		violations = append(violations, fmt.Sprintf("personalityProfile.%s is required", name))
	}

	traits := []struct {
		name  string
		score int
	}{
		{"openness", p.Openness},
		{"conscientiousness", p.Conscientiousness},
		{"extraversion", p.Extraversion},
		{"agreeableness", p.Agreeableness},
		{"neuroticism", p.Neuroticism},
	}
	for _, t := range traits {
		if t.score < 0 || t.score > 100 {
			violations = append(violations, fmt.Sprintf("personalityProfile.%s must be between 0 and 100, got %d", t.name, t.score))
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// Validate checks the profile and the optional reading type.
func (r Request) Validate() error {
	var violations []string
	if r.profileMissing {
		violations = append(violations, ProfileRequired)
	} else if err := r.Profile.Validate(); err != nil {
		violations = append(violations, err.(*ValidationError).Violations...)
	}
	switch r.ReadingType {
	case "", TypeClarity, TypeGuidance, TypeInsight:
	default:
		violations = append(violations, fmt.Sprintf("readingType must be one of clarity, guidance, insight, got %q", r.ReadingType))
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
