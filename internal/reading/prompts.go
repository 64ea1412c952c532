package reading

import (
	"fmt"
	"regexp"
	"strings"
)

// TemplateKey identifies the reading prompt in the prompts table.
const TemplateKey = "turning_of_year_reading"

const systemPrompt = "You are a wise, empathetic spiritual guide providing personalized insights based on personality psychology and tarot-inspired wisdom."

// DefaultTemplate is used when the stored template cannot be loaded.
const DefaultTemplate = `You are giving a tarot-style reading for the turning of the year.
Tone: symbolic, warm, intuitive, lightly playful.
Not predictive. Not clinical. No "you should." No diagnosis.

Use the card names as archetypes and speak as if the cards are revealing patterns.

Here is the spread:
1. The Burden: {{burdenCard}}
2. The Leak: {{leakCard}}
3. The Survival Skill: {{survivalSkillCard}}
4. The Shadow Cost: {{shadowCostCard}}
5. The Missing Medicine: {{missingMedicineCard}}
6. The Way Help Works: {{helpWorksCard}}
7. The Boundary Spell: {{boundarySpellCard}}
8. The North Star: {{northStarCard}}
9. The First Gate: {{firstGateCard}}
10. The Emerging Archetype: {{emergingArchetypeCard}}

The seeker has drawn "{{cardName}}" ({{cardElement}} element - symbolizing {{cardMeaning}}).

{{personalityDesc}}

{{contextDesc}}

TASK:
Create TWO sections.

SECTION I — The Reading
- 3–4 paragraphs telling the story of the year:
  - what weighed on them
  - how they adapted
  - why it makes sense
- Then describe next year as a rebalancing, not a reinvention.

SECTION II — The Path Opens
List 3–5 types of supportive next steps (not specific businesses), such as:
- "A beginner-friendly gym or movement practice with consistent times"
- "Low-pressure, activity-based dating or social spaces"
- "Weekly class or group with a stable cohort"
- "Routine-building spaces like studios, coworking, or scheduled programs"

For each:
- Name which cards it supports
- Explain why it reduces friction
- Include one thing to avoid based on the Boundary Spell

Constraints:
- 600–800 words max.
- Keep the magic gentle and grounded.
- Emphasize that change comes from choosing better containers, not pushing harder.
- End with reassurance that the first gate is already open.`

var tokenPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render replaces every {{name}} token that has an entry in vars. Unknown
// tokens are left as-is, and substituted values are never re-scanned.
func Render(tmpl string, vars map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(tmpl, func(tok string) string {
		name := tok[2 : len(tok)-2]
		if v, ok := vars[name]; ok {
			return v
		}
		return tok
	})
}

// BuildPrompt fills tmpl with the card, the profile and the optional focus
// area and mood.
func BuildPrompt(tmpl string, p Profile, card Card, focusArea, mood string) string {
	return Render(tmpl, PromptVars(p, card, focusArea, mood))
}

// PromptVars derives the template substitutions for a profile.
func PromptVars(p Profile, card Card, focusArea, mood string) map[string]string {
	const unrevealed = "Unrevealed"

	return map[string]string{
		"burdenCard":            pick(p.BurdenCardLabel, p.BurdenCard, pick(p.YearStrugglesLabel, p.YearStruggles, unrevealed)),
		"leakCard":              pick(p.LeakCardLabel, p.LeakCard, unrevealed),
		"survivalSkillCard":     pick(p.SurvivalSkillCardLabel, p.SurvivalSkillCard, unrevealed),
		"shadowCostCard":        pick(p.ShadowCostCardLabel, p.ShadowCostCard, unrevealed),
		"missingMedicineCard":   pick(p.MissingMedicineCardLabel, p.MissingMedicineCard, unrevealed),
		"helpWorksCard":         pick(p.HelpWorksCardLabel, p.HelpWorksCard, unrevealed),
		"boundarySpellCard":     pick(p.BoundarySpellCardLabel, p.BoundarySpellCard, unrevealed),
		"northStarCard":         pick(p.NorthStarCardLabel, p.NorthStarCard, pick(p.YearWantsLabel, p.YearWants, unrevealed)),
		"firstGateCard":         pick(p.FirstGateCardLabel, p.FirstGateCard, unrevealed),
		"emergingArchetypeCard": pick(p.EmergingArchetypeCardLabel, p.EmergingArchetypeCard, unrevealed),
		"cardName":              card.Name,
		"cardElement":           string(card.Element),
		"cardMeaning":           card.Meaning,
		"personalityDesc":       PersonalityDesc(p),
		"contextDesc":           ContextDesc(p, focusArea, mood),
	}
}

type traitBands struct {
	high, mid, low string
}

func (b traitBands) tag(score int) string {
	switch {
	case score > 70:
		return b.high
	case score > 40:
		return b.mid
	default:
		return b.low
	}
}

var (
	opennessBands          = traitBands{"highly creative and curious", "balanced", "practical and traditional"}
	conscientiousnessBands = traitBands{"organized and disciplined", "flexible", "spontaneous"}
	extraversionBands      = traitBands{"outgoing and energetic", "balanced", "introspective"}
	agreeablenessBands     = traitBands{"compassionate and cooperative", "balanced", "assertive"}
	stabilityBands         = traitBands{"calm and resilient", "balanced", "sensitive"}
)

// PersonalityDesc renders the Big 5 block. Emotional stability is shown as
// 100 minus neuroticism.
func PersonalityDesc(p Profile) string {
	stability := 100 - p.Neuroticism

	var b strings.Builder
	b.WriteString("Personality Traits (Big 5 OCEAN):\n")
	fmt.Fprintf(&b, "- Openness: %d/100 (%s)\n", p.Openness, opennessBands.tag(p.Openness))
	fmt.Fprintf(&b, "- Conscientiousness: %d/100 (%s)\n", p.Conscientiousness, conscientiousnessBands.tag(p.Conscientiousness))
	fmt.Fprintf(&b, "- Extraversion: %d/100 (%s)\n", p.Extraversion, extraversionBands.tag(p.Extraversion))
	fmt.Fprintf(&b, "- Agreeableness: %d/100 (%s)\n", p.Agreeableness, agreeablenessBands.tag(p.Agreeableness))
	fmt.Fprintf(&b, "- Emotional Stability: %d/100 (%s)\n", stability, stabilityBands.tag(stability))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Cognitive Style: %s\n", pick(p.IntuitionVsSensingLabel, p.IntuitionVsSensing, "balanced"))
	fmt.Fprintf(&b, "Decision Making: %s", pick(p.ThinkingVsFeelingLabel, p.ThinkingVsFeeling, "balanced"))
	return b.String()
}

// ContextDesc renders only the life-context lines whose source is present.
// With nothing to say it returns "".
func ContextDesc(p Profile, focusArea, mood string) string {
	lines := []struct {
		label, value string
	}{
		{"This Year's Struggles", p.YearStrugglesText()},
		{"This Year's Desire", p.YearWantsText()},
		{"Past", pick(p.PastExperiencesLabel, p.PastExperiences, "")},
		{"Current Challenges", pick(p.CurrentChallengesLabel, p.CurrentChallenges, "")},
		{"Hopes & Dreams", pick(p.HopesAndDreamsLabel, p.HopesAndDreams, "")},
		{"Fears & Concerns", pick(p.FearsAndWorriesLabel, p.FearsAndWorries, "")},
		{"Focus Area", p.LifeAreaText()},
		{"Today's Focus", strings.TrimSpace(focusArea)},
		{"Current Mood", strings.TrimSpace(mood)},
	}

	var present []string
	for _, l := range lines {
		if l.value != "" {
			present = append(present, l.label+": "+l.value)
		}
	}
	if len(present) == 0 {
		return ""
	}
	return "Life Context:\n" + strings.Join(present, "\n")
}
