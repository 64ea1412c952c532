package reading

import (
	"regexp"
	"strings"
)

const (
	fallbackInterpretation = "The cards reveal a quiet story of growth and resilience."
	fallbackGuidance       = "The path opens through gentler containers and steady support."
	fallbackAction         = "Choose one supportive container that makes the next step feel lighter."
	fallbackAffirmation    = "The first gate is already open; you are simply walking through."
)

var (
	readingStart = regexp.MustCompile(`(?i)SECTION I[^\n]*The Reading[^\n]*\n?`)
	pathStart    = regexp.MustCompile(`(?i)SECTION II[^\n]*The Path Opens[^\n]*\n?`)
	pathMarker   = regexp.MustCompile(`(?i)SECTION II[^\n]*The Path Opens`)
	bulletLine   = regexp.MustCompile(`^[-*•]\s+(.*)$`)
	lastSentence = regexp.MustCompile(`([^.!?]*[.!?])\s*$`)
)

// Parsed is the structured form of a provider reply. Every field is
// non-empty; Degraded names the fields that fell back to default text.
type Parsed struct {
	Interpretation string
	Guidance       string
	Actions        []string
	Affirmation    string
	Degraded       []string
}

// ParseResponse extracts the reading sections from free-form model output.
// It never fails: missing structure is replaced with fallback text.
func ParseResponse(text string) Parsed {
	normalized := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))

	sectionI := extractSection(normalized, readingStart, pathMarker)
	sectionII := extractSection(normalized, pathStart, nil)
	body, bullets := extractBullets(sectionII)

	var out Parsed

	out.Interpretation = sectionI
	if out.Interpretation == "" {
		out.Interpretation = fallbackInterpretation
		out.Degraded = append(out.Degraded, "interpretation")
	}

	out.Guidance = body
	if out.Guidance == "" {
		out.Guidance = fallbackGuidance
		out.Degraded = append(out.Degraded, "guidance")
	}

	out.Actions = bullets
	if len(out.Actions) == 0 {
		out.Actions = []string{fallbackAction}
		out.Degraded = append(out.Degraded, "actions")
	}

	if m := lastSentence.FindStringSubmatch(normalized); m != nil {
		out.Affirmation = strings.TrimSpace(m[1])
	}
	if out.Affirmation == "" {
		out.Affirmation = fallbackAffirmation
		out.Degraded = append(out.Degraded, "affirmation")
	}

	return out
}

// extractSection returns the trimmed text after start, cut at end when end
// is non-nil and found. A missing start marker yields "".
func extractSection(text string, start, end *regexp.Regexp) string {
	loc := start.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if end != nil {
		if idx := end.FindStringIndex(rest); idx != nil {
			rest = rest[:idx[0]]
		}
	}
	return strings.TrimSpace(rest)
}

// extractBullets splits a section into free prose before the first bullet
// and a list of bullets. Non-blank lines after a bullet continue it.
func extractBullets(section string) (string, []string) {
	var (
		bodyLines []string
		bullets   []string
		current   string
		open      bool
	)

	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := bulletLine.FindStringSubmatch(trimmed); m != nil {
			if open {
				bullets = append(bullets, strings.TrimSpace(current))
			}
			current = strings.TrimSpace(m[1])
			open = true
			continue
		}
		if trimmed == "" {
			continue
		}
		if open {
			current += " " + trimmed
			continue
		}
		bodyLines = append(bodyLines, trimmed)
	}
	if open {
		bullets = append(bullets, strings.TrimSpace(current))
	}

	return strings.TrimSpace(strings.Join(bodyLines, "\n")), bullets
}
