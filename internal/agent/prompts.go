package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MikeSquared-Agency/sibyl/internal/geo"
	"github.com/MikeSquared-Agency/sibyl/internal/reading"
)

var (
	localIntent = regexp.MustCompile(`(?i)\b(gym|fitness|dating|date|job|work|wellness|yoga|local|near me)\b`)

	categoryRules = []struct {
		pattern  *regexp.Regexp
		category geo.Category
	}{
		{regexp.MustCompile(`(?i)\b(gym|fitness)\b`), geo.CategoryGym},
		{regexp.MustCompile(`(?i)\b(dating|date)\b`), geo.CategoryDating},
		{regexp.MustCompile(`(?i)\b(job|work)\b`), geo.CategoryJobs},
		{regexp.MustCompile(`(?i)\b(wellness|yoga|spa)\b`), geo.CategoryWellness},
	}
)

// NeedsLocal reports whether the message asks for something found nearby.
func NeedsLocal(message string) bool {
	return localIntent.MatchString(message)
}

// DetectCategory maps a message to the first matching venue category,
// defaulting to social.
func DetectCategory(message string) geo.Category {
	for _, r := range categoryRules {
		if r.pattern.MatchString(message) {
			return r.category
		}
	}
	return geo.CategorySocial
}

// PersonalizedNote is the canned note shown alongside a set of places.
func PersonalizedNote(category geo.Category, p reading.Profile) string {
	switch category {
	case geo.CategoryDating:
		if p.Extraversion > 60 {
			return "Your outgoing nature will shine in these social settings!"
		}
		return "These spots are perfect for meaningful one-on-one connections."
	case geo.CategoryGym:
		if p.Conscientiousness > 60 {
			return "Your disciplined approach will help you build a strong routine!"
		}
		return "Start small - consistency matters more than intensity!"
	case geo.CategoryJobs:
		return "These spaces offer great networking and growth opportunities."
	case geo.CategoryWellness:
		return "These wellness spots align with your needs for self-care."
	case geo.CategorySocial:
		if p.Extraversion > 60 {
			return "Your social energy will flourish here!"
		}
		return "These offer welcoming environments for connections."
	default:
		return "Here are personalized recommendations for you!"
	}
}

// BuildSystemPrompt frames the agent persona around the seeker's traits and
// whatever year context they shared.
func BuildSystemPrompt(p reading.Profile) string {
	var b strings.Builder
	b.WriteString("You are a wise, empathetic AI agent combining spiritual guidance with practical advice.\n\n")
	b.WriteString("USER PERSONALITY:\n")
	fmt.Fprintf(&b, "- Openness: %d/100\n", p.Openness)
	fmt.Fprintf(&b, "- Conscientiousness: %d/100\n", p.Conscientiousness)
	fmt.Fprintf(&b, "- Extraversion: %d/100\n", p.Extraversion)
	fmt.Fprintf(&b, "- Agreeableness: %d/100\n", p.Agreeableness)

	b.WriteString("\nCONTEXT:\n")
	if s := p.YearStrugglesText(); s != "" {
		fmt.Fprintf(&b, "Struggles: %s\n", s)
	}
	if s := p.YearWantsText(); s != "" {
		fmt.Fprintf(&b, "Goals: %s\n", s)
	}
	if s := p.LifeAreaText(); s != "" {
		fmt.Fprintf(&b, "Focus: %s\n", s)
	}

	b.WriteString("\nBe warm, supportive, and practical. Tailor advice to their personality. Keep responses 2-3 paragraphs.")
	return b.String()
}

const guideSystemPrompt = "You are a local guide helping someone pick the best places near them. Respond in JSON only."

func buildGuidePrompt(category geo.Category, location string, places []geo.Place, p reading.Profile) string {
	summary := []string{
		fmt.Sprintf("Openness: %d/100", p.Openness),
		fmt.Sprintf("Conscientiousness: %d/100", p.Conscientiousness),
		fmt.Sprintf("Extraversion: %d/100", p.Extraversion),
	}
	if s := p.LifeAreaText(); s != "" {
		summary = append(summary, "Focus: "+s)
	}
	if s := p.YearWantsText(); s != "" {
		summary = append(summary, "Goals: "+s)
	}

	var list strings.Builder
	for i, pl := range places {
		if i > 0 {
			list.WriteByte('\n')
		}
		fmt.Fprintf(&list, "%d. %s (%s), %s", i+1, pl.Name, pl.Type, pl.Address)
	}

	return fmt.Sprintf(`Location: %s
Category: %s
Profile: %s

Places:
%s

Return JSON with:
{
  "summary": string,
  "picks": [{ "name": string, "why": string, "bestFor": string }]
}
Pick up to %d places from the list. Be concise.`,
		location, category, strings.Join(summary, ", "), list.String(), maxPicks)
}
