package reading

import "strings"

type Element string

const (
	ElementAir   Element = "air"
	ElementFire  Element = "fire"
	ElementWater Element = "water"
	ElementEarth Element = "earth"
)

// Card is a symbolic archetype used to anchor the reading.
type Card struct {
	Name    string  `json:"name"`
	Element Element `json:"element"`
	Meaning string  `json:"meaning"`
}

// Order matters: the fallback rule in SelectCard indexes into it.
var catalog = [...]Card{
	{"The Seeker", ElementAir, "quest for truth and knowledge"},
	{"The Phoenix", ElementFire, "transformation and renewal"},
	{"The River", ElementWater, "flow and emotional wisdom"},
	{"The Mountain", ElementEarth, "stability and grounding"},
	{"The Star Guide", ElementAir, "hope and inspiration"},
	{"The Mirror", ElementWater, "self-reflection and clarity"},
	{"The Bridge", ElementEarth, "connection and transition"},
	{"The Flame", ElementFire, "passion and purpose"},
	{"The Garden", ElementEarth, "growth and nurturing"},
	{"The Compass", ElementAir, "direction and guidance"},
	{"The Ocean", ElementWater, "depth and mystery"},
	{"The Lighthouse", ElementFire, "illumination and hope"},
}

const (
	cardSeeker    = 0
	cardPhoenix   = 1
	cardStarGuide = 4
	cardMirror    = 5
	cardCompass   = 9
)

// Catalog returns a copy of the card deck in its fixed order.
func Catalog() []Card {
	out := make([]Card, len(catalog))
	copy(out, catalog[:])
	return out
}

// SelectCard maps a profile to one card. Rules are checked in order and the
// first match wins; the last rule always matches.
func SelectCard(p Profile) Card {
	lifeArea := strings.ToLower(p.LifeAreaText())

	switch {
	case p.Openness > 70:
		if p.Extraversion > 60 {
			return catalog[cardSeeker]
		}
		return catalog[cardStarGuide]
	case p.Neuroticism > 60:
		return catalog[cardPhoenix]
	case strings.Contains(lifeArea, "love") || strings.Contains(lifeArea, "spiritual"):
		return catalog[cardMirror]
	case strings.Contains(lifeArea, "career"):
		return catalog[cardCompass]
	default:
		idx := ((p.Openness + p.Extraversion) / 20) % len(catalog)
		if idx < 0 {
			idx += len(catalog)
		}
		return catalog[idx]
	}
}
