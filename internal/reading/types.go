package reading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Profile is the questionnaire result sent by the client. Trait scores are
// 0-100; every other field is optional and empty when absent. Most fields come
// as a raw value plus a human-readable label, and the label wins when both are
// set.
type Profile struct {
	Openness          int `json:"openness"`
	Conscientiousness int `json:"conscientiousness"`
	Extraversion      int `json:"extraversion"`
	Agreeableness     int `json:"agreeableness"`
	Neuroticism       int `json:"neuroticism"`

	IntuitionVsSensing      string `json:"intuitionVsSensing,omitempty"`
	IntuitionVsSensingLabel string `json:"intuitionVsSensingLabel,omitempty"`
	ThinkingVsFeeling       string `json:"thinkingVsFeeling,omitempty"`
	ThinkingVsFeelingLabel  string `json:"thinkingVsFeelingLabel,omitempty"`

	PastExperiences        string `json:"pastExperiences,omitempty"`
	PastExperiencesLabel   string `json:"pastExperiencesLabel,omitempty"`
	CurrentChallenges      string `json:"currentChallenges,omitempty"`
	CurrentChallengesLabel string `json:"currentChallengesLabel,omitempty"`
	HopesAndDreams         string `json:"hopesAndDreams,omitempty"`
	HopesAndDreamsLabel    string `json:"hopesAndDreamsLabel,omitempty"`
	FearsAndWorries        string `json:"fearsAndWorries,omitempty"`
	FearsAndWorriesLabel   string `json:"fearsAndWorriesLabel,omitempty"`
	LifeArea               string `json:"lifeArea,omitempty"`
	LifeAreaLabel          string `json:"lifeAreaLabel,omitempty"`

	BurdenCard                 string `json:"burdenCard,omitempty"`
	BurdenCardLabel            string `json:"burdenCardLabel,omitempty"`
	LeakCard                   string `json:"leakCard,omitempty"`
	LeakCardLabel              string `json:"leakCardLabel,omitempty"`
	SurvivalSkillCard          string `json:"survivalSkillCard,omitempty"`
	SurvivalSkillCardLabel     string `json:"survivalSkillCardLabel,omitempty"`
	ShadowCostCard             string `json:"shadowCostCard,omitempty"`
	ShadowCostCardLabel        string `json:"shadowCostCardLabel,omitempty"`
	MissingMedicineCard        string `json:"missingMedicineCard,omitempty"`
	MissingMedicineCardLabel   string `json:"missingMedicineCardLabel,omitempty"`
	HelpWorksCard              string `json:"helpWorksCard,omitempty"`
	HelpWorksCardLabel         string `json:"helpWorksCardLabel,omitempty"`
	BoundarySpellCard          string `json:"boundarySpellCard,omitempty"`
	BoundarySpellCardLabel     string `json:"boundarySpellCardLabel,omitempty"`
	NorthStarCard              string `json:"northStarCard,omitempty"`
	NorthStarCardLabel         string `json:"northStarCardLabel,omitempty"`
	FirstGateCard              string `json:"firstGateCard,omitempty"`
	FirstGateCardLabel         string `json:"firstGateCardLabel,omitempty"`
	EmergingArchetypeCard      string `json:"emergingArchetypeCard,omitempty"`
	EmergingArchetypeCardLabel string `json:"emergingArchetypeCardLabel,omitempty"`

	// Legacy aliases: older clients send the burden and north-star draws here.
	YearStruggles      string `json:"yearStruggles,omitempty"`
	YearStrugglesLabel string `json:"yearStrugglesLabel,omitempty"`
	YearWants          string `json:"yearWants,omitempty"`
	YearWantsLabel     string `json:"yearWantsLabel,omitempty"`

	missing []string
}

// UnmarshalJSON records which trait scores were absent so Validate can
// reject them instead of reading them as zero.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type alias Profile
	aux := struct {
		*alias
		Openness          *int `json:"openness"`
		Conscientiousness *int `json:"conscientiousness"`
		Extraversion      *int `json:"extraversion"`
		Agreeableness     *int `json:"agreeableness"`
		Neuroticism       *int `json:"neuroticism"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.missing = nil
	assign := func(name string, src *int, dst *int) {
		if src == nil {
			p.missing = append(p.missing, name)
			return
		}
		*dst = *src
	}
	assign("openness", aux.Openness, &p.Openness)
	assign("conscientiousness", aux.Conscientiousness, &p.Conscientiousness)
	assign("extraversion", aux.Extraversion, &p.Extraversion)
	assign("agreeableness", aux.Agreeableness, &p.Agreeableness)
	assign("neuroticism", aux.Neuroticism, &p.Neuroticism)
	return nil
}

// LifeAreaText is the resolved life-area label, or "".
func (p Profile) LifeAreaText() string { return pick(p.LifeAreaLabel, p.LifeArea, "") }

// YearStrugglesText is the resolved legacy struggles field, or "".
func (p Profile) YearStrugglesText() string { return pick(p.YearStrugglesLabel, p.YearStruggles, "") }

// YearWantsText is the resolved legacy wants field, or "".
func (p Profile) YearWantsText() string { return pick(p.YearWantsLabel, p.YearWants, "") }

// Request is the body of a reading request.
type Request struct {
	Profile     Profile `json:"personalityProfile"`
	FocusArea   string  `json:"focusArea,omitempty"`
	Mood        string  `json:"mood,omitempty"`
	UserID      string  `json:"userId,omitempty"`
	ReadingType string  `json:"readingType,omitempty"`

	profileMissing bool
}

// UnmarshalJSON flags a body without a personalityProfile object, which
// would otherwise decode to five zero scores.
func (r *Request) UnmarshalJSON(data []byte) error {
	type alias Request
	aux := struct {
		*alias
		Profile json.RawMessage `json:"personalityProfile"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p, ok, err := DecodeProfile(aux.Profile)
	if err != nil {
		return err
	}
	r.Profile = p
	r.profileMissing = !ok
	return nil
}

// ProfileRequired is the violation reported when personalityProfile is
// absent or null.
const ProfileRequired = "personalityProfile is required"

// DecodeProfile decodes a raw personalityProfile value. ok is false when the
// value is absent or null.
func DecodeProfile(raw json.RawMessage) (p Profile, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Profile{}, false, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, false, err
	}
	return p, true, nil
}

// Reading is the structured result returned to the caller.
type Reading struct {
	CardDrawn       string   `json:"cardDrawn"`
	CardElement     Element  `json:"cardElement"`
	CardMeaning     string   `json:"cardMeaning"`
	Interpretation  string   `json:"interpretation"`
	GuidanceMessage string   `json:"guidanceMessage"`
	ActionSteps     []string `json:"actionSteps"`
	Affirmation     string   `json:"affirmation"`

	// Model is the candidate that produced the text.
	Model string `json:"-"`
}

// Type is the requested reading type, defaulting to guidance.
func (r Request) Type() string {
	if r.ReadingType == "" {
		return TypeGuidance
	}
	return r.ReadingType
}

const (
	TypeClarity  = "clarity"
	TypeGuidance = "guidance"
	TypeInsight  = "insight"
)

// ValidationError lists every constraint a request violated.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", strings.Join(e.Violations, "; "))
}

// pick returns the first non-empty of label and value, else fallback.
func pick(label, value, fallback string) string {
	if s := strings.TrimSpace(label); s != "" {
		return s
	}
	if s := strings.TrimSpace(value); s != "" {
		return s
	}
	return fallback
}
