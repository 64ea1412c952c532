// Package agent answers free-form questions in the seeker's voice and, when
// the message asks for something nearby, attaches curated local venues.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/sibyl/internal/geo"
	"github.com/MikeSquared-Agency/sibyl/internal/openrouter"
	"github.com/MikeSquared-Agency/sibyl/internal/reading"
)

var ErrAgentFailed = errors.New("agent failed")

const maxPicks = 3

var (
	replyOptions = openrouter.Options{Temperature: 0.8, MaxTokens: 800}
	guideOptions = openrouter.Options{Temperature: 0.4, MaxTokens: 400}
)

// Generator runs a prompt against an ordered model chain.
type Generator interface {
	Generate(ctx context.Context, chain openrouter.ModelChain, messages []openrouter.Message, opts openrouter.Options) (openrouter.Result, error)
}

// Locator resolves a place name and lists venues around it.
type Locator interface {
	Geocode(ctx context.Context, query string) (geo.Coordinates, error)
	Nearby(ctx context.Context, at geo.Coordinates, category geo.Category) ([]geo.Place, error)
}

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Profile                   reading.Profile `json:"personalityProfile"`
	Message                   string          `json:"message"`
	ConversationHistory       []Turn          `json:"conversationHistory,omitempty"`
	Location                  *geo.Location   `json:"location,omitempty"`
	NeedsLocalRecommendations bool            `json:"needsLocalRecommendations,omitempty"`

	profileMissing bool
}

func (r *Request) UnmarshalJSON(data []byte) error {
	type alias Request
	aux := struct {
		*alias
		Profile json.RawMessage `json:"personalityProfile"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p, ok, err := reading.DecodeProfile(aux.Profile)
	if err != nil {
		return err
	}
	r.Profile = p
	r.profileMissing = !ok
	return nil
}

// Validate checks the profile, the message and any history or location.
func (r Request) Validate() error {
	var violations []string
	if r.profileMissing {
		violations = append(violations, reading.ProfileRequired)
	} else if err := r.Profile.Validate(); err != nil {
		var verr *reading.ValidationError
		if errors.As(err, &verr) {
			violations = append(violations, verr.Violations...)
		}
	}
	if strings.TrimSpace(r.Message) == "" {
		violations = append(violations, "message is required")
	}
	for i, t := range r.ConversationHistory {
		if t.Role != "user" && t.Role != "assistant" {
			violations = append(violations, fmt.Sprintf("conversationHistory[%d].role must be user or assistant, got %q", i, t.Role))
		}
	}
	if r.Location != nil {
		if strings.TrimSpace(r.Location.City) == "" {
			violations = append(violations, "location.city is required")
		}
		if strings.TrimSpace(r.Location.Country) == "" {
			violations = append(violations, "location.country is required")
		}
	}
	if len(violations) > 0 {
		return &reading.ValidationError{Violations: violations}
	}
	return nil
}

type Pick struct {
	Name    string `json:"name"`
	Why     string `json:"why"`
	BestFor string `json:"bestFor"`
}

// Curation is the local guide's shortlist of the fetched places.
type Curation struct {
	Summary string `json:"summary"`
	Picks   []Pick `json:"picks"`
}

type LocalRecommendations struct {
	Category  geo.Category `json:"category"`
	Location  string       `json:"location"`
	Places    []geo.Place  `json:"places"`
	Note      string       `json:"note"`
	AICurated *Curation    `json:"aiCurated"`
}

type Response struct {
	Response             string                `json:"response"`
	LocalRecommendations *LocalRecommendations `json:"localRecommendations"`
	NeedsLocation        bool                  `json:"needsLocation"`
}

type Agent struct {
	gen     Generator
	locator Locator
	chain   openrouter.ModelChain
	logger  *slog.Logger
}

// New builds an Agent. A nil locator disables local recommendations.
func New(gen Generator, locator Locator, chain openrouter.ModelChain, logger *slog.Logger) *Agent {
	return &Agent{gen: gen, locator: locator, chain: chain, logger: logger}
}

// Respond answers the message. The reply and the local lookup run
// concurrently; a failed lookup or curation only drops that part of the
// response, while a failed reply fails the whole call.
func (a *Agent) Respond(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	needsLocal := req.NeedsLocalRecommendations || NeedsLocal(req.Message)
	resp := &Response{NeedsLocation: needsLocal && req.Location == nil}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := a.gen.Generate(gctx, a.chain, a.conversation(req), replyOptions)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAgentFailed, err)
		}
		a.logger.Info("agent replied", "model", res.Model, "attempts", res.Attempts)
		resp.Response = res.Content
		return nil
	})
	if needsLocal && req.Location != nil && a.locator != nil {
		g.Go(func() error {
			resp.LocalRecommendations = a.recommend(gctx, *req.Location, DetectCategory(req.Message), req.Profile)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (a *Agent) conversation(req Request) []openrouter.Message {
	msgs := make([]openrouter.Message, 0, len(req.ConversationHistory)+2)
	msgs = append(msgs, openrouter.Message{Role: "system", Content: BuildSystemPrompt(req.Profile)})
	for _, t := range req.ConversationHistory {
		msgs = append(msgs, openrouter.Message{Role: t.Role, Content: t.Content})
	}
	return append(msgs, openrouter.Message{Role: "user", Content: req.Message})
}

func (a *Agent) recommend(ctx context.Context, loc geo.Location, category geo.Category, p reading.Profile) *LocalRecommendations {
	query := loc.Query()
	at, err := a.locator.Geocode(ctx, query)
	if err != nil {
		a.logger.Warn("local recommendations skipped", "location", query, "error", err)
		return nil
	}
	places, err := a.locator.Nearby(ctx, at, category)
	if err != nil {
		a.logger.Warn("local recommendations skipped", "location", query, "error", err)
		return nil
	}

	recs := &LocalRecommendations{
		Category: category,
		Location: query,
		Places:   places,
		Note:     PersonalizedNote(category, p),
	}
	if len(places) > 0 {
		recs.AICurated = a.curate(ctx, recs, p)
	}
	return recs
}

func (a *Agent) curate(ctx context.Context, recs *LocalRecommendations, p reading.Profile) *Curation {
	msgs := []openrouter.Message{
		{Role: "system", Content: guideSystemPrompt},
		{Role: "user", Content: buildGuidePrompt(recs.Category, recs.Location, recs.Places, p)},
	}
	res, err := a.gen.Generate(ctx, a.chain, msgs, guideOptions)
	if err != nil {
		a.logger.Warn("local curation failed", "error", err)
		return nil
	}
	c, err := ParseCuration(res.Content)
	if err != nil {
		a.logger.Warn("local curation unreadable", "model", res.Model, "error", err)
		return nil
	}
	return c
}

var codeFence = regexp.MustCompile("(?i)^```(?:json)?\\s*|\\s*```$")

// ParseCuration decodes the guide's reply, tolerating code fences and the
// small syntax slips models make. At most three picks are kept.
func ParseCuration(content string) (*Curation, error) {
	cleaned := codeFence.ReplaceAllString(strings.TrimSpace(content), "")
	if cleaned == "" {
		return nil, errors.New("empty curation")
	}

	var c Curation
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(cleaned)
		if rerr != nil {
			return nil, fmt.Errorf("repair curation: %w", rerr)
		}
		if err := json.Unmarshal([]byte(repaired), &c); err != nil {
			return nil, fmt.Errorf("decode curation: %w", err)
		}
	}
	if len(c.Picks) > maxPicks {
		c.Picks = c.Picks[:maxPicks]
	}
	return &c, nil
}
