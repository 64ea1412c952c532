package reading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/sibyl/internal/metrics"
	"github.com/MikeSquared-Agency/sibyl/internal/openrouter"
)

// ErrReadingFailed is the only error Generate returns once the request is
// valid. The provider cause is wrapped for logs but must not reach users.
var ErrReadingFailed = errors.New("reading generation failed")

// TemplateSource looks up a prompt template by key.
type TemplateSource interface {
	PromptByKey(ctx context.Context, key string) (string, error)
}

// Generator runs a prompt through an ordered chain of candidate models.
type Generator interface {
	Generate(ctx context.Context, chain openrouter.ModelChain, messages []openrouter.Message, opts openrouter.Options) (openrouter.Result, error)
}

var generationOptions = openrouter.Options{Temperature: 0.8, MaxTokens: 600}

type Service struct {
	templates TemplateSource
	gen       Generator
	chain     openrouter.ModelChain
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New wires the pipeline. templates may be nil, in which case the default
// template is always used.
func New(templates TemplateSource, gen Generator, chain openrouter.ModelChain, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		templates: templates,
		gen:       gen,
		chain:     chain,
		logger:    logger,
		metrics:   m,
	}
}

// Generate runs one reading: validate, draw a card, render the prompt, call
// the model chain and parse the reply. It either returns a full Reading or an
// error, never both.
func (s *Service) Generate(ctx context.Context, req Request) (*Reading, error) {
	if err := req.Validate(); err != nil {
		s.metrics.Reading("invalid")
		return nil, err
	}

	card := SelectCard(req.Profile)
	prompt := BuildPrompt(s.template(ctx), req.Profile, card, req.FocusArea, req.Mood)

	s.logger.Info("generating reading",
		"card", card.Name,
		"prompt_len", len(prompt),
		"models", len(s.chain),
	)

	res, err := s.gen.Generate(ctx, s.chain, []openrouter.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}, generationOptions)
	if err != nil {
		s.metrics.Reading("failed")
		s.logger.Error("reading generation failed", "card", card.Name, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrReadingFailed, err)
	}

	parsed := ParseResponse(res.Content)
	if len(parsed.Degraded) > 0 {
		s.metrics.ParseDegraded(parsed.Degraded)
		s.logger.Warn("reading parse degraded",
			"model", res.Model,
			"fields", strings.Join(parsed.Degraded, ","),
			"content_len", len(res.Content),
		)
	}
	s.metrics.Reading("ok")

	return &Reading{
		CardDrawn:       card.Name,
		CardElement:     card.Element,
		CardMeaning:     card.Meaning,
		Interpretation:  parsed.Interpretation,
		GuidanceMessage: parsed.Guidance,
		ActionSteps:     parsed.Actions,
		Affirmation:     parsed.Affirmation,
		Model:           res.Model,
	}, nil
}

// template loads the stored prompt, falling back to DefaultTemplate on any
// error or empty content.
func (s *Service) template(ctx context.Context) string {
	if s.templates == nil {
		return DefaultTemplate
	}
	tmpl, err := s.templates.PromptByKey(ctx, TemplateKey)
	if err != nil {
		s.logger.Warn("prompt template unavailable, using default", "key", TemplateKey, "error", err)
		return DefaultTemplate
	}
	if strings.TrimSpace(tmpl) == "" {
		return DefaultTemplate
	}
	return tmpl
}
