package openrouter

import (
	"context"
	"strings"
	"time"
)

// ModelChain is the ordered list of candidate models. Generate walks it front
// to back and stops at the first success.
type ModelChain []string

// DefaultChain is used when no models are configured.
var DefaultChain = ModelChain{
	"tngtech/deepseek-r1t2-chimera:free",
	"deepseek/deepseek-chat:free",
}

// NewChain builds a chain from configured model ids, dropping blanks and
// repeats while keeping first-seen order.
func NewChain(models ...string) ModelChain {
	seen := make(map[string]bool, len(models))
	chain := make(ModelChain, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		chain = append(chain, m)
	}
	return chain
}

// Result is a successful generation.
type Result struct {
	Model    string
	Content  string
	Attempts int
}

// Generate tries each model in chain exactly once, sequentially. Failures are
// logged and the loop moves on; if none succeeds the error is an
// *UnavailableError carrying the last cause.
func (c *Client) Generate(ctx context.Context, chain ModelChain, messages []Message, opts Options) (Result, error) {
	if len(chain) == 0 {
		return Result{}, &UnavailableError{}
	}

	var last error
	attempts := 0
	for _, model := range chain {
		if err := ctx.Err(); err != nil {
			last = err
			break
		}
		attempts++

		start := time.Now()
		content, err := c.Complete(ctx, model, messages, opts)
		elapsed := time.Since(start)

		if err == nil {
			c.metrics.GenerationAttempt(model, "ok", elapsed.Seconds())
			c.logger.Info("generation succeeded",
				"model", model,
				"attempt", attempts,
				"duration_ms", elapsed.Milliseconds(),
				"content_len", len(content),
			)
			return Result{Model: model, Content: content, Attempts: attempts}, nil
		}

		c.metrics.GenerationAttempt(model, "error", elapsed.Seconds())
		c.logger.Warn("generation candidate failed",
			"model", model,
			"attempt", attempts,
			"error", err,
		)
		last = err
	}

	return Result{}, &UnavailableError{Attempts: attempts, Last: last}
}
