package perspective

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pluralign/prism/internal/cache"
)

const (
	perspectiveMaxTokens = 800
	synthesisMaxTokens   = 400

	// unavailableText is returned when no model is configured. Bracketed
	// placeholders are never written to the cache.
	unavailableText = "[generation unavailable: no model configured]"
)

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Generator produces community perspectives, consulting the consistency
// cache before calling the model.
type Generator struct {
	completer Completer
	cache     *cache.Cache
}

// NewGenerator creates a Generator. completer may be nil when no model is
// configured; generation then yields placeholder text instead of failing.
func NewGenerator(completer Completer, c *cache.Cache) *Generator {
	return &Generator{completer: completer, cache: c}
}

// Generate returns the perspective of one community on a question. Cached
// text is reused when the topic is known; fresh generations are cached
// unless they are placeholders.
func (g *Generator) Generate(ctx context.Context, communityID, topic, question string) string {
	if g.cache != nil && topic != "" {
		text, ok, err := g.cache.Get(communityID, topic, question)
		if err != nil {
			slog.Warn("cache lookup failed", "community", communityID, "error", err)
		} else if ok {
			return text
		}
	}

	text := g.complete(ctx, PerspectivePrompt(communityID, question), perspectiveMaxTokens)

	if g.cache != nil && topic != "" && !strings.HasPrefix(text, "[") {
		if err := g.cache.Put(communityID, topic, question, text); err != nil {
			slog.Warn("cache store failed", "community", communityID, "error", err)
		}
	}
	return text
}

// GenerateAll produces perspectives for every community concurrently and
// returns them keyed by community ID. Individual failures surface as
// placeholder text rather than aborting the whole set.
func (g *Generator) GenerateAll(ctx context.Context, communities []string, topic, question string) map[string]string {
	perspectives := make(map[string]string, len(communities))
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	for _, id := range communities {
		eg.Go(func() error {
			text := g.Generate(ctx, id, topic, question)
			mu.Lock()
			perspectives[id] = text
			mu.Unlock()
			return nil
		})
	}
	eg.Wait()
	return perspectives
}

// Synthesize writes a one-paragraph synthesis across the given perspectives.
func (g *Generator) Synthesize(ctx context.Context, perspectives map[string]string) string {
	return g.complete(ctx, SynthesisPrompt(perspectives), synthesisMaxTokens)
}

// Tensions describes conflicts between the user's own communities on the
// question. Returns "" when the user holds fewer than two communities.
func (g *Generator) Tensions(ctx context.Context, communityIDs []string, question string) string {
	prompt := TensionsPrompt(communityIDs, question)
	if prompt == "" {
		return ""
	}
	return g.complete(ctx, prompt, perspectiveMaxTokens)
}

// Standard answers a question directly, without community framing.
func (g *Generator) Standard(ctx context.Context, question string) string {
	return g.complete(ctx, StandardPrompt(question), perspectiveMaxTokens)
}

func (g *Generator) complete(ctx context.Context, prompt string, maxTokens int) string {
	if g.completer == nil {
		return unavailableText
	}
	text, err := g.completer.Complete(ctx, prompt, maxTokens)
	if err != nil {
		slog.Warn("completion failed", "error", err)
		return fmt.Sprintf("[generation failed: %v]", err)
	}
	return text
}
