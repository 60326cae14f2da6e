package controversy

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

const (
	classifyTimeout   = 10 * time.Second
	classifyMaxTokens = 500
)

// Completer is the generation capability the model classifier depends on.
// Implemented by llm.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ModelClassifier classifies queries with an external model, degrading to
// the rule engine on any failure. It has no failure mode visible to callers.
type ModelClassifier struct {
	completer Completer
}

// NewModelClassifier creates a classifier backed by the given completer.
// A nil completer is allowed; classification then always takes the rule path.
func NewModelClassifier(completer Completer) *ModelClassifier {
	return &ModelClassifier{completer: completer}
}

// modelResult is the outcome of one model round-trip: either a classified
// profile or a failure reason. The fallback to the rule engine is an explicit
// branch on this type, not error plumbing.
type modelResult struct {
	profile Profile
	topic   string
	failure string
}

func classified(p Profile, topic string) modelResult { return modelResult{profile: p, topic: topic} }
func failed(reason string) modelResult               { return modelResult{failure: reason} }

// ClassifyQuery classifies a query with the model, falling back to the
// deterministic rule engine on any failure. The failure reason is logged
// for diagnostics but never surfaced to the caller.
func (m *ModelClassifier) ClassifyQuery(ctx context.Context, query string, userCommunities []string) (Profile, string) {
	res := m.classifyOnce(ctx, query, userCommunities)
	if res.failure != "" {
		slog.Warn("model classification failed, using rule engine", "reason", res.failure)
		return Classify(query)
	}
	return res.profile, res.topic
}

func (m *ModelClassifier) classifyOnce(ctx context.Context, query string, userCommunities []string) modelResult {
	if m.completer == nil {
		return failed("no generation capability configured")
	}

	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	raw, err := m.completer.Complete(ctx, detectionPrompt(query, userCommunities), classifyMaxTokens)
	if err != nil {
		return failed("completion error: " + err.Error())
	}

	var resp struct {
		IsControversial        bool     `json:"is_controversial"`
		ReligiousLevel         string   `json:"religious_level"`
		PoliticalLevel         string   `json:"political_level"`
		RegionalLevel          string   `json:"regional_level"`
		TopicCategory          *string  `json:"topic_category"`
		DivergentCommunities   []string `json:"divergent_communities"`
		IntraCommunityContrast *string  `json:"intra_community_contrast"`
		Reasoning              string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		return failed("malformed response: " + err.Error())
	}

	p := Profile{
		Religious:            ParseLevel(resp.ReligiousLevel),
		Political:            ParseLevel(resp.PoliticalLevel),
		Regional:             ParseLevel(resp.RegionalLevel),
		DivergentCommunities: resp.DivergentCommunities,
		Reasoning:            resp.Reasoning,
	}
	if resp.IntraCommunityContrast != nil {
		p.IntraCommunityContrast = *resp.IntraCommunityContrast
	}

	topic := ""
	if resp.TopicCategory != nil {
		topic = *resp.TopicCategory
	}
	return classified(p, topic)
}

// stripCodeFence removes surrounding markdown code fences from model output.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	end := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	body := strings.Join(lines[1:end], "\n")
	return strings.TrimSpace(strings.TrimPrefix(body, "json"))
}
