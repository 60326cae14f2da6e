package controversy

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// mockCompleter implements Completer for testing.
type mockCompleter struct {
	response string
	err      error
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return m.response, m.err
}

const validResponse = `{
	"is_controversial": true,
	"religious_level": "high",
	"political_level": "medium",
	"regional_level": "low",
	"topic_category": "reproductive_rights",
	"divergent_communities": ["Catholic", "progressive"],
	"intra_community_contrast": "Catholic_progressive",
	"reasoning": "Deeply held positions on both sides."
}`

func TestClassifyQuery_ModelResponse(t *testing.T) {
	mc := NewModelClassifier(&mockCompleter{response: validResponse})
	profile, topic := mc.ClassifyQuery(context.Background(), "Should abortion be legal?", []string{"Catholic"})

	if topic != "reproductive_rights" {
		t.Errorf("topic = %q, want reproductive_rights", topic)
	}
	if profile.Religious != LevelHigh || profile.Political != LevelMedium || profile.Regional != LevelLow {
		t.Errorf("levels = %v/%v/%v, want high/medium/low", profile.Religious, profile.Political, profile.Regional)
	}
	if len(profile.DivergentCommunities) != 2 {
		t.Errorf("divergent communities = %v, want 2 entries", profile.DivergentCommunities)
	}
	if profile.IntraCommunityContrast != "Catholic_progressive" {
		t.Errorf("intra contrast = %q, want Catholic_progressive", profile.IntraCommunityContrast)
	}
	if profile.Reasoning == "" {
		t.Error("reasoning should be carried through")
	}
}

func TestClassifyQuery_CodeFencedResponse(t *testing.T) {
	mc := NewModelClassifier(&mockCompleter{response: "```json\n" + validResponse + "\n```"})
	_, topic := mc.ClassifyQuery(context.Background(), "Should abortion be legal?", nil)
	if topic != "reproductive_rights" {
		t.Errorf("topic = %q, want reproductive_rights", topic)
	}
}

func TestClassifyQuery_UnknownLevelDefaultsToLow(t *testing.T) {
	resp := `{"is_controversial": true, "religious_level": "extreme", "political_level": "high", "regional_level": "low", "topic_category": "gun_rights"}`
	mc := NewModelClassifier(&mockCompleter{response: resp})
	profile, _ := mc.ClassifyQuery(context.Background(), "gun laws", nil)
	if profile.Religious != LevelLow {
		t.Errorf("unrecognized level parsed to %v, want low", profile.Religious)
	}
}

func TestClassifyQuery_FallbackOnError(t *testing.T) {
	mc := NewModelClassifier(&mockCompleter{err: errors.New("connection refused")})
	profile, topic := mc.ClassifyQuery(context.Background(), "Is it wrong to eat meat?", nil)

	// Must transparently fall back to the rule engine.
	if topic != "food_ethics_animal_rights" {
		t.Errorf("fallback topic = %q, want food_ethics_animal_rights", topic)
	}
	if profile.Religious != LevelHigh {
		t.Errorf("fallback religious level = %v, want high", profile.Religious)
	}
}

func TestClassifyQuery_FallbackOnMalformedJSON(t *testing.T) {
	mc := NewModelClassifier(&mockCompleter{response: "I cannot answer in JSON, sorry."})
	_, topic := mc.ClassifyQuery(context.Background(), "Should abortion be legal?", nil)
	if topic != "reproductive_rights" {
		t.Errorf("fallback topic = %q, want reproductive_rights", topic)
	}
}

func TestClassifyQuery_FallbackWithoutCompleter(t *testing.T) {
	mc := NewModelClassifier(nil)
	_, topic := mc.ClassifyQuery(context.Background(), "Do we need stricter gun control?", nil)
	if topic != "gun_rights" {
		t.Errorf("fallback topic = %q, want gun_rights", topic)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range tests {
		if got := stripCodeFence(tc.in); got != tc.want {
			t.Errorf("%s: stripCodeFence(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestDetectionPrompt_UserIdentity(t *testing.T) {
	p := detectionPrompt("test question", []string{"Hindu", "", "progressive"})
	if want := "Hindu + progressive"; !strings.Contains(p, want) {
		t.Errorf("prompt missing identity %q", want)
	}

	p = detectionPrompt("test question", nil)
	if !strings.Contains(p, "identifies as: unknown") {
		t.Error("prompt should mark empty community list as unknown")
	}
}
