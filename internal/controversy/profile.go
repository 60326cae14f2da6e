// Package controversy decides whether a query is divisive along religious,
// political, or regional lines. Two classifiers share the same contract: a
// deterministic rule engine and a model-backed classifier that always falls
// back to the rule engine on failure.
package controversy

import (
	"encoding/json"
	"strings"
)

// Level is the ordered severity of disagreement on one dimension.
type Level int

const (
	LevelNone Level = iota
	LevelLow
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "low"
	}
}

// MarshalJSON renders a Level as its lowercase name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the lowercase level names, defaulting unknown values
// to LevelLow per ParseLevel.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = ParseLevel(s)
	return nil
}

// ParseLevel maps a level string to a Level, case-insensitively. Anything
// unrecognized defaults to LevelLow; it never fails.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return LevelNone
	case "low":
		return LevelLow
	case "medium":
		return LevelMedium
	case "high":
		return LevelHigh
	default:
		return LevelLow
	}
}

// Profile holds controversy levels across the three dimensions plus optional
// enrichment from the model-backed classifier. Profiles are produced once by
// a classifier and never mutated by consumers.
type Profile struct {
	Religious Level `json:"religious"`
	Political Level `json:"political"`
	Regional  Level `json:"regional"`

	// DivergentCommunities are communities the model identified as holding
	// divergent views. Empty for the rule engine.
	DivergentCommunities []string `json:"divergent_communities,omitempty"`
	// Reasoning is the model's brief explanation. Empty for the rule engine.
	Reasoning string `json:"reasoning,omitempty"`
	// IntraCommunityContrast names a contrasting view within the user's own
	// primary community (e.g. Hindu_traditional for a Hindu_progressive
	// user), or is empty.
	IntraCommunityContrast string `json:"intra_community_contrast,omitempty"`
}

// ShouldSurfacePerspectives reports whether any dimension is medium or high.
func (p Profile) ShouldSurfacePerspectives() bool {
	return p.MaxLevel() >= LevelMedium
}

// MaxLevel returns the highest level across the three dimensions.
func (p Profile) MaxLevel() Level {
	m := p.Religious
	if p.Political > m {
		m = p.Political
	}
	if p.Regional > m {
		m = p.Regional
	}
	return m
}

// ActiveDimensions returns the dimensions at medium or above, always in
// religious, political, regional order.
func (p Profile) ActiveDimensions() []string {
	var dims []string
	if p.Religious >= LevelMedium {
		dims = append(dims, "religious")
	}
	if p.Political >= LevelMedium {
		dims = append(dims, "political")
	}
	if p.Regional >= LevelMedium {
		dims = append(dims, "regional")
	}
	return dims
}
