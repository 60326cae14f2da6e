// Package eval scores the classifier and selector against the synthetic
// dataset: appropriateness of the surfacing decision, coverage of expected
// communities, and structural consistency across similar queries.
package eval

import (
	"sort"

	"github.com/pluralign/prism/internal/controversy"
	"github.com/pluralign/prism/internal/dataset"
	"github.com/pluralign/prism/internal/selection"
)

// Targets the suites are held to.
const (
	TargetPrecision   = 0.85
	TargetRecall      = 0.80
	TargetCoverage    = 0.90
	TargetConsistency = 0.85
)

// CaseOutcome records one appropriateness decision.
type CaseOutcome struct {
	QueryID       string `json:"query_id"`
	Query         string `json:"query"`
	Expected      bool   `json:"expected"`
	Predicted     bool   `json:"predicted"`
	Outcome       string `json:"outcome"` // TP, TN, FP, FN
	TopicCategory string `json:"topic_category,omitempty"`
}

// AppropriatenessReport scores the surface-or-not decision.
type AppropriatenessReport struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Accuracy  float64 `json:"accuracy"`
	F1        float64 `json:"f1_score"`

	TruePositives  int `json:"true_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
	TotalCases     int `json:"total_cases"`

	// Errors holds the FP and FN cases for inspection.
	Errors []CaseOutcome `json:"errors,omitempty"`
}

// MeetsTargets reports whether both precision and recall targets are met.
func (r AppropriatenessReport) MeetsTargets() bool {
	return r.Precision >= TargetPrecision && r.Recall >= TargetRecall
}

// EvaluateAppropriateness runs the rule classifier over every test case and
// compares its surfacing decision to the dataset's expectation.
func EvaluateAppropriateness(cases []dataset.TestCase) AppropriatenessReport {
	var r AppropriatenessReport
	r.TotalCases = len(cases)

	for _, tc := range cases {
		profile, topic := controversy.Classify(tc.QueryText)
		predicted := profile.ShouldSurfacePerspectives()

		var outcome string
		switch {
		case tc.ShouldSurface && predicted:
			r.TruePositives++
			outcome = "TP"
		case !tc.ShouldSurface && !predicted:
			r.TrueNegatives++
			outcome = "TN"
		case !tc.ShouldSurface && predicted:
			r.FalsePositives++
			outcome = "FP"
		default:
			r.FalseNegatives++
			outcome = "FN"
		}

		if outcome == "FP" || outcome == "FN" {
			r.Errors = append(r.Errors, CaseOutcome{
				QueryID:       tc.QueryID,
				Query:         tc.QueryText,
				Expected:      tc.ShouldSurface,
				Predicted:     predicted,
				Outcome:       outcome,
				TopicCategory: topic,
			})
		}
	}

	if denom := r.TruePositives + r.FalsePositives; denom > 0 {
		r.Precision = float64(r.TruePositives) / float64(denom)
	}
	if denom := r.TruePositives + r.FalseNegatives; denom > 0 {
		r.Recall = float64(r.TruePositives) / float64(denom)
	}
	if r.TotalCases > 0 {
		r.Accuracy = float64(r.TruePositives+r.TrueNegatives) / float64(r.TotalCases)
	}
	if sum := r.Precision + r.Recall; sum > 0 {
		r.F1 = 2 * r.Precision * r.Recall / sum
	}
	return r
}

// CoverageCase records one coverage comparison.
type CoverageCase struct {
	QueryID   string   `json:"query_id"`
	Expected  []string `json:"expected"`
	Predicted []string `json:"predicted"`
	Missing   []string `json:"missing,omitempty"`
	Extra     []string `json:"extra,omitempty"`
	Recall    float64  `json:"recall"`
}

// CoverageReport scores how completely the selector recovers the expected
// communities.
type CoverageReport struct {
	MeanRecall   float64        `json:"mean_recall"`
	TotalCases   int            `json:"total_cases"`
	PerfectCases int            `json:"perfect_cases"`
	PartialCases int            `json:"partial_cases"`
	ZeroCases    int            `json:"zero_cases"`
	Results      []CoverageCase `json:"results,omitempty"`
}

// MeetsTarget reports whether mean recall reaches the coverage target.
func (r CoverageReport) MeetsTarget() bool { return r.MeanRecall >= TargetCoverage }

// EvaluateCoverage compares the selector's communities to the dataset's
// expected list, for cases where perspectives should surface.
func EvaluateCoverage(cases []dataset.TestCase) CoverageReport {
	var r CoverageReport
	var sum float64

	for _, tc := range cases {
		if !tc.ShouldSurface || len(tc.SelectedCommunities) == 0 {
			continue
		}

		profile, topic := controversy.Classify(tc.QueryText)
		selected := selection.Select(tc.User, profile, topic, selection.DefaultMaxAdditional)

		predicted := make(map[string]bool)
		for _, c := range selected.All() {
			predicted[c] = true
		}

		var hit int
		var missing []string
		for _, want := range tc.SelectedCommunities {
			if predicted[want] {
				hit++
			} else {
				missing = append(missing, want)
			}
		}
		expected := make(map[string]bool, len(tc.SelectedCommunities))
		for _, c := range tc.SelectedCommunities {
			expected[c] = true
		}
		var extra []string
		for _, c := range selected.All() {
			if !expected[c] {
				extra = append(extra, c)
			}
		}

		recall := float64(hit) / float64(len(tc.SelectedCommunities))
		sum += recall
		r.TotalCases++
		switch {
		case recall == 1:
			r.PerfectCases++
		case recall == 0:
			r.ZeroCases++
		default:
			r.PartialCases++
		}

		r.Results = append(r.Results, CoverageCase{
			QueryID:   tc.QueryID,
			Expected:  tc.SelectedCommunities,
			Predicted: selected.All(),
			Missing:   missing,
			Extra:     extra,
			Recall:    recall,
		})
	}

	if r.TotalCases > 0 {
		r.MeanRecall = sum / float64(r.TotalCases)
	}
	return r
}

// GroupSelection is one user's selection within a consistency group.
type GroupSelection struct {
	UserID     string   `json:"user_id"`
	Baseline   string   `json:"baseline"`
	Additional []string `json:"additional"`
}

// GroupResult scores one consistency group. A group is consistent when every
// member receives the same additional communities; baselines legitimately
// differ per user.
type GroupResult struct {
	Group      string           `json:"group"`
	NumCases   int              `json:"num_cases"`
	Consistent bool             `json:"consistent"`
	Patterns   int              `json:"unique_patterns"`
	Selections []GroupSelection `json:"selections"`
}

// ConsistencyReport scores structural consistency across all groups.
type ConsistencyReport struct {
	TotalGroups      int           `json:"total_groups"`
	ConsistentGroups int           `json:"consistent_groups"`
	Rate             float64       `json:"consistency_rate"`
	Groups           []GroupResult `json:"groups,omitempty"`
}

// MeetsTarget reports whether the consistency rate reaches its target.
func (r ConsistencyReport) MeetsTarget() bool { return r.Rate >= TargetConsistency }

// EvaluateConsistency checks that users in the same consistency group get
// the same additional communities. Groups with fewer than two cases are
// skipped.
func EvaluateConsistency(cases []dataset.TestCase) ConsistencyReport {
	groups := dataset.ByConsistencyGroup(cases)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var r ConsistencyReport
	for _, name := range names {
		members := groups[name]
		if len(members) < 2 {
			continue
		}

		patterns := make(map[string]bool)
		var selections []GroupSelection
		for _, tc := range members {
			profile, topic := controversy.Classify(tc.QueryText)
			selected := selection.Select(tc.User, profile, topic, selection.DefaultMaxAdditional)

			additional := append([]string(nil), selected.Additional...)
			sort.Strings(additional)
			patterns[fingerprint(additional)] = true
			selections = append(selections, GroupSelection{
				UserID:     tc.User.UserID,
				Baseline:   selected.Baseline,
				Additional: additional,
			})
		}

		consistent := len(patterns) == 1
		r.TotalGroups++
		if consistent {
			r.ConsistentGroups++
		}
		r.Groups = append(r.Groups, GroupResult{
			Group:      name,
			NumCases:   len(members),
			Consistent: consistent,
			Patterns:   len(patterns),
			Selections: selections,
		})
	}

	if r.TotalGroups > 0 {
		r.Rate = float64(r.ConsistentGroups) / float64(r.TotalGroups)
	}
	return r
}

func fingerprint(communities []string) string {
	out := ""
	for _, c := range communities {
		out += c + "|"
	}
	return out
}

// Summary bundles all three suite reports.
type Summary struct {
	Appropriateness AppropriatenessReport `json:"appropriateness"`
	Coverage        CoverageReport        `json:"coverage"`
	Consistency     ConsistencyReport     `json:"consistency"`
}

// AllTargetsMet reports whether every suite met its targets.
func (s Summary) AllTargetsMet() bool {
	return s.Appropriateness.MeetsTargets() && s.Coverage.MeetsTarget() && s.Consistency.MeetsTarget()
}

// RunAll runs every suite over the dataset.
func RunAll(cases []dataset.TestCase) Summary {
	return Summary{
		Appropriateness: EvaluateAppropriateness(cases),
		Coverage:        EvaluateCoverage(cases),
		Consistency:     EvaluateConsistency(cases),
	}
}
