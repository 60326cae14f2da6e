package eval

import (
	"testing"

	"github.com/pluralign/prism/internal/dataset"
	"github.com/pluralign/prism/internal/selection"
)

var hinduUser = selection.UserProfile{
	UserID:               "U001",
	PrimaryCommunityType: "religious",
	PrimaryCommunity:     "Hindu_progressive",
}

var secularUser = selection.UserProfile{
	UserID:               "U002",
	PrimaryCommunityType: "secular",
	PrimaryCommunity:     "secular_progressive",
}

func surfacedCase(queryID, query string, user selection.UserProfile, group string) dataset.TestCase {
	return dataset.TestCase{
		User:             user,
		QueryID:          queryID,
		QueryText:        query,
		ShouldSurface:    true,
		ConsistencyGroup: group,
	}
}

func factualCase(queryID, query string) dataset.TestCase {
	return dataset.TestCase{
		User:          secularUser,
		QueryID:       queryID,
		QueryText:     query,
		ShouldSurface: false,
	}
}

func TestEvaluateAppropriateness_AllCorrect(t *testing.T) {
	cases := []dataset.TestCase{
		surfacedCase("Q1", "Is it ethical to eat meat?", hinduUser, ""),
		surfacedCase("Q2", "Should abortion be legal?", hinduUser, ""),
		factualCase("Q3", "What time is it in Tokyo?"),
		factualCase("Q4", "How do I bake bread?"),
	}

	r := EvaluateAppropriateness(cases)
	if r.TruePositives != 2 || r.TrueNegatives != 2 {
		t.Errorf("TP=%d TN=%d FP=%d FN=%d", r.TruePositives, r.TrueNegatives, r.FalsePositives, r.FalseNegatives)
	}
	if r.Precision != 1 || r.Recall != 1 || r.Accuracy != 1 {
		t.Errorf("precision=%v recall=%v accuracy=%v", r.Precision, r.Recall, r.Accuracy)
	}
	if !r.MeetsTargets() {
		t.Error("perfect classification should meet targets")
	}
	if len(r.Errors) != 0 {
		t.Errorf("errors = %v", r.Errors)
	}
}

func TestEvaluateAppropriateness_RecordsErrors(t *testing.T) {
	cases := []dataset.TestCase{
		surfacedCase("Q1", "Is it ethical to eat meat?", hinduUser, ""),
		// Expected to surface but phrased as a capital-of question, which
		// the rules treat as factual.
		surfacedCase("Q2", "What is the capital of France?", hinduUser, ""),
	}

	r := EvaluateAppropriateness(cases)
	if r.FalseNegatives != 1 {
		t.Fatalf("FN = %d, want 1", r.FalseNegatives)
	}
	if len(r.Errors) != 1 || r.Errors[0].Outcome != "FN" || r.Errors[0].QueryID != "Q2" {
		t.Errorf("errors = %+v", r.Errors)
	}
	if r.Recall != 0.5 {
		t.Errorf("recall = %v, want 0.5", r.Recall)
	}
}

func TestEvaluateCoverage(t *testing.T) {
	tc := surfacedCase("Q1", "Is it ethical to eat meat?", hinduUser, "")
	tc.SelectedCommunities = []string{"Hindu_progressive", "secular_progressive"}

	r := EvaluateCoverage([]dataset.TestCase{tc})
	if r.TotalCases != 1 {
		t.Fatalf("TotalCases = %d", r.TotalCases)
	}
	if r.MeanRecall != 1 {
		t.Errorf("MeanRecall = %v, want 1 (missing: %v)", r.MeanRecall, r.Results[0].Missing)
	}
	if r.PerfectCases != 1 {
		t.Errorf("PerfectCases = %d", r.PerfectCases)
	}
}

func TestEvaluateCoverage_SkipsNonSurfacedCases(t *testing.T) {
	cases := []dataset.TestCase{
		factualCase("Q1", "What time is it in Tokyo?"),
	}
	r := EvaluateCoverage(cases)
	if r.TotalCases != 0 {
		t.Errorf("TotalCases = %d, want 0", r.TotalCases)
	}
}

func TestEvaluateCoverage_Partial(t *testing.T) {
	tc := surfacedCase("Q1", "Is it ethical to eat meat?", hinduUser, "")
	tc.SelectedCommunities = []string{"Hindu_progressive", "no_such_community"}

	r := EvaluateCoverage([]dataset.TestCase{tc})
	if r.MeanRecall != 0.5 {
		t.Errorf("MeanRecall = %v, want 0.5", r.MeanRecall)
	}
	if r.PartialCases != 1 {
		t.Errorf("PartialCases = %d", r.PartialCases)
	}
	if len(r.Results[0].Missing) != 1 || r.Results[0].Missing[0] != "no_such_community" {
		t.Errorf("Missing = %v", r.Results[0].Missing)
	}
}

func TestEvaluateConsistency_SameUsersSameSelections(t *testing.T) {
	other := hinduUser
	other.UserID = "U003"
	cases := []dataset.TestCase{
		surfacedCase("Q1", "Is it ethical to eat meat?", hinduUser, "g1"),
		surfacedCase("Q2", "Should we eat animals?", other, "g1"),
	}

	r := EvaluateConsistency(cases)
	if r.TotalGroups != 1 {
		t.Fatalf("TotalGroups = %d", r.TotalGroups)
	}
	if r.ConsistentGroups != 1 || r.Rate != 1 {
		t.Errorf("group inconsistent: %+v", r.Groups)
	}
	if !r.MeetsTarget() {
		t.Error("fully consistent run should meet target")
	}
}

func TestEvaluateConsistency_SkipsSingletonGroups(t *testing.T) {
	cases := []dataset.TestCase{
		surfacedCase("Q1", "Is it ethical to eat meat?", hinduUser, "solo"),
	}
	r := EvaluateConsistency(cases)
	if r.TotalGroups != 0 {
		t.Errorf("TotalGroups = %d, want 0", r.TotalGroups)
	}
}

func TestEvaluateConsistency_DetectsDivergence(t *testing.T) {
	cases := []dataset.TestCase{
		surfacedCase("Q1", "Is it ethical to eat meat?", hinduUser, "g1"),
		// A secular user on the same topic draws different additional
		// communities than a religious user.
		surfacedCase("Q2", "Is it ethical to eat meat?", secularUser, "g1"),
	}

	r := EvaluateConsistency(cases)
	if r.TotalGroups != 1 {
		t.Fatalf("TotalGroups = %d", r.TotalGroups)
	}
	if r.ConsistentGroups != 0 {
		t.Errorf("expected divergent selections, got %+v", r.Groups)
	}
}

func TestRunAll(t *testing.T) {
	q1 := surfacedCase("Q1", "Is it ethical to eat meat?", hinduUser, "g1")
	q1.SelectedCommunities = []string{"Hindu_progressive", "secular_progressive"}
	q2 := surfacedCase("Q2", "Should we eat animals?", hinduUser, "g1")
	q2.SelectedCommunities = []string{"Hindu_progressive", "secular_progressive"}
	cases := []dataset.TestCase{
		q1,
		q2,
		factualCase("Q3", "What time is it in Tokyo?"),
	}
	s := RunAll(cases)
	if s.Appropriateness.TotalCases != 3 {
		t.Errorf("appropriateness cases = %d", s.Appropriateness.TotalCases)
	}
	if s.Consistency.TotalGroups != 1 {
		t.Errorf("consistency groups = %d", s.Consistency.TotalGroups)
	}
	if !s.AllTargetsMet() {
		t.Error("expected all targets met on this dataset")
	}
}
