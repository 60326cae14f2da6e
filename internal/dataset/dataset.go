// Package dataset loads the synthetic evaluation dataset: user profiles,
// queries, and expected system behavior, one test case per CSV row.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pluralign/prism/internal/controversy"
	"github.com/pluralign/prism/internal/selection"
)

// TestCase is one dataset row: a user, their query, and the expected
// classification and selection outcome.
type TestCase struct {
	User selection.UserProfile

	QueryID       string
	QueryText     string
	TopicCategory string

	Religious controversy.Level
	Political controversy.Level
	Regional  controversy.Level

	ShouldSurface       bool
	SelectedCommunities []string
	ConsistencyGroup    string
	Notes               string
}

// Load reads test cases from the CSV file at path.
func Load(path string) ([]TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses test cases from CSV data. The first record is the header;
// columns are matched by name so column order does not matter.
func Read(r io.Reader) ([]TestCase, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading dataset header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"user_id", "primary_community", "query_id", "query_text"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("dataset missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var cases []TestCase
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dataset line %d: %w", line, err)
		}

		cases = append(cases, TestCase{
			User: selection.UserProfile{
				UserID:                 field(record, "user_id"),
				PrimaryCommunityType:   field(record, "primary_community_type"),
				PrimaryCommunity:       field(record, "primary_community"),
				CommunityStrength:      field(record, "community_strength"),
				SecondaryCommunityType: field(record, "secondary_community_type"),
				SecondaryCommunity:     field(record, "secondary_community"),
				SecondaryStrength:      field(record, "secondary_strength"),
				TertiaryCommunityType:  field(record, "tertiary_community_type"),
				TertiaryCommunity:      field(record, "tertiary_community"),
				AgeRange:               field(record, "age_range"),
				Education:              field(record, "education"),
				Location:               field(record, "location"),
			},
			QueryID:             field(record, "query_id"),
			QueryText:           field(record, "query_text"),
			TopicCategory:       field(record, "topic_category"),
			Religious:           controversy.ParseLevel(field(record, "controversy_religious")),
			Political:           controversy.ParseLevel(field(record, "controversy_political")),
			Regional:            controversy.ParseLevel(field(record, "controversy_regional")),
			ShouldSurface:       field(record, "should_surface_perspectives") == "yes",
			SelectedCommunities: ParseCommunityList(field(record, "selected_communities")),
			ConsistencyGroup:    field(record, "consistency_group"),
			Notes:               field(record, "notes"),
		})
	}
	return cases, nil
}

// ParseCommunityList parses a comma-separated community list. Empty strings
// and the "N/A" sentinel yield nil.
func ParseCommunityList(s string) []string {
	if s == "" || s == "N/A" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UserProfiles returns the unique user profiles in the dataset, first
// occurrence order.
func UserProfiles(cases []TestCase) []selection.UserProfile {
	seen := make(map[string]bool, len(cases))
	var profiles []selection.UserProfile
	for _, tc := range cases {
		if seen[tc.User.UserID] {
			continue
		}
		seen[tc.User.UserID] = true
		profiles = append(profiles, tc.User)
	}
	return profiles
}

// UserProfile returns the profile with the given ID, or false if absent.
func UserProfile(cases []TestCase, userID string) (selection.UserProfile, bool) {
	for _, tc := range cases {
		if tc.User.UserID == userID {
			return tc.User, true
		}
	}
	return selection.UserProfile{}, false
}

// ByConsistencyGroup groups test cases by their consistency group, skipping
// cases without one.
func ByConsistencyGroup(cases []TestCase) map[string][]TestCase {
	groups := make(map[string][]TestCase)
	for _, tc := range cases {
		if tc.ConsistencyGroup == "" {
			continue
		}
		groups[tc.ConsistencyGroup] = append(groups[tc.ConsistencyGroup], tc)
	}
	return groups
}
