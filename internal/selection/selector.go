package selection

import (
	"fmt"
	"strings"

	"github.com/pluralign/prism/internal/community"
	"github.com/pluralign/prism/internal/controversy"
)

// DefaultMaxAdditional caps the communities surfaced beyond the baseline.
const DefaultMaxAdditional = 2

const lowControversyRationale = "Low controversy topic; standard response provided."

// candidate is a proposed community with the reason the rule proposed it.
type candidate struct {
	community string
	reason    string
}

// Select picks which communities' perspectives to surface. The baseline is
// always the user's primary community. When the profile warrants multiple
// perspectives, candidates are gathered by fixed-priority rules (religious,
// political, identity, professional), deduplicated against the user's own
// communities, and truncated at maxAdditional in rule order. No scoring or
// re-ranking happens; rule priority is the ranking.
func Select(user UserProfile, profile controversy.Profile, topic string, maxAdditional int) SelectedCommunities {
	baseline := user.PrimaryCommunity
	if maxAdditional < 0 {
		maxAdditional = DefaultMaxAdditional
	}

	if !profile.ShouldSurfacePerspectives() {
		return SelectedCommunities{
			Baseline:  baseline,
			Rationale: lowControversyRationale,
		}
	}

	topicTable := community.CandidatesFor(topic)

	var candidates []candidate
	var rationaleParts []string

	// Religious rule: an opposing worldview along the religious dimension.
	if profile.Religious >= controversy.LevelMedium {
		if user.IsReligious() {
			if !user.Holds("atheist") {
				candidates = append(candidates, candidate{"secular_progressive", "secular counterpoint"})
			}
		} else {
			for _, c := range community.ReligiousCandidatesFor(topic) {
				if !user.Holds(c) {
					candidates = append(candidates, candidate{c, "religious perspective"})
					break
				}
			}
		}
	}

	// Political rule: fixed opposition table keyed on the user's political
	// leaning, taken from whichever of primary/secondary is typed political.
	if profile.Political >= controversy.LevelMedium {
		var leaning string
		switch {
		case user.PrimaryCommunityType == "political":
			leaning = user.PrimaryCommunity
		case user.SecondaryCommunityType == "political":
			leaning = user.SecondaryCommunity
		}

		switch leaning {
		case "progressive", "socialist":
			candidates = append(candidates, candidate{"conservative", "conservative political perspective"})
		case "conservative":
			candidates = append(candidates, candidate{"progressive", "progressive political perspective"})
		case "libertarian":
			candidates = append(candidates,
				candidate{"progressive", "progressive perspective"},
				candidate{"conservative", "conservative perspective"})
		default:
			candidates = append(candidates, candidate{"progressive", "progressive perspective"})
		}
	}

	// Identity rule: affected communities get a voice; a user who already
	// holds one speaks through the baseline, so only the rationale notes it.
	for _, id := range topicTable.Identity {
		if user.Holds(id) {
			rationaleParts = append(rationaleParts,
				fmt.Sprintf("User is directly affected as %s.", community.DisplayName(id)))
			continue
		}
		if community.TierOf(id) == community.TierIdentity {
			candidates = append(candidates, candidate{
				id, fmt.Sprintf("%s perspective (affected community)", community.DisplayName(id)),
			})
		}
	}

	// Professional rule: the first topic-relevant expert community the user
	// does not already hold.
	for _, p := range topicTable.Professional {
		if !user.Holds(p) {
			candidates = append(candidates, candidate{
				p, fmt.Sprintf("%s expertise", community.DisplayName(p)),
			})
			break
		}
	}

	// Dedup against the user's communities and earlier picks, cap in order.
	seen := make(map[string]bool)
	for _, c := range user.Communities() {
		seen[c] = true
	}
	var additional []string
	for _, cand := range candidates {
		if seen[cand.community] || len(additional) >= maxAdditional {
			continue
		}
		additional = append(additional, cand.community)
		seen[cand.community] = true
		rationaleParts = append(rationaleParts,
			fmt.Sprintf("Added %s: %s.", community.DisplayName(cand.community), cand.reason))
	}

	rationale := fmt.Sprintf("Topic has %s controversy.", strings.Join(profile.ActiveDimensions(), ", "))
	if len(rationaleParts) > 0 {
		rationale += " " + strings.Join(rationaleParts, " ")
	}

	return SelectedCommunities{
		Baseline:   baseline,
		Additional: additional,
		Rationale:  rationale,
	}
}
