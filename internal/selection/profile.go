// Package selection decides which communities' perspectives to surface for
// a query, given the requester's affiliations and a controversy profile.
// Selection is a pure function over its inputs and the static topic tables.
package selection

// UserProfile carries a requester's community affiliations. Primary is
// required; secondary and tertiary are optional. Demographic fields are
// carried for persistence but never consulted by selection.
type UserProfile struct {
	UserID string

	PrimaryCommunityType string
	PrimaryCommunity     string
	CommunityStrength    string

	SecondaryCommunityType string
	SecondaryCommunity     string
	SecondaryStrength      string

	TertiaryCommunityType string
	TertiaryCommunity     string

	AgeRange  string
	Education string
	Location  string
}

// Communities returns the user's communities in primary, secondary, tertiary
// order with absent slots omitted. The primary community always leads.
func (u UserProfile) Communities() []string {
	out := []string{u.PrimaryCommunity}
	if u.SecondaryCommunity != "" {
		out = append(out, u.SecondaryCommunity)
	}
	if u.TertiaryCommunity != "" {
		out = append(out, u.TertiaryCommunity)
	}
	return out
}

// Holds reports whether the user is affiliated with the given community.
func (u UserProfile) Holds(community string) bool {
	for _, c := range u.Communities() {
		if c == community {
			return true
		}
	}
	return false
}

// IsReligious reports whether the user's primary affiliation is religious.
func (u UserProfile) IsReligious() bool { return u.PrimaryCommunityType == "religious" }

// IsSecular reports whether the user's primary affiliation is secular.
func (u UserProfile) IsSecular() bool { return u.PrimaryCommunityType == "secular" }

// IsPolitical reports whether the user's primary affiliation is political.
func (u UserProfile) IsPolitical() bool { return u.PrimaryCommunityType == "political" }

// SelectedCommunities is the result of community selection.
type SelectedCommunities struct {
	// Baseline is the user's primary community, always present.
	Baseline string
	// Additional holds up to maxAdditional communities beyond the baseline,
	// in the order the selection rules produced them. Disjoint from the
	// user's own communities and free of duplicates.
	Additional []string
	// Rationale explains why these communities were chosen.
	Rationale string
}

// All returns the baseline followed by the additional communities.
func (s SelectedCommunities) All() []string {
	return append([]string{s.Baseline}, s.Additional...)
}
