// Package community holds the static registry of community identifiers,
// their display names and tier classification, plus the per-topic candidate
// tables used by the selector. Pure lookup data, no state.
package community

import "strings"

// Tier classifies a community and drives which perspective template applies.
type Tier int

const (
	TierOther Tier = iota
	TierReligious
	TierPolitical
	TierProfessional
	TierIdentity
)

func (t Tier) String() string {
	switch t {
	case TierReligious:
		return "religious"
	case TierPolitical:
		return "political"
	case TierProfessional:
		return "professional"
	case TierIdentity:
		return "identity"
	default:
		return "other"
	}
}

// Community is one registry entry.
type Community struct {
	ID   string
	Name string
	Tier Tier
}

var registry = map[string]Community{
	// Religious traditions.
	"Hindu":                  {ID: "Hindu", Name: "Hindu", Tier: TierReligious},
	"Hindu_traditional":      {ID: "Hindu_traditional", Name: "Traditional Hindu", Tier: TierReligious},
	"Hindu_progressive":      {ID: "Hindu_progressive", Name: "Progressive Hindu", Tier: TierReligious},
	"Muslim_Sunni":           {ID: "Muslim_Sunni", Name: "Sunni Muslim", Tier: TierReligious},
	"Muslim_Shia":            {ID: "Muslim_Shia", Name: "Shia Muslim", Tier: TierReligious},
	"Catholic":               {ID: "Catholic", Name: "Catholic", Tier: TierReligious},
	"evangelical_protestant": {ID: "evangelical_protestant", Name: "Evangelical Protestant", Tier: TierReligious},
	"mainline_protestant":    {ID: "mainline_protestant", Name: "Mainline Protestant", Tier: TierReligious},
	"Jewish_Orthodox":        {ID: "Jewish_Orthodox", Name: "Orthodox Jewish", Tier: TierReligious},
	"reform_jewish":          {ID: "reform_jewish", Name: "Reform Jewish", Tier: TierReligious},
	"Buddhist":               {ID: "Buddhist", Name: "Buddhist", Tier: TierReligious},
	"Sikh":                   {ID: "Sikh", Name: "Sikh", Tier: TierReligious},
	"Jain":                   {ID: "Jain", Name: "Jain", Tier: TierReligious},

	// Secular / political orientations.
	"atheist":             {ID: "atheist", Name: "Atheist", Tier: TierOther},
	"secular_progressive": {ID: "secular_progressive", Name: "Secular Progressive", Tier: TierOther},
	"progressive":         {ID: "progressive", Name: "Progressive", Tier: TierPolitical},
	"conservative":        {ID: "conservative", Name: "Conservative", Tier: TierPolitical},
	"libertarian":         {ID: "libertarian", Name: "Libertarian", Tier: TierPolitical},
	"socialist":           {ID: "socialist", Name: "Socialist", Tier: TierPolitical},
	"moderate":            {ID: "moderate", Name: "Moderate", Tier: TierPolitical},
	"environmentalist":    {ID: "environmentalist", Name: "Environmentalist", Tier: TierPolitical},

	// Professional / expert communities.
	"economist":               {ID: "economist", Name: "Economist", Tier: TierProfessional},
	"climate_scientist":       {ID: "climate_scientist", Name: "Climate Scientist", Tier: TierProfessional},
	"environmental_scientist": {ID: "environmental_scientist", Name: "Environmental Scientist", Tier: TierProfessional},
	"medical_researcher":      {ID: "medical_researcher", Name: "Medical Researcher", Tier: TierProfessional},
	"law_enforcement":         {ID: "law_enforcement", Name: "Law Enforcement", Tier: TierProfessional},
	"educator":                {ID: "educator", Name: "Educator", Tier: TierProfessional},

	// Identity / lived-experience communities.
	"women":                      {ID: "women", Name: "Women", Tier: TierIdentity},
	"feminist":                   {ID: "feminist", Name: "Feminist", Tier: TierIdentity},
	"LGBTQ_gay":                  {ID: "LGBTQ_gay", Name: "LGBTQ", Tier: TierIdentity},
	"indigenous":                 {ID: "indigenous", Name: "Indigenous", Tier: TierIdentity},
	"immigrant":                  {ID: "immigrant", Name: "Immigrant", Tier: TierIdentity},
	"second_generation":          {ID: "second_generation", Name: "Second-Generation Immigrant", Tier: TierIdentity},
	"vegetarian":                 {ID: "vegetarian", Name: "Vegetarian", Tier: TierIdentity},
	"animal_rights_activist":     {ID: "animal_rights_activist", Name: "Animal Rights Activist", Tier: TierIdentity},
	"working_class":              {ID: "working_class", Name: "Working Class", Tier: TierIdentity},
	"labor_union":                {ID: "labor_union", Name: "Labor Union Member", Tier: TierIdentity},
	"gun_owner":                  {ID: "gun_owner", Name: "Gun Owner", Tier: TierIdentity},
	"gun_violence_survivor":      {ID: "gun_violence_survivor", Name: "Gun Violence Survivor", Tier: TierIdentity},
	"parent":                     {ID: "parent", Name: "Parent", Tier: TierIdentity},
	"neurodivergent":             {ID: "neurodivergent", Name: "Neurodivergent", Tier: TierIdentity},
	"parent_of_disabled":         {ID: "parent_of_disabled", Name: "Parent of a Disabled Child", Tier: TierIdentity},
	"disability_rights_advocate": {ID: "disability_rights_advocate", Name: "Disability Rights Advocate", Tier: TierIdentity},
	"local_community":            {ID: "local_community", Name: "Local Community", Tier: TierIdentity},

	// Regional / cultural.
	"Global_South":         {ID: "Global_South", Name: "Global South", Tier: TierOther},
	"South_Asian_diaspora": {ID: "South_Asian_diaspora", Name: "South Asian Diaspora", Tier: TierOther},
	"border_community":     {ID: "border_community", Name: "Border Community", Tier: TierOther},
	"rural_US":             {ID: "rural_US", Name: "Rural US", Tier: TierOther},
	"urban_US":             {ID: "urban_US", Name: "Urban US", Tier: TierOther},
}

// Lookup returns the registry entry for id.
func Lookup(id string) (Community, bool) {
	c, ok := registry[id]
	return c, ok
}

// TierOf returns the tier for id, or TierOther for unknown communities.
func TierOf(id string) Tier {
	if c, ok := registry[id]; ok {
		return c.Tier
	}
	return TierOther
}

// DisplayName returns the human-readable name for id. Unknown IDs are
// humanized (underscores to spaces) rather than failing.
func DisplayName(id string) string {
	if c, ok := registry[id]; ok {
		return c.Name
	}
	return strings.ReplaceAll(id, "_", " ")
}
