package community

// TopicCandidates lists the communities most relevant to a topic category,
// grouped by the kind of perspective they contribute. The selector walks
// these lists in order, so list order is deliberate.
type TopicCandidates struct {
	Religious    []string
	Political    []string
	Professional []string
	Identity     []string
	Secular      []string
	Regional     []string
}

var topicCandidates = map[string]TopicCandidates{
	"reproductive_rights": {
		Religious: []string{"Catholic", "evangelical_protestant", "reform_jewish", "Muslim_Sunni"},
		Political: []string{"progressive", "conservative", "libertarian"},
		Identity:  []string{"women", "feminist"},
	},
	"climate_environment": {
		Professional: []string{"climate_scientist", "environmental_scientist", "economist"},
		Political:    []string{"progressive", "conservative", "libertarian", "environmentalist"},
		Regional:     []string{"Global_South", "indigenous"},
	},
	"church_state_separation": {
		Religious: []string{"Muslim_Sunni", "Sikh", "evangelical_protestant", "Catholic"},
		Secular:   []string{"atheist"},
		Political: []string{"progressive", "conservative", "libertarian"},
	},
	"food_ethics_animal_rights": {
		Religious:    []string{"Hindu", "Buddhist", "Jain", "Muslim_Sunni", "Jewish_Orthodox"},
		Identity:     []string{"vegetarian", "animal_rights_activist"},
		Professional: []string{"environmental_scientist"},
	},
	"economic_policy": {
		Political:    []string{"progressive", "conservative", "libertarian", "socialist"},
		Professional: []string{"economist"},
		Identity:     []string{"working_class", "labor_union"},
	},
	"LGBTQ_rights": {
		Religious: []string{"evangelical_protestant", "Catholic", "reform_jewish", "mainline_protestant"},
		Political: []string{"progressive", "conservative", "libertarian"},
		Identity:  []string{"LGBTQ_gay"},
	},
	"gun_rights": {
		Political:    []string{"progressive", "conservative", "libertarian"},
		Professional: []string{"law_enforcement"},
		Identity:     []string{"gun_owner", "gun_violence_survivor", "parent"},
	},
	"indigenous_rights_environment": {
		Identity:     []string{"indigenous", "local_community"},
		Political:    []string{"progressive", "conservative", "libertarian", "environmentalist"},
		Professional: []string{"environmental_scientist"},
	},
	"immigration": {
		Political:    []string{"progressive", "conservative", "libertarian"},
		Identity:     []string{"immigrant", "second_generation"},
		Regional:     []string{"border_community"},
		Professional: []string{"economist"},
	},
	"disability_rights": {
		Identity:     []string{"neurodivergent", "parent_of_disabled", "disability_rights_advocate"},
		Professional: []string{"medical_researcher", "educator"},
	},
	"gender_religious_freedom": {
		Religious: []string{"Muslim_Sunni", "Sikh"},
		Political: []string{"progressive", "conservative", "libertarian"},
		Identity:  []string{"feminist", "women"},
	},
	"religious_law": {
		Religious: []string{"Muslim_Sunni", "Catholic", "Jewish_Orthodox", "evangelical_protestant"},
		Secular:   []string{"atheist"},
		Political: []string{"progressive", "conservative", "libertarian"},
	},
}

// defaultReligious is the fallback religious candidate pair for topics
// without a curated religious list.
var defaultReligious = []string{"Catholic", "evangelical_protestant"}

// CandidatesFor returns the candidate table for a topic category. Unknown
// or empty topics get an empty table.
func CandidatesFor(topic string) TopicCandidates {
	return topicCandidates[topic]
}

// ReligiousCandidatesFor returns the topic's religious candidate list,
// falling back to the default pair when the topic has none.
func ReligiousCandidatesFor(topic string) []string {
	if tc, ok := topicCandidates[topic]; ok && len(tc.Religious) > 0 {
		return tc.Religious
	}
	return defaultReligious
}
