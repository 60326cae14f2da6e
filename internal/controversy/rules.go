package controversy

import (
	"regexp"
	"strings"
)

// topicGroup pairs a topic category with its match patterns and curated
// profile. Groups are evaluated in declaration order and the first group
// with a matching pattern wins, so the order of topicGroups is part of the
// classifier's contract.
type topicGroup struct {
	Topic    string
	Patterns []*regexp.Regexp
	Profile  Profile
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// factualPatterns short-circuit classification: a query matching any of
// these is treated as factual regardless of topic patterns it also matches.
var factualPatterns = compileAll(
	`\bcapital\s+of\b`,
	`\bhow\s+(do|to)\s+(make|cook|write|code|program)\b`,
	`\bwhat\s+time\b`,
	`\bwho\s+won\b`,
	`\bfor\s+loop\b`,
	`\brecipe\b`,
	`\bprogramming\b`,
	`\bsyntax\b`,
)

var topicGroups = []topicGroup{
	{
		Topic: "reproductive_rights",
		Patterns: compileAll(
			`\babortion\b`, `\breproductive\s+rights?\b`, `\bpro[- ]?(life|choice)\b`,
			`\broe\s+v\.?\s*wade\b`, `\bpregnancy\s+termination\b`,
		),
		Profile: Profile{Religious: LevelHigh, Political: LevelHigh, Regional: LevelLow},
	},
	{
		Topic: "climate_environment",
		Patterns: compileAll(
			`\bclimate\s+change\b`, `\bglobal\s+warming\b`, `\bclimate\s+policy\b`,
			`\benvironmental\s+(policy|protection)\b`, `\bcarbon\s+(tax|emissions?)\b`,
			`\bgreen\s+new\s+deal\b`, `\bclimate\s+science\b`, `\bclimate\b`,
			`\benvironment\s+and\s+development\b`, `\baddress\s+climate\b`,
		),
		Profile: Profile{Religious: LevelLow, Political: LevelHigh, Regional: LevelMedium},
	},
	{
		Topic: "church_state_separation",
		Patterns: compileAll(
			`\breligious\s+symbols?\b`, `\bpublic\s+school.{0,20}(prayer|religious)\b`,
			`\bchurch\s+and\s+state\b`, `\bsecularism\b`, `\blaicit[eé]\b`,
			`\breligious\s+(clothing|dress|headwear)\b`, `\bhijab\b`, `\bturban\b`,
			`\bburqa\b`, `\breligious\s+freedom\b`, `\bprayer.{0,20}(school|public)\b`,
			`\bschool.{0,20}prayer\b`,
		),
		Profile: Profile{Religious: LevelHigh, Political: LevelMedium, Regional: LevelHigh},
	},
	{
		Topic: "animal_rights_religious_law",
		Patterns: compileAll(
			`\bcows?\s+(be\s+)?protected\b`, `\bcow\s+protection\b`,
			`\bethics\s+of\s+cow\b`, `\bprotect.{0,10}cows?\b`,
		),
		Profile: Profile{Religious: LevelHigh, Political: LevelLow, Regional: LevelHigh},
	},
	{
		Topic: "food_ethics_animal_rights",
		Patterns: compileAll(
			`\b(eat|eating)\s+(meat|animals?)\b`, `\bvegetarian(ism)?\b`, `\bvegan(ism)?\b`,
			`\banimal\s+rights?\b`, `\bhalal\b`, `\bkosher\b`,
			`\bdietary\s+law\b`, `\bethics\s+of\s+(eating|food)\b`, `\bethical\s+to\s+eat\b`,
			`\bstop\s+eating\s+animals\b`, `\barguments?\s+for\s+vegetarian\b`,
			`\breligions?\s+view.{0,20}(meat|eating)\b`,
		),
		Profile: Profile{Religious: LevelHigh, Political: LevelLow, Regional: LevelMedium},
	},
	{
		Topic: "economic_policy",
		Patterns: compileAll(
			`\buniversal\s+basic\s+income\b`, `\bubi\b`, `\bwelfare\s+(state|system)\b`,
			`\bredistribution\b`, `\bminimum\s+wage\b`, `\bsocialism\b`,
			`\bcapitalism\b`, `\bfree\s+market\b`,
		),
		Profile: Profile{Religious: LevelLow, Political: LevelHigh, Regional: LevelLow},
	},
	{
		Topic: "LGBTQ_rights",
		Patterns: compileAll(
			`\bsame[- ]sex\s+marriage\b`, `\bgay\s+marriage\b`, `\blgbtq?\+?\b`,
			`\bhomosexual(ity)?\b`, `\btransgender\b`, `\bgender\s+identity\b`,
			`\bsexual\s+orientation\b`, `\bmarriage\s+equality\b`,
			`\bgovernment.{0,20}marriage\b`, `\bmarriage.{0,20}(legal|government)\b`,
		),
		Profile: Profile{Religious: LevelHigh, Political: LevelHigh, Regional: LevelLow},
	},
	{
		Topic: "gun_rights",
		Patterns: compileAll(
			`\bgun\s+control\b`, `\bgun\s+rights?\b`, `\b2nd\s+amendment\b`,
			`\bsecond\s+amendment\b`, `\bfirearm\s+regulation\b`, `\bgun\s+violence\b`,
			`\bgun\s+laws?\b`, `\bweapon\s+ban\b`, `\bgun\s+polic(y|ies)\b`,
			`\bprevent\s+gun\s+violence\b`,
		),
		Profile: Profile{Religious: LevelLow, Political: LevelHigh, Regional: LevelMedium},
	},
	{
		Topic: "indigenous_rights_environment",
		Patterns: compileAll(
			`\bindigenous\s+(rights?|lands?|peoples?)\b`, `\bnative\s+(american|rights?|lands?)\b`,
			`\btribal\s+(sovereignty|lands?)\b`, `\bland\s+rights?\b`,
			`\bproperty\s+rights?.{0,20}environment\b`, `\bprotect.{0,20}(land|development)\b`,
			`\benvironment.{0,20}development\b`, `\bdevelopment.{0,20}environment\b`,
			`\bbalance.{0,20}(environment|development)\b`, `\bjobs?.{0,20}land\b`,
			`\bland.{0,20}jobs?\b`, `\becological.{0,20}importance\b`,
		),
		Profile: Profile{Religious: LevelMedium, Political: LevelMedium, Regional: LevelHigh},
	},
	{
		Topic: "immigration",
		Patterns: compileAll(
			`\bimmigra(tion|nt)\b`, `\bundocumented\b`, `\billegal\s+alien\b`,
			`\bborder\s+(security|wall|control)\b`, `\bdeport(ation)?\b`,
			`\bcitizenship\s+path\b`, `\brefugee\b`, `\basylum\b`, `\bvisa\b`,
			`\bsecure\s+the\s+border\b`, `\bborder\s+communit(y|ies)\b`,
			`\bamerican\s+identity\b`,
		),
		Profile: Profile{Religious: LevelLow, Political: LevelHigh, Regional: LevelHigh},
	},
	{
		Topic: "disability_rights",
		Patterns: compileAll(
			`\bautism\b`, `\bdisability\s+rights?\b`, `\bneurodiver(gent|sity)\b`,
			`\bperson[- ]first\s+language\b`, `\bidentity[- ]first\b`,
			`\bspecial\s+needs?\b`, `\baccommodations?\b`, `\bautistic\b`,
			`\bcured?\b.{0,20}autism\b`, `\bautism.{0,20}cured?\b`,
			`\bhelp.{0,20}autistic\b`, `\bcauses?\s+autism\b`,
			`\bsupport.{0,20}neurodivergent\b`,
		),
		Profile: Profile{Religious: LevelLow, Political: LevelLow, Regional: LevelMedium},
	},
	{
		Topic: "gender_religious_freedom",
		Patterns: compileAll(
			`\bhijab\b`, `\bburqa\b`, `\bniqab\b`, `\bheadscarf\b`,
			`\bwomen.{0,20}(wear|required|forced)\b`, `\breligious\s+dress\b`,
		),
		Profile: Profile{Religious: LevelHigh, Political: LevelMedium, Regional: LevelHigh},
	},
	{
		Topic: "religious_law",
		Patterns: compileAll(
			`\breligious\s+law\b`, `\bsharia\b`, `\bchurch\s+law\b`,
			`\breligious.{0,20}(state|enforced)\b`, `\btheocra(cy|tic)\b`,
			`\bdietary\s+laws?.{0,20}(state|enforced)\b`,
		),
		Profile: Profile{Religious: LevelHigh, Political: LevelMedium, Regional: LevelLow},
	},
}

// Classify runs the deterministic rule engine over a query. It matches a
// lowercased copy of the query; the caller's original text is untouched.
// Factual patterns are checked first and win over any topic match. Returns
// the curated profile and topic category, or a LOW/LOW/LOW profile with an
// empty topic when nothing matches.
func Classify(query string) (Profile, string) {
	lower := strings.ToLower(query)

	for _, p := range factualPatterns {
		if p.MatchString(lower) {
			return Profile{Religious: LevelNone, Political: LevelNone, Regional: LevelNone}, ""
		}
	}

	for _, g := range topicGroups {
		for _, p := range g.Patterns {
			if p.MatchString(lower) {
				return g.Profile, g.Topic
			}
		}
	}

	return Profile{Religious: LevelLow, Political: LevelLow, Regional: LevelLow}, ""
}
