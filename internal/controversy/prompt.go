package controversy

import (
	"fmt"
	"strings"
)

const detectionPromptTemplate = `Analyze whether this question/topic is controversial and would elicit divergent views from different communities.

Question: %s

The user asking this question identifies as: %s

Respond in JSON format:
{
    "is_controversial": true/false,
    "religious_level": "none" | "low" | "medium" | "high",
    "political_level": "none" | "low" | "medium" | "high",
    "regional_level": "none" | "low" | "medium" | "high",
    "topic_category": "short category name or null if not controversial",
    "divergent_communities": ["list", "of", "community", "ids", "that", "would", "disagree"],
    "intra_community_contrast": "community_id of a contrasting view WITHIN the user's primary community, or null",
    "reasoning": "Brief explanation of why this is/isn't controversial and what the key divides are"
}

Guidelines for controversy assessment:
- HIGH: Strong, fundamental disagreements exist; topic is actively debated; positions are deeply held
- MEDIUM: Moderate disagreements; some communities have distinct views but discourse is less heated
- LOW: Minor differences of opinion; mostly consensus with some variation
- NONE: Factual question or universal agreement

Guidelines for identifying divergent communities:
- Think globally, not just Western/US-centric
- Consider religious traditions: Hindu, Hindu_traditional, Muslim_Sunni, Muslim_Shia, Catholic, evangelical_protestant, Jewish_Orthodox, Buddhist, Sikh, Jain, atheist, etc.
- Consider political orientations: progressive, conservative, libertarian, socialist, moderate
- Consider regional/cultural: South_Asian_diaspora, Global_South, rural_US, urban_US, etc.
- Consider identity groups when directly affected: women, LGBTQ_gay, indigenous, immigrant, etc.
- Consider professional/expert communities when relevant: scientist, economist, medical_researcher, etc.

IMPORTANT - Intra-community contrasts:
- Many communities have internal debates (traditionalist vs progressive, reform vs orthodox, etc.)
- If the user identifies with a community that has significant internal disagreement on this topic, suggest a contrasting intra-community perspective
- Use format like: Hindu_traditional, Hindu_progressive, Catholic_traditional, Catholic_progressive, Muslim_feminist, Muslim_traditional, Jewish_Orthodox, Jewish_Reform, etc.

Return ONLY the JSON object, no other text.`

// detectionPrompt renders the classification prompt for a query and the
// requester's community list ("unknown" when the list is empty).
func detectionPrompt(query string, userCommunities []string) string {
	identity := "unknown"
	var present []string
	for _, c := range userCommunities {
		if c != "" {
			present = append(present, c)
		}
	}
	if len(present) > 0 {
		identity = strings.Join(present, " + ")
	}
	return fmt.Sprintf(detectionPromptTemplate, query, identity)
}
