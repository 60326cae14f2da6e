// Package perspective generates community-voiced answers: one perspective
// per selected community, a tensions analysis across the user's own
// communities, and a synthesis across all generated views.
package perspective

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pluralign/prism/internal/community"
)

const religiousTemplate = `You are providing the perspective of %[1]s traditions on a question.

Guidelines:
- Present views commonly held within %[1]s traditions
- Acknowledge internal diversity (different denominations, schools of thought, reform vs traditional)
- Reference relevant religious texts, teachings, or philosophical frameworks where appropriate
- Be respectful and accurate - do not flatten to a single "official" position
- Focus on the ethical and moral reasoning typical of this tradition
- 2-3 paragraphs

Question: %[2]s

Perspective from %[1]s:`

const politicalTemplate = `You are providing the perspective commonly held by those with %[1]s political views on a question.

Guidelines:
- Present views commonly held within %[1]s political philosophy
- Acknowledge internal diversity (moderates vs. more committed adherents)
- Reference relevant political values, principles, or policy frameworks
- Be respectful and accurate - avoid partisan caricatures
- Focus on the reasoning and values behind this political perspective
- 2-3 paragraphs

Question: %[2]s

Perspective from %[1]s:`

const professionalTemplate = `You are providing the perspective of %[1]s on a question based on their professional expertise.

Guidelines:
- Present the evidence-based or professional consensus view where one exists
- Acknowledge areas of ongoing debate or uncertainty within the field
- Reference relevant research, professional standards, or methodological approaches
- Distinguish between scientific/professional consensus and policy recommendations
- Be accurate and grounded in the actual state of knowledge in this field
- 2-3 paragraphs

Question: %[2]s

Perspective from %[1]s:`

const identityTemplate = `You are providing the perspective commonly held within the %[1]s community on a question.

Guidelines:
- Present views informed by the lived experience of %[1]s
- Acknowledge diversity within this community (not all members share identical views)
- Focus on how this community's experience shapes their perspective on this issue
- Be respectful and center the voices and concerns of this community
- Avoid speaking over or stereotyping the community
- 2-3 paragraphs

Question: %[2]s

Perspective from %[1]s:`

const genericTemplate = `You are providing the perspective of %[1]s on a question.

Guidelines:
- Present views commonly held within the %[1]s community
- Acknowledge internal diversity where it exists (not all members think alike)
- Reference relevant sources, values, or reasoning typical of this community
- Be respectful and accurate - do not caricature or stereotype
- Focus on how this community typically approaches this issue
- 2-3 paragraphs

Question: %[2]s

Perspective from %[1]s:`

const tensionsTemplate = `A person belongs to the following communities: %[1]s

Given their question below, identify any tensions or conflicts that might arise between these communities' perspectives on this issue.

Guidelines:
- Focus ONLY on tensions between the communities listed above (the user's actual communities)
- Be specific about which communities are in tension and why
- Explain the nature of the disagreement (values, priorities, interpretations, etc.)
- Help the user understand how to navigate between these communal expectations
- If there are no significant tensions on this particular issue, say so briefly
- Be concise: 1-2 paragraphs

Question: %[2]s

Communities: %[1]s

Tensions between your communities on this issue:`

const synthesisTemplate = `Given the following perspectives from different communities on a question, write a brief synthesis (1 paragraph) noting:
- Key areas where these perspectives converge or share common ground
- Key areas of divergence and the reasoning behind different positions
- Any nuances or complexities worth highlighting
- Avoid taking sides; present the landscape of views fairly

%s

Synthesis:`

const standardTemplate = `Answer the following question in a helpful, accurate, and balanced way.

Question: %s`

// PerspectivePrompt builds the prompt for a community's view of a question.
// The template depends on the community's tier: religious traditions get
// guidance about texts and denominations, professional bodies about evidence
// and consensus, and so on. Unknown communities use the generic template.
func PerspectivePrompt(communityID, question string) string {
	name := community.DisplayName(communityID)
	var tmpl string
	switch community.TierOf(communityID) {
	case community.TierReligious:
		tmpl = religiousTemplate
	case community.TierPolitical:
		tmpl = politicalTemplate
	case community.TierProfessional:
		tmpl = professionalTemplate
	case community.TierIdentity:
		tmpl = identityTemplate
	default:
		tmpl = genericTemplate
	}
	return fmt.Sprintf(tmpl, name, question)
}

// TensionsPrompt builds a prompt asking for tensions between the user's own
// communities. Returns "" when there are fewer than two communities, since no
// tension is possible.
func TensionsPrompt(communityIDs []string, question string) string {
	if len(communityIDs) < 2 {
		return ""
	}
	names := make([]string, 0, len(communityIDs))
	for _, id := range communityIDs {
		if id == "" {
			continue
		}
		names = append(names, community.DisplayName(id))
	}
	return fmt.Sprintf(tensionsTemplate, strings.Join(names, ", "), question)
}

// SynthesisPrompt builds the synthesis prompt from generated perspectives.
// Communities are listed in sorted order so the prompt is deterministic.
func SynthesisPrompt(perspectives map[string]string) string {
	ids := make([]string, 0, len(perspectives))
	for id := range perspectives {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("**%s**: %s", community.DisplayName(id), perspectives[id]))
	}
	return fmt.Sprintf(synthesisTemplate, strings.Join(parts, "\n\n"))
}

// StandardPrompt builds the plain-answer prompt used when a question has no
// significant cross-community controversy.
func StandardPrompt(question string) string {
	return fmt.Sprintf(standardTemplate, question)
}
