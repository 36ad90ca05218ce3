package retrieval

import "strings"

// domainPriorityTerms are appended to queries for known domains to bias
// the corpus search toward authoritative material.
var domainPriorityTerms = map[string]string{
	"clinical-psychology": "evidence-based clinical",
	"cardiology":          "clinical guidelines",
	"nutrition":           "dietary research",
	"software-delivery":   "best practices",
}

// modifierRule appends a modifier when any keyword appears in the query.
type modifierRule struct {
	keywords []string
	modifier string
}

// modifierRules are checked in order; the first matching rule wins.
var modifierRules = []modifierRule{
	{[]string{"treatment", "therapy", "intervention", "technique"}, "efficacy"},
	{[]string{"management", "prevention", "care", "program"}, "outcomes"},
	{[]string{"diagnosis", "assessment", "screening"}, "accuracy"},
}

// enhanceQuery expands the raw query with domain priority terms and a
// single keyword-selected modifier. Unknown domains and unmatched queries
// pass through unchanged.
func enhanceQuery(query, domain string) string {
	enhanced := query

	if terms, ok := domainPriorityTerms[domain]; ok {
		enhanced += " " + terms
	}

	lower := strings.ToLower(query)
	for _, rule := range modifierRules {
		if matchesAny(lower, rule.keywords) {
			enhanced += " " + rule.modifier
			break
		}
	}

	return enhanced
}

func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
