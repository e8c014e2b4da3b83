package harvest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/srikandi-id/harvester/internal/types"
)

// RelevanceFilter decides topical relevance by case-insensitive substring
// containment of a keyword in the title and summary. No stemming, no
// fuzzy matching.
type RelevanceFilter struct{}

// IsRelevant reports whether keyword occurs in the candidate's title or
// summary, ignoring case.
func (RelevanceFilter) IsRelevant(c types.CandidateRecord, keyword string) bool {
	return strings.Contains(lower(c.SearchText()), lower(keyword))
}

// Matches returns the keywords, in the given order, that the candidate is
// relevant to.
func (RelevanceFilter) Matches(c types.CandidateRecord, keywords []string) []string {
	text := lower(c.SearchText())
	var out []string
	for _, kw := range keywords {
		if strings.Contains(text, lower(kw)) {
			out = append(out, kw)
		}
	}
	return out
}

// lower folds with Indonesian casing rules. A Caser is stateful, so each
// call gets its own.
func lower(s string) string {
	return cases.Lower(language.Indonesian).String(s)
}
