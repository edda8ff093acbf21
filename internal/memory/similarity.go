package memory

import "strings"

// CoverageScore scores how well content covers a query. Both texts are split
// on whitespace into lowercase words; a query word matches when it is a
// substring of any content word or vice versa. The score is the fraction of
// query words matched, so it lies in [0,1] and favors queries fully covered
// by longer content. An empty query scores 0.
func CoverageScore(query, content string) float64 {
	queryWords := strings.Fields(strings.ToLower(query))
	if len(queryWords) == 0 {
		return 0
	}
	contentWords := strings.Fields(strings.ToLower(content))

	matched := 0
	for _, qw := range queryWords {
		for _, cw := range contentWords {
			if strings.Contains(cw, qw) || strings.Contains(qw, cw) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// Jaccard scores two texts by word-set overlap: |intersection| / |union|.
// It is the local fallback when the external ranking collaborator is
// unavailable. Empty input scores 0.
func Jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
