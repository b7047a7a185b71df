package sourcing

import "strings"

// Score rates a candidate's skills against the search keywords.
//
// The primary keyword (first) is worth 5 points and each secondary keyword 2,
// awarded when any skill contains the keyword or the keyword contains the skill,
// case-insensitively. The total decays by 10% per tier, so relaxed searches rank lower.
// Substring matching is fuzzy on purpose: "java" also matches "javascript".
func Score(skills, keywords []string, tier int) float64 {
	if len(keywords) == 0 {
		return 0
	}

	normalized := make([]string, 0, len(skills))
	for _, skill := range skills {
		normalized = append(normalized, strings.ToLower(skill))
	}

	score := 0.0
	if matchesAny(normalized, strings.ToLower(keywords[0])) {
		score += primaryKeywordPoints
	}

	for _, keyword := range keywords[1:] {
		if matchesAny(normalized, strings.ToLower(keyword)) {
			score += secondaryKeywordPoints
		}
	}

	return score * (1 - float64(tier)*tierDecay)
}

func matchesAny(skills []string, keyword string) bool {
	for _, skill := range skills {
		if strings.Contains(skill, keyword) || strings.Contains(keyword, skill) {
			return true
		}
	}
	return false
}
