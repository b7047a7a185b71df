package sourcing

// Repository is one non-fork repository of a candidate.
type Repository struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Languages   []string `json:"languages"`
}

// Candidate is a fully enriched directory user. Login is the identity.
type Candidate struct {
	Login         string       `json:"login"`
	Name          string       `json:"name"`
	ProfileURL    string       `json:"profile_url"`
	Summary       string       `json:"summary"`
	AvatarURL     string       `json:"avatar_url"`
	Justification string       `json:"justification"`
	Skills        []string     `json:"skills"`
	Repositories  []Repository `json:"repositories"`
	// MatchScore stays zero until the pipeline scores the candidate.
	MatchScore float64 `json:"match_score,omitempty"`
}

// skillsOf returns the distinct union of repository languages in scan order.
func skillsOf(repos []Repository) []string {
	seen := make(map[string]struct{})
	skills := make([]string, 0)
	for _, repo := range repos {
		for _, lang := range repo.Languages {
			if _, ok := seen[lang]; ok {
				continue
			}
			seen[lang] = struct{}{}
			skills = append(skills, lang)
		}
	}
	return skills
}
