package sourcing

// Tier is one relaxation level of the directory search.
type Tier struct {
	MinFollowers int
	MinRepos     int
}

// Tiers go from strictest to most permissive.
var Tiers = [...]Tier{
	{MinFollowers: 50, MinRepos: 10},
	{MinFollowers: 20, MinRepos: 5},
	{MinFollowers: 5, MinRepos: 3},
	{MinFollowers: 1, MinRepos: 1},
}

const (
	// MaxPages is the number of result pages read per tier.
	MaxPages = 3
	// PageSize is the number of users requested per search page.
	PageSize = 10
	// MaxKeywords caps the extracted keyword list.
	MaxKeywords = 3
	// ReposPerCandidate is how many recently pushed repositories are inspected.
	ReposPerCandidate = 5
	// MaxTokensPerRequest caps a single justification completion.
	MaxTokensPerRequest = 300
	// DefaultDailyTokenLimit is the session token budget.
	DefaultDailyTokenLimit = 100000

	keywordMaxTokens       = 50
	justifyTemperature     = 0.7
	primaryKeywordPoints   = 5
	secondaryKeywordPoints = 2
	tierDecay              = 0.1
)
