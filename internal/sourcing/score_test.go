package sourcing

import (
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	keywords := []string{"Python", "Django", "PostgreSQL"}

	tests := []struct {
		name     string
		skills   []string
		keywords []string
		tier     int
		want     float64
	}{
		{name: "primary only", skills: []string{"Python"}, keywords: keywords, tier: 0, want: 5},
		{name: "all keywords", skills: []string{"python", "Django", "PLpgSQL", "PostgreSQL"}, keywords: keywords, tier: 0, want: 9},
		{name: "secondary only", skills: []string{"Django"}, keywords: keywords, tier: 0, want: 2},
		{name: "no match", skills: []string{"Rust", "Haskell"}, keywords: keywords, tier: 0, want: 0},
		{name: "short skill inside keyword", skills: []string{"Go", "Rust"}, keywords: keywords, tier: 0, want: 2},
		{name: "no skills", skills: nil, keywords: keywords, tier: 0, want: 0},
		{name: "no keywords", skills: []string{"Python"}, keywords: nil, tier: 0, want: 0},
		{name: "tier decay", skills: []string{"Python", "Django"}, keywords: keywords, tier: 2, want: 5.6},
		{name: "skill contains keyword", skills: []string{"TypeScript"}, keywords: []string{"script"}, tier: 0, want: 5},
		{name: "keyword contains skill", skills: []string{"Java"}, keywords: []string{"JavaScript"}, tier: 0, want: 5},
		{name: "secondary counted once each", skills: []string{"Go", "Golang"}, keywords: []string{"Rust", "go", "golang"}, tier: 1, want: 3.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.skills, tt.keywords, tt.tier)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Score(%v, %v, %d) = %v, want %v", tt.skills, tt.keywords, tt.tier, got, tt.want)
			}
		})
	}
}

func TestScorePrimaryFloor(t *testing.T) {
	keywords := []string{"Rust", "Tokio"}
	for tier := range Tiers {
		got := Score([]string{"rust"}, keywords, tier)
		floor := primaryKeywordPoints * (1 - float64(tier)*tierDecay)
		if got < floor-1e-9 {
			t.Fatalf("tier %d: score %v below primary floor %v", tier, got, floor)
		}
	}
}

func TestScoreDecaysWithTier(t *testing.T) {
	skills := []string{"Go", "Kubernetes"}
	keywords := []string{"go", "kubernetes", "terraform"}

	prev := Score(skills, keywords, 0)
	for tier := 1; tier < len(Tiers); tier++ {
		got := Score(skills, keywords, tier)
		if got > prev {
			t.Fatalf("score increased from %v to %v at tier %d", prev, got, tier)
		}
		if got <= 0 {
			t.Fatalf("tier %d: expected positive score, got %v", tier, got)
		}
		prev = got
	}
}
