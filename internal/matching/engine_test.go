// internal/matching/engine_test.go
package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ReferenceTime = refMonday
	return cfg
}

func matchingProvider(id string) Provider {
	return Provider{
		ID:                 id,
		Name:               "Provider " + id,
		Rating:             4.8,
		ReviewCount:        50,
		CompletedJobs:      120,
		Verification:       VerificationFullyApproved,
		AvgResponseMinutes: 10,
		Skills: []Skill{
			{Category: "plumbing", Subcategory: "leak-repair", Verified: true, YearsExperience: 6},
		},
		Location:       Location{Governorate: "Cairo", City: "Maadi"},
		Availability:   &Availability{IsAvailable: true},
		CompletionRate: 95,
		LastActiveAt:   refMonday.Add(-time.Hour),
	}
}

func TestMatch_SkillMismatchLosesDespiteHigherRating(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)

	providerA := matchingProvider("provider-a")

	// Higher rating, but no matching skill and a different governorate.
	providerB := matchingProvider("provider-b")
	providerB.Rating = 4.9
	providerB.Skills = []Skill{{Category: "electrical", Subcategory: "wiring", Verified: true, YearsExperience: 8}}
	providerB.Location = Location{Governorate: "Alexandria", City: "Smouha"}

	results := engine.Match(testRequest(), []Provider{providerB, providerA})
	require.Len(t, results, 2)

	assert.Equal(t, "provider-a", results[0].Provider.ID)
	assert.Equal(t, "provider-b", results[1].Provider.ID)
	assert.Equal(t, 0.0, results[1].SubScores.Skills, "no matching skill entry floors the skills sub-score")
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMatch_UnavailableProviderRanksBelowAvailableTwin(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)

	available := matchingProvider("provider-a")
	unavailable := matchingProvider("provider-c")
	unavailable.Availability = &Availability{IsAvailable: false}

	results := engine.Match(testRequest(), []Provider{unavailable, available})
	require.Len(t, results, 2)

	assert.Equal(t, "provider-a", results[0].Provider.ID)
	assert.Equal(t, 0.0, results[1].SubScores.Availability)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMatch_Deterministic(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)

	candidates := []Provider{
		matchingProvider("p3"),
		matchingProvider("p1"),
		matchingProvider("p2"),
	}
	candidates[0].Rating = 4.2
	candidates[2].ReviewCount = 2

	first := engine.Match(testRequest(), candidates)
	second := engine.Match(testRequest(), candidates)
	assert.Equal(t, first, second)
}

func TestMatch_DoesNotMutateInputs(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)

	candidates := []Provider{matchingProvider("p2"), matchingProvider("p1")}
	engine.Match(testRequest(), candidates)

	// The input slice keeps its original order; ranking works on a copy.
	assert.Equal(t, "p2", candidates[0].ID)
	assert.Equal(t, "p1", candidates[1].ID)
}

func TestMatch_ScoreBounds(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)

	candidates := []Provider{
		matchingProvider("good"),
		{ID: "empty"},
		{ID: "bad", Rating: 9, CompletionRate: -40, AvgResponseMinutes: -1},
	}

	for _, r := range engine.Match(testRequest(), candidates) {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		for _, s := range []float64{
			r.SubScores.Distance, r.SubScores.Skills, r.SubScores.Rating,
			r.SubScores.Availability, r.SubScores.ResponseTime,
			r.SubScores.Verification, r.SubScores.CompletionRate,
		} {
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestMatch_RatingMonotonicity(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)

	lower := matchingProvider("p1")
	lower.Rating = 3.5
	higher := matchingProvider("p1")
	higher.Rating = 4.5

	lowResults := engine.Match(testRequest(), []Provider{lower})
	highResults := engine.Match(testRequest(), []Provider{higher})
	require.Len(t, lowResults, 1)
	require.Len(t, highResults, 1)

	assert.GreaterOrEqual(t, highResults[0].SubScores.Rating, lowResults[0].SubScores.Rating)
	assert.GreaterOrEqual(t, highResults[0].Score, lowResults[0].Score)
}

func TestMatch_TieBreakOrder(t *testing.T) {
	// All weight on verification: providers with the same tier get
	// identical overall scores, forcing the tie-break chain.
	cfg := testConfig()
	cfg.Weights = Weights{Verification: 1.0}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	base := func(id string, rating float64, jobs int) Provider {
		p := matchingProvider(id)
		p.Rating = rating
		p.CompletedJobs = jobs
		return p
	}

	tests := []struct {
		name      string
		a, b      Provider
		wantFirst string
	}{
		{
			"higher rating wins the tie",
			base("p-low", 4.1, 100), base("p-high", 4.9, 100),
			"p-high",
		},
		{
			"more completed jobs breaks a rating tie",
			base("p-few", 4.5, 10), base("p-many", 4.5, 200),
			"p-many",
		},
		{
			"ascending id is the final tie-break",
			base("p-bbb", 4.5, 100), base("p-aaa", 4.5, 100),
			"p-aaa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := engine.Match(testRequest(), []Provider{tt.a, tt.b})
			require.Len(t, results, 2)
			assert.Equal(t, results[0].Score, results[1].Score, "tie-break tests require equal scores")
			assert.Equal(t, tt.wantFirst, results[0].Provider.ID)
		})
	}
}

func TestMatch_Truncation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxResults = 2

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	candidates := make([]Provider, 0, 5)
	ratings := []float64{3.0, 4.9, 4.1, 4.5, 3.7}
	for i, r := range ratings {
		p := matchingProvider(string(rune('a' + i)))
		p.Rating = r
		candidates = append(candidates, p)
	}

	results := engine.Match(testRequest(), candidates)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Provider.ID) // rating 4.9
	assert.Equal(t, "d", results[1].Provider.ID) // rating 4.5
}

func TestMatch_EmptyInputs(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)

	assert.Empty(t, engine.Match(testRequest(), nil))
	assert.Empty(t, engine.Match(testRequest(), []Provider{}))

	cfg := testConfig()
	cfg.MaxResults = 0
	zeroEngine, err := NewEngine(cfg)
	require.NoError(t, err)
	assert.Empty(t, zeroEngine.Match(testRequest(), []Provider{matchingProvider("p1")}))
}

func TestMatchWithDiagnostics_WarningsDoNotAffectRanking(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)

	clean := matchingProvider("clean")
	degraded := Provider{ID: "degraded", Location: Location{Governorate: "Cairo", City: "Maadi"}}

	withDiag, warnings := engine.MatchWithDiagnostics(testRequest(), []Provider{clean, degraded})
	plain := engine.Match(testRequest(), []Provider{clean, degraded})

	assert.Equal(t, plain, withDiag)
	assert.NotEmpty(t, warnings)
	for _, w := range warnings {
		assert.Equal(t, "degraded", w.ProviderID)
	}
}

func TestMatch_ReasonsOnStrongCandidate(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)

	results := engine.Match(testRequest(), []Provider{matchingProvider("p1")})
	require.Len(t, results, 1)

	assert.NotEmpty(t, results[0].Reasons)
	assert.LessOrEqual(t, len(results[0].Reasons), 3)
	assert.Contains(t, results[0].Reasons, "مطابقة ممتازة للمهارات")
}
