package affinity

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()

	calc, err := NewCalculator(DefaultWeights(), NewCache(DefaultCacheSize), zap.NewNop())
	require.NoError(t, err)
	return calc
}

func exactMatch(status VerificationStatus) Options {
	return Options{
		ProfamilyID:             intPtr(7),
		RequirementProfamilyIDs: []int{7},
		VerificationStatus:      status,
	}
}

func TestCalculate_VerifiedExactMatchScenario(t *testing.T) {
	calc := newTestCalculator(t)

	result, err := calc.Calculate(
		Requirements{{Skill: "python", Level: 3}},
		Possession{"python": 3},
		exactMatch(StatusVerified),
	)
	require.NoError(t, err)

	assert.InDelta(t, 8.57, result.Score, 1e-9)
	assert.Equal(t, LevelVeryHigh, result.Level)
	assert.Equal(t, 1, result.Matches)
	assert.Equal(t, 1, result.TotalRequired)
	assert.Equal(t, 100, result.Coverage)
	assert.GreaterOrEqual(t, result.Score, 5.0)

	require.Len(t, result.MatchingSkills, 1)
	assert.Equal(t, SkillMatch{
		Skill:          "python",
		RequiredLevel:  3,
		PossessedLevel: 3,
		Matched:        true,
		Importance:     ImportanceImportant,
	}, result.MatchingSkills[0])

	assert.Equal(t, ProfamilyExactMatch, result.Factors.ProfamilyAffinity.Level)
	assert.InDelta(t, 8.0, result.Factors.BaseScoreFromProfamily, 1e-9)
	assert.True(t, result.Factors.PerfectMatch)
	assert.Contains(t, result.Explanation, "1/1 habilidades coincidentes (100% cobertura)")
}

func TestCalculate_UnverifiedExactMatch(t *testing.T) {
	calc := newTestCalculator(t)

	result, err := calc.Calculate(
		Requirements{{Skill: "python", Level: 3}},
		Possession{"python": 3},
		exactMatch(StatusUnverified),
	)
	require.NoError(t, err)

	assert.InDelta(t, 7.09, result.Score, 1e-9)
	assert.Equal(t, LevelVeryHigh, result.Level)
}

func TestCalculate_NoOverlapWithoutProfamilyMatch(t *testing.T) {
	calc := newTestCalculator(t)

	result, err := calc.Calculate(
		Requirements{{Skill: "python", Level: 3}, {Skill: "sql", Level: 4}},
		Possession{},
		Options{ProfamilyID: intPtr(1), RequirementProfamilyIDs: []int{2}},
	)
	require.NoError(t, err)

	assert.LessOrEqual(t, result.Score, 2.0)
	assert.Contains(t, []Level{LevelLow, LevelNoData}, result.Level)
	assert.Equal(t, 0, result.Matches)
	assert.Equal(t, 0, result.Coverage)
	assert.Empty(t, result.MatchingSkills)
	assert.Less(t, result.Factors.RawSkillScore, 0.0)
}

func TestCalculate_SkillOnlyScore(t *testing.T) {
	calc := newTestCalculator(t)

	result, err := calc.Calculate(
		Requirements{{Skill: "go", Level: 3}, {Skill: "sql", Level: 2}},
		Possession{"go": 4, "sql": 2, "rust": 1},
		Options{},
	)
	require.NoError(t, err)

	assert.InDelta(t, 2.86, result.Score, 1e-9)
	assert.Equal(t, LevelMedium, result.Level)
	assert.Equal(t, 100, result.Coverage)

	f := result.Factors
	assert.InDelta(t, 1.3, f.ProportionalFactor, 1e-9)
	assert.InDelta(t, 1.0, f.CoverageFactor, 1e-9)
	assert.InDelta(t, 5.005+2.16, f.RawSkillScore, 1e-9)
	assert.Equal(t, 1, f.SuperiorMatches)
	assert.Equal(t, 1, f.BasicSkillsMatched)
	assert.Equal(t, 1, f.ConsistencyScore)
	assert.True(t, f.SkillDiversityBonus)
	assert.False(t, f.PerfectMatch)
	assert.False(t, f.HasPremiumMatch)
	assert.Equal(t, ProfamilyNone, f.ProfamilyAffinity.Level)
	assert.Zero(t, f.BaseScoreFromProfamily)

	require.Len(t, result.MatchingSkills, 2)
	assert.Equal(t, "go", result.MatchingSkills[0].Skill)
	assert.Equal(t, 1, result.MatchingSkills[0].Excess)
	assert.Equal(t, "sql", result.MatchingSkills[1].Skill)
}

func TestCalculate_InsufficientCriticalSkill(t *testing.T) {
	calc := newTestCalculator(t)

	result, err := calc.Calculate(
		Requirements{{Skill: "go", Level: 4}},
		Possession{"go": 2},
		Options{},
	)
	require.NoError(t, err)

	assert.InDelta(t, 0.83, result.Score, 1e-9)
	assert.Equal(t, LevelLow, result.Level)
	assert.Equal(t, 1, result.Matches)
	assert.False(t, result.Factors.SpecialUniqueMatch)
	assert.True(t, result.Factors.HasPremiumMatch)

	require.Len(t, result.MatchingSkills, 1)
	assert.False(t, result.MatchingSkills[0].Matched)
	assert.Equal(t, ImportanceCritical, result.MatchingSkills[0].Importance)
}

func TestCalculate_SpecialUniqueMatch(t *testing.T) {
	calc := newTestCalculator(t)

	result, err := calc.Calculate(
		Requirements{{Skill: "go", Level: 4}},
		Possession{"go": 5},
		exactMatch(StatusVerified),
	)
	require.NoError(t, err)

	assert.True(t, result.Factors.SpecialUniqueMatch)
	assert.InDelta(t, 3.0, result.Factors.RawSkillScore, 1e-9)
	assert.InDelta(t, 8.94, result.Score, 1e-9)
	assert.Equal(t, LevelVeryHigh, result.Level)
}

func TestCalculate_EmptyRequirements(t *testing.T) {
	calc := newTestCalculator(t)

	tests := []struct {
		name     string
		opts     Options
		expected float64
	}{
		{name: "no profamily", opts: Options{}, expected: 5.0},
		{name: "verified exact", opts: exactMatch(StatusVerified), expected: 8.0},
		{name: "unverified exact", opts: exactMatch(StatusUnverified), expected: 6.5},
		{name: "no match", opts: Options{ProfamilyID: intPtr(1), RequirementProfamilyIDs: []int{2}}, expected: 4.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calc.Calculate(Requirements{}, Possession{"go": 3}, tt.opts)
			require.NoError(t, err)

			assert.InDelta(t, tt.expected, result.Score, 1e-9)
			assert.InDelta(t, result.Factors.ProfamilyAffinity.Score*5, result.Score, 1e-9)
			assert.Equal(t, 0, result.Matches)
			assert.Equal(t, 0, result.TotalRequired)
			assert.Equal(t, 0, result.Coverage)
			assert.Equal(t, LevelLow, result.Level)
		})
	}
}

func TestCalculate_ValidationErrors(t *testing.T) {
	calc := newTestCalculator(t)

	tests := []struct {
		name      string
		req       Requirements
		possessed Possession
		opts      Options
		field     string
	}{
		{
			name:      "nil requirements",
			req:       nil,
			possessed: Possession{},
			field:     "requirementSkills",
		},
		{
			name:      "nil possession",
			req:       Requirements{},
			possessed: nil,
			field:     "possessedSkills",
		},
		{
			name:      "required level too low",
			req:       Requirements{{Skill: "Go", Level: 0}},
			possessed: Possession{},
			field:     "requirementSkills[go]",
		},
		{
			name:      "possessed level too high",
			req:       Requirements{{Skill: "go", Level: 3}},
			possessed: Possession{"SQL": 6},
			field:     "possessedSkills[sql]",
		},
		{
			name:      "blank requirement name",
			req:       Requirements{{Skill: "go", Level: 3}, {Skill: "  ", Level: 3}},
			possessed: Possession{},
			field:     "requirementSkills[1]",
		},
		{
			name:      "duplicate requirement after normalization",
			req:       Requirements{{Skill: "Go", Level: 3}, {Skill: "go ", Level: 2}},
			possessed: Possession{},
			field:     "requirementSkills[go]",
		},
		{
			name:      "unknown verification status",
			req:       Requirements{},
			possessed: Possession{},
			opts:      Options{VerificationStatus: "approved"},
			field:     "verificationStatus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(tt.req, tt.possessed, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.Zero(t, calc.CacheStats().Size)
}

func TestCalculate_IdempotentAcrossOrderingAndCache(t *testing.T) {
	calc := newTestCalculator(t)
	req := Requirements{{Skill: "Go", Level: 3}, {Skill: "sql", Level: 4}, {Skill: "docker", Level: 2}}

	first, err := calc.Calculate(req,
		Possession{"go": 3, "SQL ": 5, "kafka": 2},
		Options{ProfamilyID: intPtr(2), RequirementProfamilyIDs: []int{3, 2}, VerificationStatus: StatusVerified},
	)
	require.NoError(t, err)

	second, err := calc.Calculate(req,
		Possession{"kafka": 2, "sql": 5, " Go": 3},
		Options{ProfamilyID: intPtr(2), RequirementProfamilyIDs: []int{2, 3, 3}, VerificationStatus: StatusVerified},
	)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calc.CacheStats().Hits)

	fresh := newTestCalculator(t)
	recomputed, err := fresh.Calculate(req,
		Possession{"sql": 5, "kafka": 2, "go": 3},
		Options{ProfamilyID: intPtr(2), RequirementProfamilyIDs: []int{2, 3}, VerificationStatus: StatusVerified},
	)
	require.NoError(t, err)
	assert.Equal(t, first, recomputed)
}

func TestCalculate_DefaultStatusSharesCacheEntry(t *testing.T) {
	calc := newTestCalculator(t)
	req := Requirements{{Skill: "go", Level: 3}}

	_, err := calc.Calculate(req, Possession{"go": 3}, exactMatch(""))
	require.NoError(t, err)
	_, err = calc.Calculate(req, Possession{"go": 3}, exactMatch(StatusUnverified))
	require.NoError(t, err)

	stats := calc.CacheStats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
}

func TestCalculate_CachedResultIsNotShared(t *testing.T) {
	calc := newTestCalculator(t)
	req := Requirements{{Skill: "go", Level: 3}}

	first, err := calc.Calculate(req, Possession{"go": 3}, Options{})
	require.NoError(t, err)
	first.MatchingSkills[0].Skill = "mutated"

	second, err := calc.Calculate(req, Possession{"go": 3}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "go", second.MatchingSkills[0].Skill)
}

func TestCalculate_MonotonicInPossessedLevel(t *testing.T) {
	calc := newTestCalculator(t)
	req := Requirements{{Skill: "go", Level: 3}, {Skill: "sql", Level: 4}, {Skill: "docker", Level: 2}}
	skills := []string{"go", "sql", "docker"}

	contexts := map[string]Options{
		"none":       {},
		"verified":   exactMatch(StatusVerified),
		"unverified": exactMatch(StatusUnverified),
		"no match":   {ProfamilyID: intPtr(1), RequirementProfamilyIDs: []int{2}},
	}

	score := func(t *testing.T, levels []int, opts Options) float64 {
		t.Helper()
		possessed := Possession{}
		for i, level := range levels {
			possessed[skills[i]] = level
		}
		result, err := calc.Calculate(req, possessed, opts)
		require.NoError(t, err)
		return result.Score
	}

	for name, opts := range contexts {
		t.Run(name, func(t *testing.T) {
			for a := MinLevel; a <= MaxLevel; a++ {
				for b := MinLevel; b <= MaxLevel; b++ {
					for c := MinLevel; c <= MaxLevel; c++ {
						levels := []int{a, b, c}
						base := score(t, levels, opts)
						assert.GreaterOrEqual(t, base, 0.0)
						assert.LessOrEqual(t, base, 10.0)

						for i := range levels {
							if levels[i] == MaxLevel {
								continue
							}
							raised := append([]int(nil), levels...)
							raised[i]++
							assert.GreaterOrEqual(t, score(t, raised, opts), base,
								"raising %s from %v", skills[i], levels)
						}
					}
				}
			}
		})
	}
}

func TestCalculate_VerifiedBeatsUnverified(t *testing.T) {
	calc := newTestCalculator(t)

	cases := []struct {
		req       Requirements
		possessed Possession
	}{
		{Requirements{{Skill: "go", Level: 3}}, Possession{"go": 3}},
		{Requirements{{Skill: "go", Level: 5}, {Skill: "sql", Level: 4}, {Skill: "k8s", Level: 2}, {Skill: "git", Level: 2}},
			Possession{"go": 5, "sql": 5, "k8s": 3, "git": 4, "rust": 5}},
		{Requirements{{Skill: "go", Level: 3}, {Skill: "sql", Level: 4}}, Possession{}},
		{Requirements{}, Possession{}},
	}

	for _, tc := range cases {
		verified, err := calc.Calculate(tc.req, tc.possessed, exactMatch(StatusVerified))
		require.NoError(t, err)
		unverified, err := calc.Calculate(tc.req, tc.possessed, exactMatch(StatusUnverified))
		require.NoError(t, err)

		assert.Greater(t, verified.Score, unverified.Score)
	}
}

func TestCalculate_ConcurrentCallersShareCache(t *testing.T) {
	calc := newTestCalculator(t)
	req := Requirements{{Skill: "go", Level: 3}, {Skill: "sql", Level: 2}}

	const callers = 32
	var wg sync.WaitGroup
	results := make([]Result, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := calc.Calculate(req, Possession{"go": 4, "sql": 2}, Options{})
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	for _, result := range results[1:] {
		assert.Equal(t, results[0], result)
	}

	stats := calc.CacheStats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, callers, stats.Hits+stats.Misses)
}

func TestCalculate_LogsCacheActivity(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	calc, err := NewCalculator(DefaultWeights(), nil, zap.New(core))
	require.NoError(t, err)

	req := Requirements{{Skill: "go", Level: 3}}
	for range 2 {
		_, err := calc.Calculate(req, Possession{"go": 3}, Options{})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, observed.FilterMessage("affinity calculated").Len())
	assert.Equal(t, 1, observed.FilterMessage("affinity served from cache").Len())
}

func TestNewCalculator_RejectsInvalidWeights(t *testing.T) {
	w := DefaultWeights()
	w.MaxScore = -1

	_, err := NewCalculator(w, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate weights")
}
