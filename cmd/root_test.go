package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/affinity-ranker/internal/affinity"
	"github.com/spigell/affinity-ranker/internal/filtering"
	"github.com/spigell/affinity-ranker/internal/pool"
	"github.com/spigell/affinity-ranker/internal/ranking"
)

func newTestViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()

	v := viper.New()
	setDefaults(v)

	if yaml != "" {
		path := filepath.Join(t.TempDir(), "affinity-ranker.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
	}

	return v
}

func TestGetConfig_Defaults(t *testing.T) {
	config, err := getConfig(newTestViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "dataset.yaml", config.Dataset)
	assert.Equal(t, affinity.DefaultCacheSize, config.CacheSize)
	assert.Equal(t, affinity.DefaultWeights(), config.Weights)
	assert.Equal(t, ranking.DefaultOptions(), config.Rank)
	assert.Equal(t, filtering.Config{}, config.Filters)
}

func TestGetConfig_OverlaysFile(t *testing.T) {
	config, err := getConfig(newTestViper(t, `
dataset: pool.json
exclude-file: seen.json
cache-size: 50
weights:
  coverage-bonus: 1.2
  levels:
    - min-score: 5
      min-coverage: 50
      level: alto
rank:
  limit: 3
  diversity-bonus: false
filters:
  exclude-rejected: true
`))
	require.NoError(t, err)

	assert.Equal(t, "pool.json", config.Dataset)
	assert.Equal(t, 50, config.CacheSize)

	assert.InDelta(t, 1.2, config.Weights.CoverageBonus, 1e-9)
	assert.InDelta(t, affinity.DefaultWeights().MissingPenalty, config.Weights.MissingPenalty, 1e-9)
	assert.Equal(t, []affinity.LevelThreshold{{MinScore: 5, MinCoverage: 50, Level: affinity.LevelHigh}}, config.Weights.Levels)

	assert.Equal(t, 3, config.Rank.Limit)
	assert.False(t, config.Rank.DiversityBonus)
	assert.True(t, config.Rank.IncludeAnalytics)
	assert.InDelta(t, 4.0, config.Rank.MinScore, 1e-9)

	assert.True(t, config.Filters.ExcludeRejected)
	assert.False(t, config.Filters.RequireProfamily)
	assert.Equal(t, "seen.json", config.Filters.ExcludeFile)
}

func TestGetConfig_Environment(t *testing.T) {
	t.Setenv("AFFINITY_RANK_MIN_SCORE", "6.5")
	t.Setenv("AFFINITY_FILTERS_REQUIRE_PROFAMILY", "true")

	config, err := getConfig(newTestViper(t, ""))
	require.NoError(t, err)

	assert.InDelta(t, 6.5, config.Rank.MinScore, 1e-9)
	assert.True(t, config.Filters.RequireProfamily)
}

func testBatch() *ranking.BatchResult {
	return &ranking.BatchResult{
		Total: 2,
		Candidates: []*ranking.RankedCandidate{
			{
				Candidate: &ranking.Candidate{ID: 1, Name: "Ana"},
				Affinity:  affinity.Result{Score: 8.57, Level: affinity.LevelVeryHigh},
				Score:     8.57,
			},
			{
				Candidate: &ranking.Candidate{ID: 2, Name: "Luis"},
				Affinity:  affinity.Result{Score: 2.86, Level: affinity.LevelMedium},
				Score:     2.86,
			},
		},
	}
}

func TestHandleAction(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	excludeFile := filepath.Join(t.TempDir(), "exclude.json")
	config := &Config{ExcludeFile: excludeFile}
	offer := &pool.Offer{ID: 10, Name: "Backend"}
	batch := testBatch()
	steps := filtering.Defaults()

	require.NoError(t, handleAction(PromptReportByLevel, log, config, offer, batch, steps))
	assert.Equal(t, 1, observed.FilterField(zap.Int("candidates count", 2)).Len())

	require.NoError(t, handleAction(PromptDescribeFilters, log, config, offer, batch, steps))

	require.NoError(t, handleAction(PromptAppendToExcludeFile, log, config, offer, batch, steps))
	require.NoError(t, handleAction(PromptAppendToExcludeFile, log, config, offer, batch, steps))

	excluded, err := pool.GetExcludedCandidatesFromFile(excludeFile)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 1, 2}, excluded.CandidateIDs())

	err = handleAction(PromptExit, log, config, offer, batch, steps)
	assert.True(t, errors.Is(err, errExit))

	err = handleAction("unknown", log, config, offer, batch, steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid action")

	err = handleAction(PromptAppendToExcludeFile, log, &Config{}, offer, batch, steps)
	require.Error(t, err)
}
