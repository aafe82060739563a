package affinity

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Calculator scores a candidate against a requirement set and memoizes the
// results. It is safe for concurrent use when its cache is.
type Calculator struct {
	weights Weights
	cache   ResultCache
	logger  *zap.Logger
}

// NewCalculator validates the weights and builds a calculator. A nil cache is
// replaced by a fresh Cache of DefaultCacheSize and a nil logger by a no-op one.
func NewCalculator(weights Weights, cache ResultCache, logger *zap.Logger) (*Calculator, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("validate weights: %w", err)
	}

	if cache == nil {
		cache = NewCache(DefaultCacheSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Calculator{
		weights: weights,
		cache:   cache,
		logger:  logger,
	}, nil
}

// Weights returns the table used by the calculator.
func (c *Calculator) Weights() Weights {
	return c.weights
}

// Calculate computes the affinity of possessed skills against the requirements.
func (c *Calculator) Calculate(req Requirements, possessed Possession, opts Options) (Result, error) {
	in, err := normalizeInput(req, possessed, opts)
	if err != nil {
		return Result{}, err
	}

	key := cacheKey(in)
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("affinity served from cache",
			zap.String("cache_key", key[:12]),
			zap.Float64("score", cached.Score),
		)
		return cached, nil
	}

	result := c.compute(in)
	c.cache.Put(key, result)

	c.logger.Debug("affinity calculated",
		zap.String("cache_key", key[:12]),
		zap.Float64("score", result.Score),
		zap.String("level", string(result.Level)),
		zap.Int("matches", result.Matches),
		zap.Int("total_required", result.TotalRequired),
		zap.String("profamily", string(result.Factors.ProfamilyAffinity.Level)),
	)

	return result, nil
}

// ClearCache drops memoized results and resets the hit/miss counters.
func (c *Calculator) ClearCache() {
	c.cache.Clear()
}

// CacheStats reports the cache counters.
func (c *Calculator) CacheStats() CacheStats {
	return c.cache.Stats()
}

func (c *Calculator) compute(in input) Result {
	w := c.weights
	profamily := w.ResolveProfamily(in.options.ProfamilyID, in.options.RequirementProfamilyIDs, in.options.VerificationStatus)
	agg := w.aggregate(in.requirements, in.possessed, profamily)

	coverage := 0
	if agg.totalRequired > 0 {
		coverage = int(math.Round(float64(agg.matches) / float64(agg.totalRequired) * 100))
	}

	level := w.Classify(agg.score, coverage)

	return Result{
		Score:          agg.score,
		Level:          level,
		Matches:        agg.matches,
		TotalRequired:  agg.totalRequired,
		Coverage:       coverage,
		MatchingSkills: agg.matchingSkills,
		Explanation:    Explain(level, agg.matches, agg.totalRequired, coverage),
		Factors:        agg.factors,
	}
}
