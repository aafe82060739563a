// Package ranking orders a pool of candidates by their affinity to one offer.
package ranking

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/affinity-ranker/internal/affinity"
	"github.com/spigell/affinity-ranker/internal/logger"
	"github.com/spigell/affinity-ranker/internal/utils"
)

const (
	scoreGap           = 0.5
	priorityGap        = 0.1
	diversityThreshold = 5.0
	diversityBonus     = 0.2
	maxRankedScore     = 10.0
	sourcePreviewLimit = 120
)

// Scorer computes the affinity of one candidate. *affinity.Calculator
// satisfies it.
type Scorer interface {
	Calculate(req affinity.Requirements, possessed affinity.Possession, opts affinity.Options) (affinity.Result, error)
}

type Options struct {
	MinScore                float64 `mapstructure:"min-score"`
	Limit                   int     `mapstructure:"limit"`
	IncludeAnalytics        bool    `mapstructure:"include-analytics"`
	DiversityBonus          bool    `mapstructure:"diversity-bonus"`
	Workers                 int     `mapstructure:"workers"`
	RequirementProfamilyIDs []int   `mapstructure:"-"`
}

func DefaultOptions() Options {
	return Options{
		MinScore:         4.0,
		Limit:            15,
		IncludeAnalytics: true,
		DiversityBonus:   true,
		Workers:          4,
	}
}

// RankedCandidate is one candidate of a batch. Score starts as the affinity
// score and may include the diversity bonus; Affinity is never modified.
type RankedCandidate struct {
	Candidate   *Candidate      `json:"candidate"`
	Affinity    affinity.Result `json:"affinity"`
	Analytics   *Analytics      `json:"analytics,omitempty"`
	Score       float64         `json:"score"`
	Priority    float64         `json:"priority"`
	Recommended bool            `json:"recommended"`
	Error       string          `json:"error,omitempty"`
}

type BatchResult struct {
	ID               uuid.UUID          `json:"id"`
	Total            int                `json:"total"`
	RecommendedCount int                `json:"recommendedCount"`
	Candidates       []*RankedCandidate `json:"candidates"`
	Analytics        *PoolAnalytics     `json:"analytics,omitempty"`
}

type Ranker struct {
	scorer Scorer
	logger *zap.Logger
}

func NewRanker(scorer Scorer, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ranker{
		scorer: scorer,
		logger: logger,
	}
}

// Rank scores every candidate against the requirements and returns them
// ordered best first. An invalid requirement list fails the whole batch; a
// candidate that cannot be scored gets a "sin datos" result instead.
func (r *Ranker) Rank(ctx context.Context, req affinity.Requirements, candidates []*Candidate, opts Options) (*BatchResult, error) {
	normalized, err := affinity.NormalizeRequirements(req)
	if err != nil {
		return nil, fmt.Errorf("rank candidates: %w", err)
	}

	possessions := make([]affinity.Possession, len(candidates))
	parseErrs := make([]error, len(candidates))
	for i, c := range candidates {
		possessions[i], parseErrs[i] = ParseSkills(c)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultOptions().Workers
	}

	ranked := make([]*RankedCandidate, len(candidates))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range candidates {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			ranked[i] = r.scoreCandidate(normalized, c, possessions[i], parseErrs[i], opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Candidates that could not be scored hold no skills for the pool.
	for i, rc := range ranked {
		if rc.Error != "" {
			possessions[i] = affinity.Possession{}
		}
	}

	counts := skillFrequencies(possessions)
	for i, rc := range ranked {
		if opts.IncludeAnalytics {
			gap := skillGap(normalized, possessions[i])
			rc.Analytics = &Analytics{
				SkillGap:        gap,
				GrowthPotential: growthPotential(gap),
				UniqueValue:     uniqueValue(possessions[i], counts, len(candidates)),
			}
		}
		rc.Priority = priority(rc.Affinity.Score, rc.Analytics)
	}

	slices.SortStableFunc(ranked, func(a, b *RankedCandidate) int {
		return compareRanked(a, b, opts.IncludeAnalytics)
	})

	recommended := 0
	for _, rc := range ranked {
		if rc.Recommended {
			recommended++
		}
	}

	var stats *PoolAnalytics
	if opts.IncludeAnalytics {
		stats = poolAnalytics(normalized, ranked, possessions)
	}

	if opts.DiversityBonus && opts.Limit > 0 && len(ranked) > opts.Limit {
		applyDiversityBonus(ranked[:min(len(ranked), 2*opts.Limit)])
		slices.SortStableFunc(ranked, func(a, b *RankedCandidate) int {
			return compareFloatDesc(a.Score, b.Score)
		})
	}

	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}

	result := &BatchResult{
		ID:               uuid.New(),
		Total:            len(candidates),
		RecommendedCount: recommended,
		Candidates:       ranked,
		Analytics:        stats,
	}

	r.logger.Info("candidates ranked",
		zap.String("batch_id", result.ID.String()),
		zap.Int("total", result.Total),
		zap.Int("recommended", result.RecommendedCount),
		zap.Int("returned", len(result.Candidates)),
	)

	return result, nil
}

func (r *Ranker) scoreCandidate(
	req affinity.Requirements,
	c *Candidate,
	possessed affinity.Possession,
	parseErr error,
	opts Options,
) *RankedCandidate {
	rc := &RankedCandidate{Candidate: c}

	var result affinity.Result
	err := parseErr
	if err == nil {
		result, err = r.scorer.Calculate(req, possessed, affinity.Options{
			ProfamilyID:             c.ProfamilyID,
			RequirementProfamilyIDs: opts.RequirementProfamilyIDs,
			VerificationStatus:      c.VerificationStatus,
		})
	}

	if err != nil {
		r.logger.Warn("candidate could not be scored",
			zap.Int(logger.FieldCandidateID, c.ID),
			zap.String("skills", utils.PreviewValue(c.Skills, sourcePreviewLimit)),
			zap.String("cv_skills", utils.PreviewValue(c.CVSkills, sourcePreviewLimit)),
			zap.Error(err),
		)
		result = affinity.Unscored(len(req))
		rc.Error = err.Error()
	}

	rc.Affinity = result
	rc.Score = result.Score
	rc.Recommended = result.Score >= opts.MinScore

	return rc
}

// compareRanked orders by score when the scores differ by more than 0.5, then
// by priority when it differs by more than 0.1, then by coverage.
func compareRanked(a, b *RankedCandidate, usePriority bool) int {
	if math.Abs(a.Affinity.Score-b.Affinity.Score) > scoreGap {
		return compareFloatDesc(a.Affinity.Score, b.Affinity.Score)
	}
	if usePriority && math.Abs(a.Priority-b.Priority) > priorityGap {
		return compareFloatDesc(a.Priority, b.Priority)
	}
	return b.Affinity.Coverage - a.Affinity.Coverage
}

func compareFloatDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

func applyDiversityBonus(top []*RankedCandidate) {
	for _, rc := range top {
		if rc.Analytics == nil || rc.Analytics.UniqueValue <= diversityThreshold {
			continue
		}
		rc.Score = math.Min(maxRankedScore, math.Round((rc.Score+diversityBonus)*100)/100)
	}
}
