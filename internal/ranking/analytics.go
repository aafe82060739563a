package ranking

import (
	"math"

	"github.com/spigell/affinity-ranker/internal/affinity"
)

const (
	maxTrainableGap     = 2
	growthStep          = 0.5
	growthPriorityShare = 0.2
	uniquePriorityShare = 0.1
	maxUniquePriority   = 1.0
)

type MissingSkill struct {
	Skill    string `json:"skill"`
	Required int    `json:"required"`
}

type InsufficientSkill struct {
	Skill    string `json:"skill"`
	Required int    `json:"required"`
	Current  int    `json:"current"`
	Gap      int    `json:"gap"`
}

// SkillGap lists what the candidate lacks for the offer.
type SkillGap struct {
	Missing      []MissingSkill      `json:"missing"`
	Insufficient []InsufficientSkill `json:"insufficient"`
	TotalGaps    int                 `json:"totalGaps"`
}

// GrowthPotential rewards insufficient skills that are close to the required level.
type GrowthPotential struct {
	Potential       float64 `json:"potential"`
	TrainableSkills int     `json:"trainableSkills"`
}

// Analytics are the per-candidate metrics used for tie-breaking and diversity.
type Analytics struct {
	SkillGap        SkillGap        `json:"skillGap"`
	GrowthPotential GrowthPotential `json:"growthPotential"`
	UniqueValue     float64         `json:"uniqueValue"`
}

type SkillCoverage struct {
	Skill        string  `json:"skill"`
	Required     int     `json:"required"`
	Coverage     float64 `json:"coverage"`
	Availability int     `json:"availability"`
}

// PoolAnalytics summarizes the whole ranked pool, before truncation.
type PoolAnalytics struct {
	AverageScore      float64                `json:"averageScore"`
	ScoreDistribution map[affinity.Level]int `json:"scoreDistribution"`
	TopTierCount      int                    `json:"topTierCount"`
	SkillCoverage     []SkillCoverage        `json:"skillCoverageStats"`
}

func skillGap(req affinity.Requirements, possessed affinity.Possession) SkillGap {
	gap := SkillGap{
		Missing:      []MissingSkill{},
		Insufficient: []InsufficientSkill{},
	}

	for _, r := range req {
		have, ok := possessed[r.Skill]
		switch {
		case !ok:
			gap.Missing = append(gap.Missing, MissingSkill{Skill: r.Skill, Required: r.Level})
		case have < r.Level:
			gap.Insufficient = append(gap.Insufficient, InsufficientSkill{
				Skill:    r.Skill,
				Required: r.Level,
				Current:  have,
				Gap:      r.Level - have,
			})
		}
	}

	gap.TotalGaps = len(gap.Missing) + len(gap.Insufficient)
	return gap
}

func growthPotential(gap SkillGap) GrowthPotential {
	var growth GrowthPotential
	for _, s := range gap.Insufficient {
		if s.Gap > maxTrainableGap {
			continue
		}
		growth.TrainableSkills++
		growth.Potential += float64(maxTrainableGap-s.Gap) * growthStep
	}
	return growth
}

// skillFrequencies counts in how many possession maps each skill appears.
func skillFrequencies(pool []affinity.Possession) map[string]int {
	counts := make(map[string]int)
	for _, possessed := range pool {
		for skill := range possessed {
			counts[skill]++
		}
	}
	return counts
}

// uniqueValue sums (1 - frequency) × level over the possessed skills, where
// frequency is the share of the pool holding the skill.
func uniqueValue(possessed affinity.Possession, counts map[string]int, poolSize int) float64 {
	if poolSize == 0 {
		return 0
	}

	var value float64
	for skill, level := range possessed {
		frequency := float64(counts[skill]) / float64(poolSize)
		value += (1 - frequency) * float64(level)
	}
	return value
}

func priority(score float64, a *Analytics) float64 {
	if a == nil {
		return score
	}
	return score + a.GrowthPotential.Potential*growthPriorityShare +
		math.Min(a.UniqueValue*uniquePriorityShare, maxUniquePriority)
}

func poolAnalytics(req affinity.Requirements, ranked []*RankedCandidate, possessions []affinity.Possession) *PoolAnalytics {
	stats := &PoolAnalytics{
		ScoreDistribution: make(map[affinity.Level]int, len(affinity.Levels)),
		SkillCoverage:     make([]SkillCoverage, 0, len(req)),
	}
	for _, level := range affinity.Levels {
		stats.ScoreDistribution[level] = 0
	}

	var total float64
	for _, rc := range ranked {
		total += rc.Affinity.Score
		stats.ScoreDistribution[rc.Affinity.Level]++
		if rc.Affinity.Level == affinity.LevelVeryHigh {
			stats.TopTierCount++
		}
	}

	size := len(ranked)
	if size > 0 {
		stats.AverageScore = math.Round(total/float64(size)*100) / 100
	}

	for _, r := range req {
		available := 0
		for _, possessed := range possessions {
			if _, ok := possessed[r.Skill]; ok {
				available++
			}
		}

		coverage := 0.0
		if size > 0 {
			coverage = math.Round(float64(available)/float64(size)*10000) / 100
		}

		stats.SkillCoverage = append(stats.SkillCoverage, SkillCoverage{
			Skill:        r.Skill,
			Required:     r.Level,
			Coverage:     coverage,
			Availability: available,
		})
	}

	return stats
}
