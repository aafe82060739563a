package affinity

import "math"

type aggregation struct {
	score          float64
	matches        int
	totalRequired  int
	matchingSkills []SkillMatch
	factors        Factors
}

// aggregate combines per-skill scores and the profamily affinity into one
// bounded score. Inputs must already be normalized.
func (w Weights) aggregate(req Requirements, possessed Possession, profamily ProfamilyAffinity) aggregation {
	total := len(req)
	factors := Factors{
		ProportionalFactor: 1,
		ProfamilyAffinity:  profamily,
	}

	if total == 0 {
		return aggregation{
			score:          w.clamp(profamily.Score * w.ProfamilyBase),
			matchingSkills: []SkillMatch{},
			factors:        factors,
		}
	}

	var raw float64
	matching := make([]SkillMatch, 0, total)
	for _, r := range req {
		have, ok := possessed[r.Skill]
		if !ok {
			raw -= w.MissingSkillPenalty(r.Level, total)
			continue
		}

		matching = append(matching, SkillMatch{
			Skill:          r.Skill,
			RequiredLevel:  r.Level,
			PossessedLevel: have,
			Matched:        have >= r.Level,
			Excess:         max(0, have-r.Level),
			Importance:     w.Importance(r.Level),
		})
		raw += w.ScoreSkill(r.Level, have)

		if r.Level >= w.CriticalLevel {
			factors.HasPremiumMatch = true
			factors.CriticalSkillsMatched++
		}
		if r.Level == w.BasicPairLevel {
			factors.BasicSkillsMatched++
		}
		if have > r.Level {
			factors.SuperiorMatches++
		}
		if r.Level >= w.ImportantLevel && have >= r.Level {
			factors.ConsistencyScore++
		}
	}

	matches := len(matching)
	coverage := float64(matches) / float64(total)
	factors.CoverageFactor = coverage
	factors.SkillDiversityBonus = len(possessed) > total
	factors.PerfectMatch = matches == total && factors.SuperiorMatches == 0

	if factors.SkillDiversityBonus {
		factors.ProportionalFactor = min(w.MaxProportional, 1+coverage*w.ProportionalStep)
	}

	if total == 1 && matches == 1 {
		only := matching[0]
		if only.RequiredLevel >= w.CriticalLevel && only.PossessedLevel >= only.RequiredLevel {
			factors.SpecialUniqueMatch = true
			raw = min(raw*w.UniqueMatchMultiplier, w.MaxScoreUniqueMatch)
		}
	}
	factors.RawSkillScore = raw

	var final float64
	switch profamily.Level {
	case ProfamilyExactMatch:
		factors.BaseScoreFromProfamily = w.ProfamilyBase * profamily.Score
		final = factors.BaseScoreFromProfamily + min(raw*w.ExactSkillFactor, w.MaxExactSkillBonus)
	case ProfamilyRelatedMatch:
		factors.BaseScoreFromProfamily = w.RelatedFloor
		final = max(w.RelatedFloor, w.ProfamilyBase+min(raw*w.RelatedSkillFactor, w.MaxRelatedSkillBonus))
	default:
		final = min(raw*w.SkillOnlyFactor, w.MaxSkillOnlyScore) * coverage * factors.ProportionalFactor
	}

	final = w.applyBonuses(final, factors)

	var normalized float64
	if profamily.Level == ProfamilyExactMatch {
		normalized = final * w.ExactMatchScale
	} else {
		normalized = (final / float64(total) * 2) * math.Log2(1+coverage)
	}

	return aggregation{
		score:          w.clamp(normalized),
		matches:        matches,
		totalRequired:  total,
		matchingSkills: matching,
		factors:        factors,
	}
}

func (w Weights) applyBonuses(score float64, f Factors) float64 {
	switch {
	case f.CriticalSkillsMatched >= 2:
		score *= w.MultiCriticalBonus
	case f.CriticalSkillsMatched > 0:
		score *= w.SingleCriticalBonus
	}
	if f.BasicSkillsMatched >= 2 {
		score *= w.BasicPairBonus
	}
	if f.SuperiorMatches >= 2 {
		score *= w.SuperiorPairBonus
	}
	if f.ConsistencyScore >= w.ConsistencyThreshold {
		score *= w.ConsistencyBonus
	}
	if f.CoverageFactor >= w.CoverageBonusThreshold {
		score *= w.CoverageBonus
	}
	return score
}

// clamp bounds the score to [0, MaxScore] and rounds it to two decimals.
func (w Weights) clamp(score float64) float64 {
	score = math.Max(0, math.Min(w.MaxScore, score))
	return math.Round(score*100) / 100
}
