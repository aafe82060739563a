package affinity

import (
	"fmt"
	"math"
)

// LevelThreshold is a single row of the level classification table.
type LevelThreshold struct {
	MinScore    float64 `mapstructure:"min-score"`
	MinCoverage int     `mapstructure:"min-coverage"`
	Level       Level   `mapstructure:"level"`
}

// Weights defines every multiplier and threshold consumed by the calculator.
type Weights struct {
	// Profamily resolution.
	NeutralProfamily     float64 `mapstructure:"neutral-profamily"`
	VerifiedExactMatch   float64 `mapstructure:"verified-exact-match"`
	UnverifiedExactMatch float64 `mapstructure:"unverified-exact-match"`
	NoMatchProfamily     float64 `mapstructure:"no-match-profamily"`
	ProfamilyBase        float64 `mapstructure:"profamily-base"`

	// Single skill scoring.
	ExcessFactor       float64 `mapstructure:"excess-factor"`
	HighProficiency    float64 `mapstructure:"high-proficiency"`
	MediumProficiency  float64 `mapstructure:"medium-proficiency"`
	LowProficiency     float64 `mapstructure:"low-proficiency"`
	CriticalSkill      float64 `mapstructure:"critical-skill"`
	SuperiorMatch      float64 `mapstructure:"superior-match"`
	InsufficientFactor float64 `mapstructure:"insufficient-factor"`
	MissingPenalty     float64 `mapstructure:"missing-penalty"`
	CriticalLevel      int     `mapstructure:"critical-level"`
	ImportantLevel     int     `mapstructure:"important-level"`
	BasicPairLevel     int     `mapstructure:"basic-pair-level"`

	// Aggregation.
	ProportionalStep      float64 `mapstructure:"proportional-step"`
	MaxProportional       float64 `mapstructure:"max-proportional"`
	UniqueMatchMultiplier float64 `mapstructure:"unique-match-multiplier"`
	MaxScoreUniqueMatch   float64 `mapstructure:"max-score-unique-match"`
	ExactSkillFactor      float64 `mapstructure:"exact-skill-factor"`
	MaxExactSkillBonus    float64 `mapstructure:"max-exact-skill-bonus"`
	RelatedFloor          float64 `mapstructure:"related-floor"`
	RelatedSkillFactor    float64 `mapstructure:"related-skill-factor"`
	MaxRelatedSkillBonus  float64 `mapstructure:"max-related-skill-bonus"`
	SkillOnlyFactor       float64 `mapstructure:"skill-only-factor"`
	MaxSkillOnlyScore     float64 `mapstructure:"max-skill-only-score"`

	// Progressive bonuses, applied in field order.
	MultiCriticalBonus     float64 `mapstructure:"multi-critical-bonus"`
	SingleCriticalBonus    float64 `mapstructure:"single-critical-bonus"`
	BasicPairBonus         float64 `mapstructure:"basic-pair-bonus"`
	SuperiorPairBonus      float64 `mapstructure:"superior-pair-bonus"`
	ConsistencyBonus       float64 `mapstructure:"consistency-bonus"`
	ConsistencyThreshold   int     `mapstructure:"consistency-threshold"`
	CoverageBonus          float64 `mapstructure:"coverage-bonus"`
	CoverageBonusThreshold float64 `mapstructure:"coverage-bonus-threshold"`

	// Normalization.
	ExactMatchScale float64 `mapstructure:"exact-match-scale"`
	MaxScore        float64 `mapstructure:"max-score"`

	Levels []LevelThreshold `mapstructure:"levels"`
}

// DefaultWeights returns the production weight table.
func DefaultWeights() Weights {
	return Weights{
		NeutralProfamily:     1.0,
		VerifiedExactMatch:   1.6,
		UnverifiedExactMatch: 1.3,
		NoMatchProfamily:     0.95,
		ProfamilyBase:        5.0,

		ExcessFactor:       0.5,
		HighProficiency:    1.10,
		MediumProficiency:  1.08,
		LowProficiency:     1.06,
		CriticalSkill:      1.5,
		SuperiorMatch:      1.3,
		InsufficientFactor: 0.3,
		MissingPenalty:     0.2,
		CriticalLevel:      4,
		ImportantLevel:     3,
		BasicPairLevel:     2,

		ProportionalStep:      0.3,
		MaxProportional:       1.3,
		UniqueMatchMultiplier: 1.8,
		MaxScoreUniqueMatch:   3.0,
		ExactSkillFactor:      0.2,
		MaxExactSkillBonus:    1.0,
		RelatedFloor:          6.0,
		RelatedSkillFactor:    0.15,
		MaxRelatedSkillBonus:  0.8,
		SkillOnlyFactor:       0.3,
		MaxSkillOnlyScore:     2.0,

		MultiCriticalBonus:     1.1,
		SingleCriticalBonus:    1.05,
		BasicPairBonus:         1.02,
		SuperiorPairBonus:      1.05,
		ConsistencyBonus:       1.05,
		ConsistencyThreshold:   3,
		CoverageBonus:          1.1,
		CoverageBonusThreshold: 0.8,

		ExactMatchScale: 0.9,
		MaxScore:        10,

		Levels: []LevelThreshold{
			{MinScore: 8.0, MinCoverage: 85, Level: LevelVeryHigh},
			{MinScore: 6.5, MinCoverage: 75, Level: LevelVeryHigh},
			{MinScore: 5.0, MinCoverage: 65, Level: LevelHigh},
			{MinScore: 4.0, MinCoverage: 55, Level: LevelHigh},
			{MinScore: 3.0, MinCoverage: 45, Level: LevelMedium},
			{MinScore: 2.0, MinCoverage: 35, Level: LevelMedium},
			{MinScore: 1.0, MinCoverage: 20, Level: LevelLow},
		},
	}
}

// Validate checks that the table keeps scores bounded and monotonic.
func (w Weights) Validate() error {
	multipliers := map[string]float64{
		"neutral-profamily":       w.NeutralProfamily,
		"verified-exact-match":    w.VerifiedExactMatch,
		"unverified-exact-match":  w.UnverifiedExactMatch,
		"no-match-profamily":      w.NoMatchProfamily,
		"profamily-base":          w.ProfamilyBase,
		"excess-factor":           w.ExcessFactor,
		"insufficient-factor":     w.InsufficientFactor,
		"missing-penalty":         w.MissingPenalty,
		"proportional-step":       w.ProportionalStep,
		"max-score-unique-match":  w.MaxScoreUniqueMatch,
		"exact-skill-factor":      w.ExactSkillFactor,
		"max-exact-skill-bonus":   w.MaxExactSkillBonus,
		"related-skill-factor":    w.RelatedSkillFactor,
		"max-related-skill-bonus": w.MaxRelatedSkillBonus,
		"skill-only-factor":       w.SkillOnlyFactor,
		"max-skill-only-score":    w.MaxSkillOnlyScore,
		"exact-match-scale":       w.ExactMatchScale,
	}
	for name, value := range multipliers {
		if value < 0 || math.IsNaN(value) {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, value)
		}
	}

	bonuses := map[string]float64{
		"low-proficiency":         w.LowProficiency,
		"medium-proficiency":      w.MediumProficiency,
		"high-proficiency":        w.HighProficiency,
		"critical-skill":          w.CriticalSkill,
		"superior-match":          w.SuperiorMatch,
		"max-proportional":        w.MaxProportional,
		"unique-match-multiplier": w.UniqueMatchMultiplier,
		"multi-critical-bonus":    w.MultiCriticalBonus,
		"single-critical-bonus":   w.SingleCriticalBonus,
		"basic-pair-bonus":        w.BasicPairBonus,
		"superior-pair-bonus":     w.SuperiorPairBonus,
		"consistency-bonus":       w.ConsistencyBonus,
		"coverage-bonus":          w.CoverageBonus,
	}
	for name, value := range bonuses {
		if value < 1 || math.IsNaN(value) {
			return fmt.Errorf("bonus %s must be at least 1, got %v", name, value)
		}
	}

	if w.MaxScore <= 0 {
		return fmt.Errorf("max-score must be positive, got %v", w.MaxScore)
	}
	if w.CriticalLevel < w.ImportantLevel {
		return fmt.Errorf("critical-level (%d) must not be below important-level (%d)", w.CriticalLevel, w.ImportantLevel)
	}
	if len(w.Levels) == 0 {
		return fmt.Errorf("level table is empty")
	}

	for i, row := range w.Levels {
		if !row.Level.Valid() {
			return fmt.Errorf("level table row %d: unknown level %q", i, row.Level)
		}
		if i == 0 {
			continue
		}
		prev := w.Levels[i-1]
		if row.MinScore > prev.MinScore || row.MinCoverage > prev.MinCoverage {
			return fmt.Errorf("level table row %d: thresholds must not increase", i)
		}
	}

	return nil
}

// proficiency returns the multiplier keyed by the possessed tier.
func (w Weights) proficiency(possessed int) float64 {
	switch {
	case possessed >= 3:
		return w.HighProficiency
	case possessed == 2:
		return w.MediumProficiency
	default:
		return w.LowProficiency
	}
}

// ScoreSkill scores one required skill against the possessed level.
func (w Weights) ScoreSkill(required, possessed int) float64 {
	if possessed < required {
		return float64(required) * w.InsufficientFactor
	}

	score := float64(required) + w.ExcessFactor*float64(possessed-required)
	score *= w.proficiency(possessed)
	if required >= w.CriticalLevel {
		score *= w.CriticalSkill
	}
	if possessed > required {
		score *= w.SuperiorMatch
	}

	return score
}

// MissingSkillPenalty is subtracted from the running skill score for every
// required skill the candidate does not have at all. totalRequired is never
// zero here: the aggregator returns early for empty requirements.
func (w Weights) MissingSkillPenalty(required, totalRequired int) float64 {
	return float64(required) * w.MissingPenalty / math.Sqrt(float64(totalRequired))
}

// Importance classifies a required level.
func (w Weights) Importance(required int) Importance {
	switch {
	case required >= w.CriticalLevel:
		return ImportanceCritical
	case required >= w.ImportantLevel:
		return ImportanceImportant
	default:
		return ImportanceBasic
	}
}
