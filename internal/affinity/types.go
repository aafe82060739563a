// Package affinity scores how well a candidate's skills and professional
// family match the requirements of an offer.
package affinity

import (
	"maps"
	"slices"
	"strings"
)

// Level is the discrete affinity label shown to recruiters.
type Level string

const (
	LevelVeryHigh Level = "muy alto"
	LevelHigh     Level = "alto"
	LevelMedium   Level = "medio"
	LevelLow      Level = "bajo"
	LevelNoData   Level = "sin datos"
)

// Levels lists every label from best to worst.
var Levels = []Level{LevelVeryHigh, LevelHigh, LevelMedium, LevelLow, LevelNoData}

func (l Level) Valid() bool {
	return slices.Contains(Levels, l)
}

// Importance of a required skill, derived from its required level.
type Importance string

const (
	ImportanceCritical  Importance = "critical"
	ImportanceImportant Importance = "important"
	ImportanceBasic     Importance = "basic"
)

// VerificationStatus is the trust level of the candidate's declared profamily.
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusPending    VerificationStatus = "pending"
	StatusVerified   VerificationStatus = "verified"
	StatusRejected   VerificationStatus = "rejected"
)

// ProfamilyLevel tells which profamily rule produced the affinity.
type ProfamilyLevel string

const (
	ProfamilyNone       ProfamilyLevel = "none"
	ProfamilyNeutral    ProfamilyLevel = "neutral"
	ProfamilyExactMatch ProfamilyLevel = "exact_match"
	// ProfamilyRelatedMatch is reserved. No rule produces it yet.
	ProfamilyRelatedMatch ProfamilyLevel = "related_match"
	ProfamilyNoMatch      ProfamilyLevel = "no-match"
)

// Requirement is a single required skill with its minimum level (1-5).
type Requirement struct {
	Skill string `json:"skill" mapstructure:"skill"`
	Level int    `json:"level" mapstructure:"level"`
}

// Requirements keeps required skills in insertion order. The order decides the
// order of Result.MatchingSkills.
type Requirements []Requirement

// RequirementsFromMap builds requirements from an unordered map, sorted by
// skill name so the result does not depend on map iteration.
func RequirementsFromMap(m map[string]int) Requirements {
	names := slices.Sorted(maps.Keys(m))
	req := make(Requirements, 0, len(names))
	for _, name := range names {
		req = append(req, Requirement{Skill: name, Level: m[name]})
	}
	return req
}

// Possession maps a skill name to the level the candidate has (1-5).
type Possession map[string]int

// Options carries the profamily context of a calculation.
type Options struct {
	ProfamilyID             *int               `json:"profamilyId,omitempty"`
	RequirementProfamilyIDs []int              `json:"requirementProfamilyIds,omitempty"`
	VerificationStatus      VerificationStatus `json:"verificationStatus,omitempty" validate:"omitempty,oneof=unverified pending verified rejected"`
}

// Status returns the verification status with the default applied.
func (o Options) Status() VerificationStatus {
	if o.VerificationStatus == "" {
		return StatusUnverified
	}
	return o.VerificationStatus
}

// SkillMatch describes one required skill the candidate has at any level.
type SkillMatch struct {
	Skill          string     `json:"skill"`
	RequiredLevel  int        `json:"requiredLevel"`
	PossessedLevel int        `json:"possessedLevel"`
	Matched        bool       `json:"matched"`
	Excess         int        `json:"excess"`
	Importance     Importance `json:"importance"`
}

// ProfamilyAffinity is the outcome of profamily resolution.
type ProfamilyAffinity struct {
	Score   float64        `json:"score"`
	Level   ProfamilyLevel `json:"level"`
	Details string         `json:"details"`
}

// Factors exposes every intermediate value used to build the score.
type Factors struct {
	HasPremiumMatch        bool              `json:"hasPremiumMatch"`
	CriticalSkillsMatched  int               `json:"criticalSkillsMatched"`
	BasicSkillsMatched     int               `json:"basicSkillsMatched"`
	SuperiorMatches        int               `json:"superiorMatches"`
	ConsistencyScore       int               `json:"consistencyScore"`
	CoverageFactor         float64           `json:"coverageFactor"`
	ProportionalFactor     float64           `json:"proportionalFactor"`
	SpecialUniqueMatch     bool              `json:"specialUniqueMatch"`
	PerfectMatch           bool              `json:"perfectMatch"`
	SkillDiversityBonus    bool              `json:"skillDiversityBonus"`
	RawSkillScore          float64           `json:"rawSkillScore"`
	BaseScoreFromProfamily float64           `json:"baseScoreFromProfamily"`
	ProfamilyAffinity      ProfamilyAffinity `json:"profamilyAffinity"`
}

// Result is the outcome of a single candidate/requirement calculation.
type Result struct {
	Score          float64      `json:"score"`
	Level          Level        `json:"level"`
	Matches        int          `json:"matches"`
	TotalRequired  int          `json:"totalRequired"`
	Coverage       int          `json:"coverage"`
	MatchingSkills []SkillMatch `json:"matchingSkills"`
	Explanation    string       `json:"explanation"`
	Factors        Factors      `json:"factors"`
}

// Clone returns a copy that shares no memory with r.
func (r Result) Clone() Result {
	r.MatchingSkills = slices.Clone(r.MatchingSkills)
	return r
}

// Unscored is the result used when a candidate could not be evaluated.
func Unscored(totalRequired int) Result {
	return Result{
		Level:          LevelNoData,
		TotalRequired:  totalRequired,
		MatchingSkills: []SkillMatch{},
		Explanation:    Explain(LevelNoData, 0, totalRequired, 0),
		Factors:        Factors{ProportionalFactor: 1},
	}
}

// NormalizeSkill is the canonical form of a skill name.
func NormalizeSkill(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
