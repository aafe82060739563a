package ranking

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/affinity-ranker/internal/affinity"
)

// ErrSkillSource is returned when a candidate skill source cannot be turned
// into a possession map.
var ErrSkillSource = errors.New("unreadable skill source")

// Candidate is a person to rank, as handed over by the data layer. CVSkills
// and Skills keep whatever shape the source produced; ParseSkills reads them.
type Candidate struct {
	ID                 int                         `json:"id" mapstructure:"id"`
	Name               string                      `json:"name" mapstructure:"name"`
	ProfamilyID        *int                        `json:"profamilyId,omitempty" mapstructure:"profamily-id"`
	VerificationStatus affinity.VerificationStatus `json:"verificationStatus,omitempty" mapstructure:"verification-status"`
	CVSkills           any                         `json:"cvSkills,omitempty" mapstructure:"cv-skills"`
	Skills             any                         `json:"skills,omitempty" mapstructure:"skills"`
}

var cvLevels = map[string]int{
	"bajo":  1,
	"medio": 2,
	"alto":  3,
}

var legacyLevels = map[string]int{
	"beginner":     1,
	"intermediate": 2,
	"advanced":     3,
	"expert":       4,
}

type cvSkillRecord struct {
	Skill       string `mapstructure:"skill"`
	Name        string `mapstructure:"name"`
	Proficiency string `mapstructure:"proficiency"`
}

type skillRecord struct {
	Name        string `mapstructure:"name"`
	Proficiency string `mapstructure:"proficiency"`
	Level       any    `mapstructure:"level"`
}

// ParseSkills converts the candidate skill source into a possession map.
// A non-empty CV skill list wins over the Skills field. Skills may be a list
// of records or a map of name to level.
func ParseSkills(c *Candidate) (affinity.Possession, error) {
	if c.CVSkills != nil {
		records, ok := asList(c.CVSkills)
		if !ok {
			return nil, fmt.Errorf("%w: cv skills must be a list, got %T", ErrSkillSource, c.CVSkills)
		}
		if len(records) > 0 {
			return parseCVSkills(records)
		}
	}

	if c.Skills == nil {
		return affinity.Possession{}, nil
	}

	if records, ok := asList(c.Skills); ok {
		return parseSkillList(records)
	}

	if m, ok := c.Skills.(map[string]any); ok {
		return parseSkillMap(m)
	}
	if m, ok := c.Skills.(map[string]int); ok {
		possessed := make(affinity.Possession, len(m))
		for name, level := range m {
			if err := addSkill(possessed, name, level); err != nil {
				return nil, err
			}
		}
		return possessed, nil
	}

	return nil, fmt.Errorf("%w: unsupported skills shape %T", ErrSkillSource, c.Skills)
}

func parseCVSkills(records []any) (affinity.Possession, error) {
	possessed := make(affinity.Possession, len(records))
	for i, raw := range records {
		var rec cvSkillRecord
		if err := decodeRecord(raw, &rec); err != nil {
			return nil, fmt.Errorf("cv skill %d: %w", i, err)
		}

		name := rec.Skill
		if name == "" {
			name = rec.Name
		}

		level, ok := cvLevels[strings.ToLower(strings.TrimSpace(rec.Proficiency))]
		if !ok {
			return nil, fmt.Errorf("%w: cv skill %q has unknown proficiency %q", ErrSkillSource, name, rec.Proficiency)
		}

		if err := addSkill(possessed, name, level); err != nil {
			return nil, err
		}
	}

	return possessed, nil
}

func parseSkillList(records []any) (affinity.Possession, error) {
	possessed := make(affinity.Possession, len(records))
	for i, raw := range records {
		var rec skillRecord
		if err := decodeRecord(raw, &rec); err != nil {
			return nil, fmt.Errorf("skill %d: %w", i, err)
		}

		var level int
		if rec.Level != nil {
			parsed, err := toLevel(rec.Level)
			if err != nil {
				return nil, fmt.Errorf("skill %q: %w", rec.Name, err)
			}
			level = parsed
		} else {
			known, ok := legacyLevels[strings.ToLower(strings.TrimSpace(rec.Proficiency))]
			if !ok {
				return nil, fmt.Errorf("%w: skill %q has unknown proficiency %q", ErrSkillSource, rec.Name, rec.Proficiency)
			}
			level = known
		}

		if err := addSkill(possessed, rec.Name, level); err != nil {
			return nil, err
		}
	}

	return possessed, nil
}

func parseSkillMap(m map[string]any) (affinity.Possession, error) {
	possessed := make(affinity.Possession, len(m))
	for name, raw := range m {
		level, err := toLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("skill %q: %w", name, err)
		}
		if err := addSkill(possessed, name, level); err != nil {
			return nil, err
		}
	}

	return possessed, nil
}

func addSkill(possessed affinity.Possession, name string, level int) error {
	skill := affinity.NormalizeSkill(name)
	if skill == "" {
		return fmt.Errorf("%w: skill without a name", ErrSkillSource)
	}
	if level < affinity.MinLevel || level > affinity.MaxLevel {
		return fmt.Errorf("%w: skill %q level %d is outside %d-%d", ErrSkillSource, skill, level, affinity.MinLevel, affinity.MaxLevel)
	}
	if _, dup := possessed[skill]; dup {
		return fmt.Errorf("%w: skill %q is listed more than once", ErrSkillSource, skill)
	}

	possessed[skill] = level
	return nil
}

func decodeRecord(raw any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrSkillSource, err)
	}

	return nil
}

func asList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []map[string]any:
		out := make([]any, len(list))
		for i := range list {
			out[i] = list[i]
		}
		return out, true
	default:
		return nil, false
	}
}

// toLevel accepts whole numbers only. Fractions are rejected rather than
// truncated.
func toLevel(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: level %v is not a whole number", ErrSkillSource, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: level must be a number, got %T", ErrSkillSource, v)
	}
}
