package pool

import "github.com/spigell/affinity-ranker/internal/affinity"

// DefaultSkillLevel is used for offer skills listed without a level.
const DefaultSkillLevel = 2

type OfferSkill struct {
	Name  string `json:"name" mapstructure:"name"`
	Level *int   `json:"level,omitempty" mapstructure:"level"`
}

type Offer struct {
	ID           int          `json:"id" mapstructure:"id"`
	Name         string       `json:"name" mapstructure:"name"`
	Company      string       `json:"company,omitempty" mapstructure:"company"`
	ProfamilyIDs []int        `json:"profamilyIds,omitempty" mapstructure:"profamily-ids"`
	Skills       []OfferSkill `json:"skills" mapstructure:"skills"`
}

// Requirements lists the offer skills in the order they were declared.
func (o *Offer) Requirements() affinity.Requirements {
	req := make(affinity.Requirements, 0, len(o.Skills))
	for _, s := range o.Skills {
		level := DefaultSkillLevel
		if s.Level != nil {
			level = *s.Level
		}
		req = append(req, affinity.Requirement{Skill: s.Name, Level: level})
	}
	return req
}
