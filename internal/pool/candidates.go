package pool

import (
	"slices"

	"github.com/spigell/affinity-ranker/internal/affinity"
	"github.com/spigell/affinity-ranker/internal/ranking"
)

type Candidates struct {
	Items []*ranking.Candidate
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

func (c *Candidates) FindByID(id int) *ranking.Candidate {
	for _, candidate := range c.Items {
		if candidate.ID == id {
			return candidate
		}
	}
	return nil
}

// Exclude removes candidates by id, keeping the order of the rest, and
// returns the removed ids.
func (c *Candidates) Exclude(ids []int) []int {
	return c.RemoveFunc(func(candidate *ranking.Candidate) bool {
		return slices.Contains(ids, candidate.ID)
	})
}

// ExcludeByStatus removes candidates whose profamily verification has the
// given status.
func (c *Candidates) ExcludeByStatus(status affinity.VerificationStatus) []int {
	return c.RemoveFunc(func(candidate *ranking.Candidate) bool {
		return candidate.VerificationStatus == status
	})
}

// ExcludeOutsideProfamilies removes candidates without a profamily or with a
// profamily not in ids.
func (c *Candidates) ExcludeOutsideProfamilies(ids []int) []int {
	return c.RemoveFunc(func(candidate *ranking.Candidate) bool {
		return candidate.ProfamilyID == nil || !slices.Contains(ids, *candidate.ProfamilyID)
	})
}

func (c *Candidates) RemoveFunc(drop func(*ranking.Candidate) bool) []int {
	var removed []int
	c.Items = slices.DeleteFunc(c.Items, func(candidate *ranking.Candidate) bool {
		if drop(candidate) {
			removed = append(removed, candidate.ID)
			return true
		}
		return false
	})
	return removed
}
