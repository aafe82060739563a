package filtering

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/affinity-ranker/internal/affinity"
	"github.com/spigell/affinity-ranker/internal/pool"
)

type excludeRejectedFilter struct {
	toggle
	active bool
}

// NewExcludeRejected creates a filter that removes candidates whose profamily
// verification was rejected.
func NewExcludeRejected() Filter {
	return &excludeRejectedFilter{}
}

func (f *excludeRejectedFilter) Name() string { return "exclude_rejected" }

func (f *excludeRejectedFilter) Validate(cfg *Config) error {
	f.active = cfg != nil && cfg.ExcludeRejected
	return nil
}

func (f *excludeRejectedFilter) Apply(_ context.Context, deps Deps, c *pool.Candidates) (*pool.Candidates, Step, error) {
	initial := c.Len()
	if !f.active {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	removed := c.ExcludeByStatus(affinity.StatusRejected)
	if len(removed) > 0 {
		deps.Logger.Info("excluding candidates with rejected verification",
			zap.Ints("excluded_candidates", removed),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *excludeRejectedFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"active": strconv.FormatBool(f.active)},
	}
}

type requireProfamilyFilter struct {
	toggle
	active bool
}

// NewRequireProfamily creates a filter that keeps only candidates in one of the
// offer profamilies. Offers without profamilies leave the pool untouched.
func NewRequireProfamily() Filter {
	return &requireProfamilyFilter{}
}

func (f *requireProfamilyFilter) Name() string { return "require_profamily" }

func (f *requireProfamilyFilter) Validate(cfg *Config) error {
	f.active = cfg != nil && cfg.RequireProfamily
	return nil
}

func (f *requireProfamilyFilter) Apply(_ context.Context, deps Deps, c *pool.Candidates) (*pool.Candidates, Step, error) {
	initial := c.Len()
	if !f.active {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}
	if deps.Offer == nil {
		return c, Step{}, errors.New("offer is required to filter by profamily")
	}
	if len(deps.Offer.ProfamilyIDs) == 0 {
		deps.Logger.Debug("offer has no profamilies; keeping every candidate", zap.Int("offer_id", deps.Offer.ID))
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	removed := c.ExcludeOutsideProfamilies(deps.Offer.ProfamilyIDs)
	if len(removed) > 0 {
		deps.Logger.Info("excluding candidates outside the offer profamilies",
			zap.Ints("profamilies", deps.Offer.ProfamilyIDs),
			zap.Ints("excluded_candidates", removed),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *requireProfamilyFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"active": strconv.FormatBool(f.active)},
	}
}
