// Package pool loads offers and candidates from a dataset file and provides
// the list operations used around a ranking run.
package pool

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/spigell/affinity-ranker/internal/ranking"
)

var (
	ErrOfferNotFound     = errors.New("offer not found")
	ErrCandidateNotFound = errors.New("candidate not found")
)

type Dataset struct {
	Offers     []*Offer
	Candidates *Candidates
}

type datasetFile struct {
	Offers     []*Offer             `mapstructure:"offers"`
	Candidates []*ranking.Candidate `mapstructure:"candidates"`
}

// Load reads a YAML, JSON or TOML dataset. The key delimiter is changed so
// that skill names containing dots (node.js) stay single keys.
func Load(path string) (*Dataset, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	var raw datasetFile
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}

	return &Dataset{
		Offers:     raw.Offers,
		Candidates: &Candidates{Items: raw.Candidates},
	}, nil
}

func (d *Dataset) FindOffer(id int) (*Offer, error) {
	for _, offer := range d.Offers {
		if offer.ID == id {
			return offer, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrOfferNotFound, id)
}

func (d *Dataset) FindCandidate(id int) (*ranking.Candidate, error) {
	if c := d.Candidates.FindByID(id); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrCandidateNotFound, id)
}
