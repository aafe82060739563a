package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/affinity-ranker/internal/affinity"
	"github.com/spigell/affinity-ranker/internal/logger"
	"github.com/spigell/affinity-ranker/internal/ranking"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single candidate against an offer and print the result as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().IntP("offer", "o", 0, "offer id from the dataset")
	scoreCmd.Flags().IntP("candidate", "c", 0, "candidate id from the dataset")

	scoreCmd.MarkFlagRequired("offer")
	scoreCmd.MarkFlagRequired("candidate")
}

func score(cmd *cobra.Command) {
	s := bootstrap()

	offerID, _ := cmd.Flags().GetInt("offer")
	candidateID, _ := cmd.Flags().GetInt("candidate")

	offer, err := s.dataset.FindOffer(offerID)
	if err != nil {
		s.logger.Fatal("looking up the offer", zap.Error(err))
	}

	log := logger.WithOffer(s.logger, offer.ID, offer.Name).With(zap.Int(logger.FieldCandidateID, candidateID))

	candidate, err := s.dataset.FindCandidate(candidateID)
	if err != nil {
		log.Fatal("looking up the candidate", zap.Error(err))
	}

	possessed, err := ranking.ParseSkills(candidate)
	if err != nil {
		log.Fatal("reading candidate skills", zap.Error(err))
	}

	result, err := s.calc.Calculate(offer.Requirements(), possessed, affinity.Options{
		ProfamilyID:             candidate.ProfamilyID,
		RequirementProfamilyIDs: offer.ProfamilyIDs,
		VerificationStatus:      candidate.VerificationStatus,
	})
	if err != nil {
		log.Fatal("calculating affinity", zap.Error(err))
	}

	log.Info("affinity calculated",
		zap.Float64("score", result.Score),
		zap.String("level", string(result.Level)),
	)

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal("encoding the result", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
