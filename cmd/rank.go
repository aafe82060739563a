package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/affinity-ranker/internal/filtering"
	"github.com/spigell/affinity-ranker/internal/logger"
	"github.com/spigell/affinity-ranker/internal/pool"
	"github.com/spigell/affinity-ranker/internal/ranking"
)

const (
	PromptShowDetails         = "Show candidate details"
	PromptReportByLevel       = "Report by level"
	PromptRankingToFile       = "Dump ranking to file"
	PromptAppendToExcludeFile = "Append shown candidates to exclude file"
	PromptDescribeFilters     = "Describe filters"
	PromptExit                = "Exit"
	PromptBack                = "back"
)

var errExit = errors.New("exit requested")

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Filter and rank the candidate pool for an offer",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().IntP("offer", "o", 0, "offer id from the dataset")
	rankCmd.Flags().BoolP("auto-approve", "y", false, "print the ranking as JSON and exit without the interactive menu")
	rankCmd.Flags().StringP("exclude-file", "e", "", "special file with candidates to exclude. Default is unset.")
	rankCmd.Flags().IntP("limit", "l", 0, "number of candidates to return (default from config, 15)")

	rankCmd.MarkFlagRequired("offer")

	viper.BindPFlag("exclude-file", rankCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("rank.limit", rankCmd.Flags().Lookup("limit"))
}

// rank is the main command for the cli.
func rank(cmd *cobra.Command) {
	ctx := context.Background()
	s := bootstrap()

	offerID, _ := cmd.Flags().GetInt("offer")
	offer, err := s.dataset.FindOffer(offerID)
	if err != nil {
		s.logger.Fatal("looking up the offer", zap.Error(err))
	}

	log := logger.WithOffer(s.logger, offer.ID, offer.Name)

	steps := filtering.Defaults()
	candidates, err := filtering.Run(ctx, &s.config.Filters, filtering.Deps{Logger: log, Offer: offer}, steps, s.dataset.Candidates)
	if err != nil {
		log.Fatal("filtering failed", zap.Error(err))
	}

	if candidates.Len() == 0 {
		log.Info("exiting", zap.String("reason", "no candidates left after filters"))
		return
	}

	opts := s.config.Rank
	opts.RequirementProfamilyIDs = offer.ProfamilyIDs

	batch, err := ranking.NewRanker(s.calc, log).Rank(ctx, offer.Requirements(), candidates.Items, opts)
	if err != nil {
		log.Fatal("ranking failed", zap.Error(err))
	}

	stats := s.calc.CacheStats()
	log.Debug("affinity cache",
		zap.Int("size", stats.Size),
		zap.Int("hits", stats.Hits),
		zap.Int("misses", stats.Misses),
	)

	if auto, _ := cmd.Flags().GetBool("auto-approve"); auto {
		pretty, err := json.MarshalIndent(batch, "", "  ")
		if err != nil {
			log.Fatal("encoding the ranking", zap.Error(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
		return
	}

	for _, rc := range batch.Candidates {
		log.Info("ranked candidate",
			zap.Int(logger.FieldCandidateID, rc.Candidate.ID),
			zap.String("name", rc.Candidate.Name),
			zap.Float64("score", rc.Score),
			zap.String("level", string(rc.Affinity.Level)),
		)
	}

	items := []string{PromptShowDetails, PromptReportByLevel, PromptRankingToFile, PromptDescribeFilters}
	if s.config.ExcludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}

	prompt := promptui.Select{
		Label: "What next?",
		Items: append(items, PromptExit),
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, log, s.config, offer, batch, steps); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			log.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, offer *pool.Offer, batch *ranking.BatchResult, steps []filtering.Filter) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptShowDetails:
		return showDetails(logger, batch)
	case PromptReportByLevel:
		pretty, _ := json.MarshalIndent(pool.ReportByLevel(batch.Candidates), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", len(batch.Candidates)))
		return nil
	case PromptRankingToFile:
		filename, err := pool.DumpToTmpFile(batch)
		if err != nil {
			return fmt.Errorf("dump ranking to file: %w", err)
		}
		logger.Info("dumping ranking to file", zap.String("filename", filename))
		return nil
	case PromptDescribeFilters:
		pretty, _ := json.MarshalIndent(filtering.Describe(steps), "", "  ")
		logger.Info(string(pretty))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(logger, config.ExcludeFile, offer, batch)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func appendToExcludeFile(logger *zap.Logger, path string, offer *pool.Offer, batch *ranking.BatchResult) error {
	if path == "" {
		return errors.New("exclude file is not configured")
	}

	excluded, err := pool.GetExcludedCandidatesFromFile(path)
	if err != nil {
		return fmt.Errorf("read exclude file: %w", err)
	}

	excluded.Append(pool.ToExcluded(offer.ID, batch.Candidates))

	if err := excluded.ToFile(path); err != nil {
		return fmt.Errorf("write exclude file: %w", err)
	}

	logger.Info("appended to exclude file",
		zap.String("filename", path),
		zap.Int("candidates", len(batch.Candidates)),
	)
	return nil
}

func showDetails(logger *zap.Logger, batch *ranking.BatchResult) error {
	for {
		items := make([]string, 0, len(batch.Candidates)+1)
		for i, rc := range batch.Candidates {
			items = append(items, fmt.Sprintf("%d %s / %.2f / %s", i+1, rc.Candidate.Name, rc.Score, rc.Affinity.Level))
		}

		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}

		if selected == PromptBack {
			return nil
		}

		position, err := strconv.Atoi(strings.Split(selected, " ")[0])
		if err != nil || position < 1 || position > len(batch.Candidates) {
			return fmt.Errorf("there is no such position %q", selected)
		}

		pretty, _ := json.MarshalIndent(batch.Candidates[position-1], "", "  ")
		logger.Info(string(pretty))
	}
}
