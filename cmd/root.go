package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/affinity-ranker/internal/affinity"
	"github.com/spigell/affinity-ranker/internal/filtering"
	"github.com/spigell/affinity-ranker/internal/logger"
	"github.com/spigell/affinity-ranker/internal/pool"
	"github.com/spigell/affinity-ranker/internal/ranking"
)

const (
	app       = "affinity-ranker"
	envPrefix = "AFFINITY"
)

type Config struct {
	Dataset     string           `mapstructure:"dataset"`
	ExcludeFile string           `mapstructure:"exclude-file"`
	CacheSize   int              `mapstructure:"cache-size"`
	Weights     affinity.Weights `mapstructure:"weights"`
	Rank        ranking.Options  `mapstructure:"rank"`
	Filters     filtering.Config `mapstructure:"filters"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "affinity-ranker scores candidates against job offers and ranks the pool",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is affinity-ranker.yaml in current directory)")
	rootCmd.PersistentFlags().StringP("dataset", "D", "", "dataset file with offers and candidates (default is dataset.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("dataset", rootCmd.PersistentFlags().Lookup("dataset"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every scalar key so that AFFINITY_* variables reach
// Unmarshal even when the config file does not mention the key.
func setDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	opts := ranking.DefaultOptions()
	v.SetDefault("dataset", "dataset.yaml")
	v.SetDefault("exclude-file", "")
	v.SetDefault("cache-size", affinity.DefaultCacheSize)
	v.SetDefault("rank.min-score", opts.MinScore)
	v.SetDefault("rank.limit", opts.Limit)
	v.SetDefault("rank.include-analytics", opts.IncludeAnalytics)
	v.SetDefault("rank.diversity-bonus", opts.DiversityBonus)
	v.SetDefault("rank.workers", opts.Workers)
	v.SetDefault("filters.exclude-rejected", false)
	v.SetDefault("filters.require-profamily", false)
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional unless it was given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig(v *viper.Viper) (*Config, error) {
	config := &Config{
		CacheSize: affinity.DefaultCacheSize,
		Weights:   affinity.DefaultWeights(),
		Rank:      ranking.DefaultOptions(),
	}

	// A configured level table replaces the default one instead of being
	// merged row by row.
	if v.IsSet("weights.levels") {
		config.Weights.Levels = nil
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	config.Filters.ExcludeFile = config.ExcludeFile

	return config, nil
}

// session holds what every command needs once configuration is read.
type session struct {
	logger  *zap.Logger
	config  *Config
	dataset *pool.Dataset
	calc    *affinity.Calculator
}

func bootstrap() *session {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the affinity-ranker", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	dataset, err := pool.Load(config.Dataset)
	if err != nil {
		logger.Fatal("loading the dataset", zap.Error(err))
	}

	logger.Info("dataset loaded",
		zap.String("path", config.Dataset),
		zap.Int("offers", len(dataset.Offers)),
		zap.Int("candidates", dataset.Candidates.Len()),
	)

	calc, err := affinity.NewCalculator(config.Weights, affinity.NewCache(config.CacheSize), logger)
	if err != nil {
		logger.Fatal("creating the calculator", zap.Error(err))
	}

	return &session{
		logger:  logger,
		config:  config,
		dataset: dataset,
		calc:    calc,
	}
}
