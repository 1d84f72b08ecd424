package cmd

import (
	"fmt"

	"postpilot/internal/config"
	"postpilot/internal/logger"
	"postpilot/internal/publish"
	"postpilot/internal/scheduler"
	"postpilot/internal/store/file"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "postctl",
	Short: "Postctl is a command line tool for managing scheduled social posts",
	Long: `postctl manages the postpilot post lifecycle: stock approved texts,
spread them across peak-time slots, and execute them when due.

A post record moves through a simple state machine:

  pending (no time) -> pending (slot assigned) -> posted | failed | dry_run | no_publisher

Common workflows:

  Stock approved texts and assign slots in one step:
    postctl stock --file approved.txt --assign

  Assign slots to stocked posts:
    postctl schedule

  Execute everything that is due right now:
    postctl execute

  See what is scheduled:
    postctl status

  Publish one record immediately:
    postctl post-now <record-id> --execute

Continuous execution is handled by the postd daemon.

Configuration:
  Settings come from postpilot.yaml (or --config) and environment variables
  with the POSTPILOT_ prefix:
    POSTPILOT_DATA_DIR          Data directory (default: data)
    POSTPILOT_X_BEARER_TOKEN    X API bearer token; unset means no publisher`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is postpilot.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory override")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// newEngine builds the lifecycle engine from configuration. The publisher is
// only wired when a bearer token is configured; without one, due records
// finish as no_publisher.
func newEngine(cfg *config.Config) (*scheduler.Engine, error) {
	st, err := file.New(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	var publisher publish.Publisher
	if cfg.XBearerToken != "" {
		client, err := publish.NewXClient(publish.XClientConfig{
			BaseURL:           cfg.XBaseURL,
			BearerToken:       cfg.XBearerToken,
			RequestsPerMinute: cfg.XRequestsPerMinute,
		})
		if err != nil {
			return nil, fmt.Errorf("publisher: %w", err)
		}
		publisher = client
	}

	return scheduler.New(st, publisher, logger.New(), scheduler.Config{
		Slots:        cfg.Slots,
		PollInterval: cfg.PollInterval,
		SummaryLimit: cfg.SummaryLimit,
	}), nil
}
