package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/dwload/internal/exitcode"
	"github.com/gyeh/dwload/internal/logging"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the settings file (rule table and retry budgets)",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.LoadFromFile(cfg.SettingsPath); err != nil {
		log.Error().Err(err).Msg("settings invalid")
		os.Exit(exitcode.ConfigError)
	}

	retry := cfg.Retry()
	fmt.Printf("Settings OK: %d rule(s) plus default; retries extract=%d copy=%d insert=%d\n",
		cfg.Rules().Len(), retry.ExtractRetries, retry.CopyDataRetries, retry.InsertDataRetries)
	return nil
}
