package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/dwload/internal/exitcode"
	"github.com/gyeh/dwload/internal/logging"
)

var resolveColumn string

var resolveCmd = &cobra.Command{
	Use:   "resolve <source-type>...",
	Short: "Resolve source type strings against the configured rule table",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveColumn, "column", "col", "Column name used when rendering cast expressions")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.LoadFromFile(cfg.SettingsPath); err != nil {
		log.Error().Err(err).Msg("settings load failed")
		os.Exit(exitcode.ConfigError)
	}

	rules := cfg.Rules()
	for _, sourceType := range args {
		m := rules.Resolve(sourceType)
		kind := "cast"
		if m.AsIs() {
			kind = "as-is"
		}
		fmt.Printf("%-30s %-6s target=%-20s format=%-8s expr=%s\n",
			sourceType, kind, m.TargetType, m.Format, m.Expr(resolveColumn))
	}
	return nil
}
