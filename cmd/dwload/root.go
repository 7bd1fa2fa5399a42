package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/dwload/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "dwload",
	Short: "Warehouse ETL control core: type resolution, table designs, run monitoring",
	Long: "Resolves source column types into warehouse types and staging formats,\n" +
		"generates table design files from a source Postgres schema, and serves\n" +
		"the progress/event monitoring surface for a pipeline run.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Source Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.SettingsPath, "config", "dwload.yaml", "Path to settings YAML (type rule table and retry budgets)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
}
