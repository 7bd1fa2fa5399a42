package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gyeh/dwload/internal/db"
	"github.com/gyeh/dwload/internal/design"
	"github.com/gyeh/dwload/internal/exitcode"
	"github.com/gyeh/dwload/internal/logging"
)

var (
	schemaName string
	tableName  string
	printDDL   bool
	overwrite  bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Introspect source tables and write table design files",
	RunE:  runSchema,
}

func init() {
	f := schemaCmd.Flags()
	f.StringVar(&schemaName, "schema", "", "Source schema to introspect (required)")
	f.StringVar(&tableName, "table", "", "Single table to introspect (default: all tables in schema)")
	f.StringVar(&cfg.OutDir, "out", "schemas", "Directory for generated design files")
	f.BoolVar(&printDDL, "print-ddl", false, "Also print CREATE TABLE and COPY statements")
	f.BoolVar(&overwrite, "overwrite", false, "Replace design files that already exist")
	_ = schemaCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.LoadFromFile(cfg.SettingsPath); err != nil {
		log.Error().Err(err).Msg("settings load failed")
		os.Exit(exitcode.ConfigError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	tables := []string{tableName}
	if tableName == "" {
		tables, err = design.FetchTables(ctx, pool, schemaName)
		if err != nil {
			log.Error().Err(err).Msg("listing tables failed")
			os.Exit(exitcode.IntrospectError)
		}
		if len(tables) == 0 {
			log.Warn().Str("schema", schemaName).Msg("no tables found")
			return nil
		}
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		log.Error().Err(err).Msg("creating output directory failed")
		os.Exit(exitcode.WriteError)
	}

	written := 0
	for _, table := range tables {
		cols, err := design.FetchColumns(ctx, pool, schemaName, table)
		if err != nil {
			log.Error().Err(err).Str("table", table).Msg("introspection failed")
			os.Exit(exitcode.IntrospectError)
		}
		resolved := design.MapColumns(cfg.Rules(), cols)

		path := filepath.Join(cfg.OutDir, fmt.Sprintf("%s-%s.yaml", schemaName, table))
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				log.Warn().Str("file", path).Msg("design file exists, skipping (use --overwrite)")
				continue
			}
		}
		if err := writeDesignFile(path, schemaName, table, resolved); err != nil {
			log.Error().Err(err).Str("file", path).Msg("writing design file failed")
			os.Exit(exitcode.WriteError)
		}
		written++
		log.Info().Str("file", path).Int("columns", len(resolved)).Msg("design file written")

		if printDDL {
			target := fmt.Sprintf("%s.%s", schemaName, table)
			fmt.Println(design.AssembleDDL(target, resolved))
			fmt.Println()
			fmt.Println(design.CopyStatement(target, resolved, 0))
			fmt.Println()
		}
	}

	log.Info().Int("written", written).Int("tables", len(tables)).Msg("schema preparation complete")
	return nil
}

func writeDesignFile(path, schemaName, table string, cols []design.ResolvedColumn) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create design file: %w", err)
	}
	doc := design.NewDocument(schemaName, table, cols)
	if err := doc.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
