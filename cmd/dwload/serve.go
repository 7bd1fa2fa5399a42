package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/dwload/internal/api"
	"github.com/gyeh/dwload/internal/exitcode"
	"github.com/gyeh/dwload/internal/logging"
	"github.com/gyeh/dwload/internal/monitor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitoring sidecar for one pipeline run",
	Long: "Starts the HTTP surface pipeline stages publish progress and events to\n" +
		"and a dashboard polls until every relation is complete.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfg.Listen, "listen", ":8080", "Address to serve the monitoring API on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)

	board := monitor.NewBoard()
	events := monitor.NewEventLog(0)
	server := api.NewServer(board, events, log)

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Listen).Str("run_id", board.RunID()).Msg("monitoring API up")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
			os.Exit(exitcode.ServeError)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("serve failed")
			os.Exit(exitcode.ServeError)
		}
	}
	return nil
}
