package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tvaillant/mailarch/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the archive HTTP API",
	Long: `Run the HTTP API server in the foreground.

Endpoints:
  GET  /health          liveness check
  GET  /api/v1/stats    archive statistics
  POST /api/v1/search   structured search, returns matching email ids

Set [server] api_key in config.toml to require authentication.
Use Ctrl+C to stop gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	server := api.NewServer(cfg, s, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-cmd.Context().Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}
