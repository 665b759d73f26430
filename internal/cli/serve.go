package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"labrec/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over HTTP",
	Long: `Start the HTTP API. Endpoints:

  GET  /healthz
  GET  /v1/recommend?q=...&k=3&render=true
  POST /v1/recommend   {"query": "...", "k": 3, "render": true}
  GET  /metrics

Examples:
  labrec serve
  labrec serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := GetLogger()

	a, err := newApp(cfg, GetRootDir(), nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	timeout := time.Duration(cfg.Server.TimeoutSec) * time.Second
	router, err := api.NewRouter(a.recommend, a.present, api.Options{
		DefaultK: cfg.Retrieve.TopK,
		MaxTopK:  cfg.Server.MaxTopK,
		Timeout:  timeout,
	}, logger)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      timeout + 10*time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.Int("labs", len(a.corpus.Docs)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
