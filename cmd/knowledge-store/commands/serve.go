// ABOUTME: Serve command starts the HTTP transport
// ABOUTME: Exposes POST /mcp (JSON-RPC), GET /health and GET /stats
package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Claire-s-Monster/knowledge-store/internal/api"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server with a JSON-RPC MCP endpoint",
		Long: `Start HTTP server with a JSON-RPC MCP endpoint

Serves the same three meta-tools as the stdio transport at POST /mcp,
plus GET /health and GET /stats for monitoring.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, host, port)
		},
		Example: `  # Start on the configured host and port
  knowledge-store serve

  # Override the bind address
  knowledge-store serve --host 0.0.0.0 --port 8080`,
	}

	cmd.Flags().StringVar(&host, "host", "", "Bind address (overrides KNOWLEDGE_STORE_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides KNOWLEDGE_STORE_PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, host string, port int) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if host == "" {
		host = a.cfg.Host
	}
	if port == 0 {
		port = a.cfg.Port
	}

	handler := api.NewHandler(a.dispatcher, a.store, a.cfg.CollectionName, a.log)
	srv := &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server starting",
			zap.String("addr", srv.Addr),
			zap.String("collection", a.cfg.CollectionName))
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
