// Package serve runs the decode HTTP API.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"dbkr/kontoauszug-reader/cmd/root"
	"dbkr/kontoauszug-reader/internal/api"
	"dbkr/kontoauszug-reader/internal/container"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the decode HTTP API",
	Long: `Run an HTTP server exposing the decoder.

  GET  /api/health   liveness and version
  POST /api/decode   statement text as body, or a multipart "file" upload;
                     ?lines=true returns booking lines, ?strict=true keeps a
                     line left open by a truncated statement`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return Run(ctx, c)
	},
}

func init() {
	Cmd.Flags().String("address", ":8080", "listen address")
}

// NewServer builds the API server from the container.
func NewServer(c *container.Container) *api.Server {
	cfg := c.GetConfig()
	return api.NewServer(c.GetFS(), c.GetExtractor(), c.GetLogger(), api.Options{
		BodyLimitMB: cfg.Server.BodyLimitMB,
		Version:     root.Version,
		Strict:      cfg.Decoder.Strict,
	})
}

// Run serves until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, c *container.Container) error {
	server := NewServer(c)
	logger := c.GetLogger()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(c.GetConfig().Server.Address)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down decode API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}
