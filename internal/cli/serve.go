package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/agriscope/agriscope/internal/httpapi"
	"github.com/agriscope/agriscope/internal/session"
)

// Serve runs the dashboard HTTP API until interrupted.
func (c *CLI) Serve() {
	registry := session.NewRegistry(session.DefaultTTL)
	defer registry.Close()

	server := httpapi.New(c.client, registry)
	addr := fmt.Sprintf(":%d", c.port)
	PrintSuccess(fmt.Sprintf("Dashboard API listening on %s (Ctrl+C to stop)", addr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, addr); err != nil {
		PrintError(fmt.Sprintf("HTTP server: %s", err.Error()))
	}
}
