package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens-mcp/internal/mcp"
	"github.com/repolens/repolens-mcp/internal/registry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis tools over MCP stdio",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Registration is advisory; the server starts either way.
	if client := registry.New(cfg.Registry.URL, log); client != nil {
		go func() {
			err := client.Register(ctx, registry.Registration{
				Name:    mcp.ServerName,
				Version: mcp.ServerVersion,
				Address: cfg.Registry.AdvertiseAddress,
				Tools:   server.Tools(),
			})
			if err != nil {
				log.Warn("orchestrator registration failed", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		return nil
	case err := <-errCh:
		return err
	}
}
