package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/botanic/internal/api"
	"github.com/kalambet/botanic/internal/config"
	"github.com/kalambet/botanic/internal/news"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local HTTP API (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show botanic status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func (a *app) apiDeps() api.AppDeps {
	return api.AppDeps{
		Store:       a.store,
		Pipeline:    a.runner(),
		Permissions: a.permissions(),
		News:        news.NewFetcher(nil),
		Feeds:       a.cfg.News.Feeds,
		DataDir:     a.cfg.Storage.DataDir,
		Token:       a.cfg.Server.Token,
	}
}

func runServer(ctx context.Context) error {
	fmt.Fprintf(os.Stderr, "botanic version %s\n", version)

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Ensure API token exists in the secrets file.
	if _, err := config.EnsureServerToken(&a.cfg); err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	addr := fmt.Sprintf("127.0.0.1:%d", a.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(a.apiDeps()),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "botanic listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP(ctx context.Context, in io.Reader, out io.Writer) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	stdioSrv := server.NewStdioServer(api.NewMCPServer(a.apiDeps()))
	slog.Info("MCP server started (stdio transport)")
	if err := stdioSrv.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func showStatus(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}
	defer a.Close()

	// Check server health.
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", a.cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", a.cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if err := a.cfg.RequirePlantNetKey(); err != nil {
		printStatus("PlantNet", "no API key")
	} else {
		printStatus("PlantNet", "%s (project %s)", a.cfg.PlantNet.BaseURL, a.cfg.PlantNet.Project)
	}
	if a.cfg.Care.APIKey == "" {
		printStatus("Care notes", "disabled (no care.api_key)")
	} else {
		printStatus("Care notes", "%s", a.cfg.Care.Model)
	}

	if plants, err := a.store.ListPlants(ctx); err == nil {
		printStatus("Plants", "%d", len(plants))
	}
	if uris, err := a.store.ListImageURIs(ctx); err == nil {
		printStatus("Images", "%d", len(uris))
	}

	printStatus("Storage", "%s", a.cfg.Storage.Engine)
	printStatus("Data dir", "%s", a.cfg.Storage.DataDir)
	return nil
}
