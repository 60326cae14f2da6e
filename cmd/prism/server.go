package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/pluralign/prism/internal/api"
	"github.com/pluralign/prism/internal/cache"
	"github.com/pluralign/prism/internal/config"
	"github.com/pluralign/prism/internal/controversy"
	"github.com/pluralign/prism/internal/dataset"
	"github.com/pluralign/prism/internal/llm"
	"github.com/pluralign/prism/internal/perspective"
	"github.com/pluralign/prism/internal/pipeline"
	"github.com/pluralign/prism/internal/selection"
	"github.com/pluralign/prism/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prism server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show prism system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

// app bundles the wired components shared by the server and the local CLI
// commands.
type app struct {
	cfg      *config.Config
	store    *storage.Store
	cache    *cache.Cache
	pipeline *pipeline.Service
	profiles []selection.UserProfile
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
	}
}

func buildApp() (*app, error) {
	path, err := config.ResolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	store, err := storage.Open(cfg.GetDataDir())
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	ttl := time.Duration(cfg.Cache.TTLDays) * 24 * time.Hour
	c := cache.New(store, ttl)

	// The model client doubles as the classifier backend and the
	// perspective generator. Without an API key both degrade gracefully:
	// rule-based classification and placeholder perspectives.
	var completer perspective.Completer
	var classifier pipeline.Classifier
	if client := llm.NewClient(cfg.APIKey(), cfg.LLM.BaseURL, cfg.LLM.Model); client != nil {
		completer = client
		classifier = controversy.NewModelClassifier(client)
	} else {
		slog.Warn("no LLM API key configured; using rule classification and placeholder perspectives",
			"key_env", cfg.LLM.APIKeyEnv)
	}

	gen := perspective.NewGenerator(completer, c)
	svc := pipeline.NewService(classifier, gen, store, cfg.Selection.MaxAdditional)

	var profiles []selection.UserProfile
	if cases, err := dataset.Load(cfg.Dataset.Path); err != nil {
		slog.Warn("dataset unavailable; only inline profiles accepted", "path", cfg.Dataset.Path, "error", err)
	} else {
		profiles = dataset.UserProfiles(cases)
		slog.Info("dataset loaded", "path", cfg.Dataset.Path, "users", len(profiles))
	}

	return &app{
		cfg:      cfg,
		store:    store,
		cache:    c,
		pipeline: svc,
		profiles: profiles,
	}, nil
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "prism version %s\n", version)

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	token := a.cfg.APIToken()
	if token == "" {
		slog.Warn("no API token configured; HTTP API is unauthenticated", "token_env", a.cfg.Server.APITokenEnv)
	}

	handler := api.NewAppHandler(api.AppDeps{
		Pipeline: a.pipeline,
		Cache:    a.cache,
		Store:    a.store,
		Profiles: a.profiles,
		Token:    token,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", a.cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// MCP server over stdio.
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Pipeline: a.pipeline,
		Cache:    a.cache,
		Store:    a.store,
		Profiles: a.profiles,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "prism listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func showStatus() error {
	path, err := config.ResolveConfigPath(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	// Check for a running server.
	client := &http.Client{Timeout: 2 * time.Second}
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	if resp, err := client.Get(healthURL); err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Model", "%s at %s", cfg.LLM.Model, cfg.LLM.BaseURL)
	if cfg.APIKey() == "" {
		printWarning("no LLM API key in %s; perspectives fall back to placeholders", cfg.LLM.APIKeyEnv)
	} else {
		printStatus("LLM key", "set (%s)", cfg.LLM.APIKeyEnv)
	}

	if cases, err := dataset.Load(cfg.Dataset.Path); err != nil {
		printWarning("dataset unavailable at %s", cfg.Dataset.Path)
	} else {
		printStatus("Dataset", "%d cases, %d users", len(cases), len(dataset.UserProfiles(cases)))
	}

	if store, err := storage.Open(cfg.GetDataDir()); err != nil {
		printStatus("Storage", "unavailable (%v)", err)
	} else {
		defer store.Close()
		if stats, err := store.GatherCacheStats(); err == nil {
			printStatus("Cache", "%d entries, %d hits", stats.TotalEntries, stats.TotalHits)
		}
		if interactions, err := store.ListInteractions(100, ""); err == nil {
			printStatus("Interactions", "%s", countLabel(len(interactions), 100))
		}
	}

	printStatus("Data dir", "%s", cfg.GetDataDir())
	return nil
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}
