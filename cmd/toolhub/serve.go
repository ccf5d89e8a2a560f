package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/llmtoolhub/toolhub-mcp-go/audit"
	"github.com/llmtoolhub/toolhub-mcp-go/config"
	"github.com/llmtoolhub/toolhub-mcp-go/logger"
	"github.com/llmtoolhub/toolhub-mcp-go/ops"
	"github.com/llmtoolhub/toolhub-mcp-go/server"
	"github.com/llmtoolhub/toolhub-mcp-go/tools"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/fsops"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/research"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/shell"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/types"
	"github.com/llmtoolhub/toolhub-mcp-go/transport/stdio"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logger.Init(
		logger.GetLevelFromString(cfg.Logging.Level),
		logger.Format(cfg.Logging.Format),
		cfg.Logging.Path,
	); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	logger.Info("Starting tool hub server", "name", cfg.Name, "version", cfg.Version, "config", cfgPath)

	watcher, err := config.Watch(cfgPath)
	if err != nil {
		logger.Warn("Config watcher unavailable", "error", err)
	} else {
		defer watcher.Close()
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	var store *audit.Store
	if cfg.Audit.Enabled {
		store, err = audit.Open(cfg.Audit.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Info("Invocation trail enabled", "path", cfg.Audit.Path)
	}

	opts := server.Options{Name: cfg.Name, Version: cfg.Version}
	if store != nil {
		opts.Recorder = store
	}
	srv := server.New(stdio.New(), registry, opts)

	if cfg.Ops.Enabled {
		opsServer := ops.NewServer(cfg.Name, cfg.Version, registry, store)
		addr := fmt.Sprintf("%s:%d", cfg.Ops.Host, cfg.Ops.Port)
		go func() {
			if err := opsServer.Start(addr); err != nil {
				logger.Warn("Diagnostics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = opsServer.Shutdown(shutdownCtx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildRegistry assembles the tool set enabled by config.
func buildRegistry(cfg *config.Config) (*tools.Manager, error) {
	registry := tools.NewManager()

	if cfg.Tools.ShellEnabled {
		shellTool, err := shell.New(shell.Options{
			RootPath:       cfg.Tools.RootPath,
			DefaultTimeout: time.Duration(cfg.Tools.DefaultTimeoutSeconds) * time.Second,
			MaxOutput:      cfg.Tools.MaxOutputChars,
		})
		if err != nil {
			return nil, err
		}
		if err := registry.Register(shellTool); err != nil {
			return nil, err
		}
	}

	if cfg.Tools.FilesystemEnabled {
		root, err := fsops.NewRoot(cfg.Tools.RootPath, cfg.Tools.UnsafeMode)
		if err != nil {
			return nil, err
		}
		fsTools := []types.Tool{
			fsops.NewReadFileTool(root),
			fsops.NewCreateFileTool(root),
			fsops.NewModifyFileTool(root),
		}
		for _, tool := range fsTools {
			if err := registry.Register(tool); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Tools.ResearchEnabled {
		researchOpts := research.Options{Email: cfg.Tools.UnpaywallEmail}
		researchTools := []types.Tool{
			research.NewPaperSearchTool(researchOpts),
			research.NewUnpaywallTool(researchOpts),
		}
		for _, tool := range researchTools {
			if err := registry.Register(tool); err != nil {
				return nil, err
			}
		}
	}

	return registry, nil
}
