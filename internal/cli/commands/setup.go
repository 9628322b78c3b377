// Package commands implements the ssykroll subcommands.
package commands

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-data/05-employed-occupation-by-ai/internal/cli/output"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/config"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/engine"
	"github.com/joseph-data/05-employed-occupation-by-ai/internal/metrics"
)

// errNoConfig is returned when a command runs without the root command
// having loaded configuration.
var errNoConfig = errors.New("configuration not loaded")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Metrics  *metrics.Metrics
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return nil, nil, err
	}

	cmdCtx.Metrics = metrics.New()
	eng, err := engine.New(engine.Config{
		Project:   cmdCtx.Cfg.Project(),
		CachePath: cmdCtx.Cfg.CachePath,
		Metrics:   cmdCtx.Metrics,
		Logger:    cmdCtx.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Engine = eng

	cleanup := func() {
		if err := eng.Close(); err != nil {
			cmdCtx.Logger.Warn("failed to close engine", "error", err)
		}
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need the pipeline or the cache.
func NewCommandContextWithoutEngine(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, errNoConfig
	}
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: r,
	}, nil
}
