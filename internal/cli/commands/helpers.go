// Package commands implements the adkg subcommands.
package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/nimeshaperi/Autodistil-KG-client/internal/cli/config"
	"github.com/nimeshaperi/Autodistil-KG-client/internal/cli/output"
	"github.com/nimeshaperi/Autodistil-KG-client/internal/client"
)

// Context keys shared with the root command, which stores the resolved
// config, renderer, and logger before any subcommand runs.
type (
	ConfigKey   struct{}
	RendererKey struct{}
	LoggerKey   struct{}
)

func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(ConfigKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		ServerURL:    config.DefaultServerURL,
		OutputFormat: config.DefaultOutput,
		ArtifactDir:  config.DefaultArtifactDir,
	}
}

func getRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(RendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

func newClient(cmd *cobra.Command) *client.Client {
	ctx := cmd.Context()
	return client.New(client.Options{
		BaseURL:    getConfig(ctx).ServerURL,
		HTTPClient: &http.Client{},
		Logger:     getLogger(ctx),
	})
}
