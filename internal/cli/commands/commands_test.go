package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/nimeshaperi/Autodistil-KG-client/internal/cli/config"
	"github.com/nimeshaperi/Autodistil-KG-client/internal/cli/output"
	"github.com/nimeshaperi/Autodistil-KG-client/internal/testutil"
)

// execCommand runs a subcommand with a fully populated context, the way the
// root command's PersistentPreRunE would set one up.
func execCommand(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{
			ServerURL:    config.DefaultServerURL,
			OutputFormat: "text",
			ArtifactDir:  t.TempDir(),
		}
	}

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	ctx := context.Background()
	ctx = context.WithValue(ctx, ConfigKey{}, cfg)
	ctx = context.WithValue(ctx, RendererKey{}, output.NewRenderer(out, errOut, output.Mode(cfg.OutputFormat)))
	ctx = context.WithValue(ctx, LoggerKey{}, testutil.NewTestLogger(t))

	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}
