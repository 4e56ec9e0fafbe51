package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nimeshaperi/Autodistil-KG-client/internal/client"
)

// NewArtifactCommand creates the artifact command.
func NewArtifactCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "artifact <run-id> <key>",
		Short: "Fetch a run output artifact",
		Long: `Fetch a named output artifact from a completed run and save it locally.

Known artifact keys: chatml, prepared. The filename comes from the service's
Content-Disposition header when present, else a fixed default per key.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifact(cmd, args[0], client.ArtifactKey(args[1]), dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to save into (default: configured artifact dir)")
	return cmd
}

func runArtifact(cmd *cobra.Command, runID string, key client.ArtifactKey, dir string) error {
	c := newClient(cmd)
	renderer := getRenderer(cmd.Context())

	if dir == "" {
		dir = getConfig(cmd.Context()).ArtifactDir
	}

	a, err := c.FetchArtifact(cmd.Context(), runID, key)
	if err != nil {
		return fmt.Errorf("failed to fetch artifact %s: %w", key, err)
	}

	path, err := client.SaveArtifact(a, dir)
	if err != nil {
		return err
	}
	renderer.Infof("Saved artifact %s to %s (%d bytes)", key, path, len(a.Data))
	return nil
}
