package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var (
		file string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a pipeline configuration for external use",
		Long: `Serialize a pipeline configuration to a file without involving the
service. The output format is chosen by the target extension (.json, .yaml).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, file, out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Pipeline config file to export (default: built-in defaults)")
	cmd.Flags().StringVar(&out, "out", "pipeline_config.json", "Destination file")
	return cmd
}

func runExport(cmd *cobra.Command, file, out string) error {
	var cfg *pipeline.Config
	if file != "" {
		loaded, err := pipeline.LoadConfigFile(file)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = pipeline.DefaultConfig()
	}
	cfg.Normalize()

	format := strings.TrimPrefix(filepath.Ext(out), ".")
	if format == "yml" {
		format = "yaml"
	}
	data, err := cfg.MarshalExport(format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	getRenderer(cmd.Context()).Infof("Exported pipeline config to %s", out)
	return nil
}
