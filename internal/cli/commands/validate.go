package commands

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var (
		file  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a pipeline configuration file",
		Long: `Load, normalize, and validate a pipeline configuration file.

With --watch, keeps watching the file and re-validates on every change.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, file, watch)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "pipeline.yaml", "Pipeline config file")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-validate on file changes")
	return cmd
}

func runValidate(cmd *cobra.Command, file string, watch bool) error {
	renderer := getRenderer(cmd.Context())

	if !watch {
		return validateOnce(cmd, file)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file itself: editors replace
	// files on save, which drops a watch on the file path.
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", file, err)
	}

	if err := validateOnce(cmd, file); err != nil {
		renderer.Errorf("%v", err)
	}
	renderer.Infof("Watching %s for changes...", file)

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(file) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := validateOnce(cmd, file); err != nil {
				renderer.Errorf("%v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			getLogger(cmd.Context()).Warn("watch error", "error", err)
		}
	}
}

func validateOnce(cmd *cobra.Command, file string) error {
	cfg, err := pipeline.LoadConfigFile(file)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	getRenderer(cmd.Context()).Infof("%s: valid (%d stages)", file, len(cfg.Stages))
	return nil
}
