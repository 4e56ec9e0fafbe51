package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewHealthCommand creates the health command.
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check pipeline service availability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient(cmd)
			status, err := c.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("service unreachable at %s: %w", c.BaseURL(), err)
			}
			getRenderer(cmd.Context()).Infof("Service at %s is %s", c.BaseURL(), status)
			return nil
		},
	}
}
