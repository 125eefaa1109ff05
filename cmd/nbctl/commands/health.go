package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nifiops/nifibridge/cmd/nbctl/cmdutil"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the bridge server is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cmdutil.GetClient()
		if err != nil {
			return err
		}
		if err := client.Health(); err != nil {
			return fmt.Errorf("bridge is not healthy: %w", err)
		}
		fmt.Println("Bridge is healthy.")
		return nil
	},
}
