package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/go-activity-timeline/internal/config"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables read at startup",
	Long: `Print every ACTIVITY_TIMELINE_* variable with its type and default.
Values may also be placed in a .env file in the working directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return config.Usage(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
}
