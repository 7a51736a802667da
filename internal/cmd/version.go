package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adobe/asset-compute-pipeline/internal/output"
	"github.com/adobe/asset-compute-pipeline/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and tool compatibility information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			output.Print(info.String())

			tools := version.DetectTools()
			for _, w := range tools.Warnings() {
				output.Warn(w)
			}
			return nil
		},
	}
}
