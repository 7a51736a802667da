package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	planpkg "github.com/adobe/asset-compute-pipeline/internal/plan"
	"github.com/adobe/asset-compute-pipeline/internal/plandiff"
)

var planDiffColorFlag bool

// NewPlanCmd creates the plan command group.
func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect and compare serialized plans",
	}
	cmd.AddCommand(newPlanDiffCmd())
	return cmd
}

func newPlanDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <before.json> <after.json>",
		Short: "Diff two plan snapshots produced by plan.Plan.ToObject",
		Args:  cobra.ExactArgs(2),
		RunE:  runPlanDiff,
	}
	cmd.Flags().BoolVar(&planDiffColorFlag, "color", false, "Colorize the diff output")
	return cmd
}

func runPlanDiff(cmd *cobra.Command, args []string) error {
	before, err := readPlanNodes(args[0])
	if err != nil {
		return NewExitError(err, ExitGeneralError)
	}
	after, err := readPlanNodes(args[1])
	if err != nil {
		return NewExitError(err, ExitGeneralError)
	}

	result, err := plandiff.Diff(before, after, plandiff.Options{UseColor: planDiffColorFlag})
	if err != nil {
		return NewExitError(fmt.Errorf("diffing plans: %w", err), ExitGeneralError)
	}

	if !result.HasChanges {
		fmt.Fprintln(cmd.OutOrStdout(), "no changes")
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), result.Report)
	return nil
}

func readPlanNodes(path string) ([]*planpkg.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var nodes []*planpkg.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return nodes, nil
}
