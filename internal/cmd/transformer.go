package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adobe/asset-compute-pipeline/internal/attribute"
	"github.com/adobe/asset-compute-pipeline/internal/manifest"
	"github.com/adobe/asset-compute-pipeline/internal/output"
	"github.com/adobe/asset-compute-pipeline/internal/transformer"
)

var transformerDirFlag string

// NewTransformerCmd creates the transformer command group.
func NewTransformerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transformer",
		Short: "Inspect registered transformers",
	}
	cmd.PersistentFlags().StringVar(&transformerDirFlag, "dir", "./transformers", "Directory of transformer subdirectories")
	cmd.AddCommand(newTransformerListCmd())
	cmd.AddCommand(newTransformerVetCmd())
	return cmd
}

func newTransformerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List transformers registered from --dir",
		RunE:  runTransformerList,
	}
}

func runTransformerList(cmd *cobra.Command, args []string) error {
	loaded, err := transformer.LoadDir(transformerDirFlag)
	if err != nil {
		return NewExitError(err, ExitGeneralError)
	}

	rows := make([]output.TransformerRow, 0, len(loaded))
	for _, t := range loaded {
		man := t.Manifest()
		rows = append(rows, output.TransformerRow{
			Name:   t.Name(),
			Input:  summarizeDict(man.Inputs),
			Output: summarizeDict(man.Outputs),
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), output.RenderTransformerTable(rows))
	return nil
}

func newTransformerVetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate every transformer's manifest against the manifest schema",
		RunE:  runTransformerVet,
	}
}

func runTransformerVet(cmd *cobra.Command, args []string) error {
	entries, err := os.ReadDir(transformerDirFlag)
	if err != nil {
		return NewExitError(fmt.Errorf("reading %s: %w", transformerDirFlag, err), ExitGeneralError)
	}

	validator, err := manifest.NewCUEValidator()
	if err != nil {
		return NewExitError(err, ExitGeneralError)
	}

	loaded, err := transformer.LoadDir(transformerDirFlag)
	if err != nil {
		return NewExitError(err, ExitGeneralError)
	}
	byName := make(map[string]*transformer.ShellTransformer, len(loaded))
	for _, t := range loaded {
		byName[t.Name()] = t
	}

	failed := false
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		t, ok := byName[e.Name()]
		if !ok {
			output.Error(fmt.Sprintf("%s: manifest could not be loaded", e.Name()))
			failed = true
			continue
		}
		if err := validator.ValidateManifest(t.Manifest()); err != nil {
			output.Error(fmt.Sprintf("%s: %v", e.Name(), err))
			failed = true
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), output.FormatVetCheck(e.Name(), filepath.Join(transformerDirFlag, e.Name())))
	}

	if failed {
		return NewExitError(fmt.Errorf("one or more transformer manifests failed validation"), ExitGeneralError)
	}
	return nil
}

func summarizeDict(d attribute.Dict) string {
	s := ""
	for _, name := range attribute.SortedNames(d) {
		if name == manifest.SourceTypeAttr {
			continue
		}
		if s != "" {
			s += ", "
		}
		s += fmt.Sprintf("%s=%v", name, dictExprString(d[name]))
	}
	return s
}

func dictExprString(expr attribute.Expression) any {
	switch expr.Kind {
	case attribute.KindValue:
		return expr.Value
	case attribute.KindList:
		return expr.List
	case attribute.KindRange:
		return fmt.Sprintf("[%v,%v]", expr.Range.Min, expr.Range.Max)
	default:
		return "*"
	}
}
