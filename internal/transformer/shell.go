package transformer

import (
	"fmt"
	"os/exec"

	"github.com/adobe/asset-compute-pipeline/internal/manifest"
)

// ShellTransformer adapts an external executable to the Transformer
// contract: Compute shells out to Command with the step's working
// directory as cwd, passing INPUT_PATH/INPUT_URL and OUTPUT_PATH as
// environment variables. This is the pipeline's equivalent of the
// teacher's provider-script invocation, generalized from "apply a
// Kubernetes manifest" to "run one conversion step" (spec.md §1: the
// core schedules transformers, it does not itself transform bytes).
type ShellTransformer struct {
	name     string
	manifest manifest.Manifest
	command  string
}

// NewShellTransformer returns a Transformer named name, declaring man,
// that runs command to produce its rendition.
func NewShellTransformer(name string, man manifest.Manifest, command string) *ShellTransformer {
	return &ShellTransformer{name: name, manifest: man, command: command}
}

func (s *ShellTransformer) Name() string               { return s.name }
func (s *ShellTransformer) Manifest() manifest.Manifest { return s.manifest }

// Compute implements Transformer.
func (s *ShellTransformer) Compute(ctx Context, input, output map[string]any) error {
	path, _ := input["path"].(string)
	url, _ := input["url"].(string)
	outPath, _ := output["path"].(string)

	cmd := exec.CommandContext(ctx, s.command)
	cmd.Dir = ctx.Directory()
	cmd.Env = append(cmd.Env,
		"INPUT_PATH="+path,
		"INPUT_URL="+url,
		"OUTPUT_PATH="+outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %s: %w: %s", s.command, err, out)
	}
	return nil
}
