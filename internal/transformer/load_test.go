package transformer_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/asset-compute-pipeline/internal/transformer"
)

func writeTransformerDir(t *testing.T, root, name, manifestJSON string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifestJSON), 0o644))

	script := "#!/bin/sh\ncp \"$INPUT_PATH\" \"$OUTPUT_PATH\"\n"
	scriptPath := filepath.Join(dir, "transform")
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o755))
}

func TestLoadDir_RegistersOneTransformerPerSubdirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not portable to windows")
	}

	root := t.TempDir()
	writeTransformerDir(t, root, "jpeg-to-png", `{"inputs":{"type":"image/jpeg"},"outputs":{"type":"image/png"}}`)
	writeTransformerDir(t, root, "png-to-webp", `{"inputs":{"type":"image/png"},"outputs":{"type":"image/webp"}}`)

	loaded, err := transformer.LoadDir(root)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestLoadDir_MissingTransformScriptFails(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{"inputs":{},"outputs":{}}`), 0o644))

	_, err := transformer.LoadDir(root)
	assert.Error(t, err)
}

func TestLoadDir_MissingManifestFails(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transform"), []byte("#!/bin/sh\n"), 0o755))

	_, err := transformer.LoadDir(root)
	assert.Error(t, err)
}
