package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePipelineFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_ValidFile(t *testing.T) {
	path := writePipelineFile(t, `
stages:
  - graph_traverser
  - chatml_converter
`)

	stdout, _, err := execCommand(t, NewValidateCommand(), nil, "--file", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "valid (2 stages)")
}

func TestValidate_UnavailableStage(t *testing.T) {
	path := writePipelineFile(t, `
stages:
  - graph_traverser
  - evaluator
`)

	_, _, err := execCommand(t, NewValidateCommand(), nil, "--file", path)
	assert.ErrorContains(t, err, "stage not available: evaluator")
}

func TestValidate_FinetunerWithoutBaseModel(t *testing.T) {
	path := writePipelineFile(t, `
stages:
  - finetuner
`)

	_, _, err := execCommand(t, NewValidateCommand(), nil, "--file", path)
	assert.ErrorContains(t, err, "no base model configured")
}

func TestValidate_MissingFile(t *testing.T) {
	_, _, err := execCommand(t, NewValidateCommand(), nil,
		"--file", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read pipeline config")
}
