package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Normalize_CanonicalOrder(t *testing.T) {
	cfg := &Config{Stages: []Stage{StageFinetuner, StageGraphTraverser, StageChatMLConverter}}
	cfg.Normalize()

	assert.Equal(t, []Stage{StageGraphTraverser, StageChatMLConverter, StageFinetuner}, cfg.Stages)
}

func TestConfig_Normalize_DropsDuplicatesAndUnknown(t *testing.T) {
	cfg := &Config{Stages: []Stage{StageFinetuner, StageFinetuner, Stage("bogus"), StageGraphTraverser}}
	cfg.Normalize()

	assert.Equal(t, []Stage{StageGraphTraverser, StageFinetuner}, cfg.Stages)
}

func TestConfig_ToggleStage(t *testing.T) {
	cfg := &Config{Stages: []Stage{StageGraphTraverser}}

	cfg.ToggleStage(StageFinetuner)
	assert.Equal(t, []Stage{StageGraphTraverser, StageFinetuner}, cfg.Stages)

	cfg.ToggleStage(StageFinetuner)
	assert.Equal(t, []Stage{StageGraphTraverser}, cfg.Stages)
}

func TestConfig_ToggleStage_UnavailableIsNoOp(t *testing.T) {
	cfg := &Config{Stages: []Stage{StageGraphTraverser}}

	cfg.ToggleStage(StageEvaluator)
	assert.Equal(t, []Stage{StageGraphTraverser}, cfg.Stages)

	cfg.ToggleStage(Stage("nonsense"))
	assert.Equal(t, []Stage{StageGraphTraverser}, cfg.Stages)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	empty := &Config{}
	assert.Error(t, empty.Validate())

	noModel := &Config{Stages: []Stage{StageFinetuner}}
	assert.Error(t, noModel.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	content := `stages:
  - finetuner
  - graph_traverser
graph_traverser:
  graph_path: kg.json
  max_depth: 2
  num_walks: 50
finetuner:
  base_model: llama-3-8b
  epochs: 1
  learning_rate: 0.0002
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	// Order is normalized on load, not taken from the file.
	assert.Equal(t, []Stage{StageGraphTraverser, StageFinetuner}, cfg.Stages)
	require.NotNil(t, cfg.GraphTraverser)
	assert.Equal(t, "kg.json", cfg.GraphTraverser.GraphPath)
	assert.Equal(t, 2, cfg.GraphTraverser.MaxDepth)
	require.NotNil(t, cfg.Finetuner)
	assert.Equal(t, "llama-3-8b", cfg.Finetuner.BaseModel)
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_MarshalExport(t *testing.T) {
	cfg := DefaultConfig()

	jsonData, err := cfg.MarshalExport("json")
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"graph_traverser"`)

	yamlData, err := cfg.MarshalExport("yaml")
	require.NoError(t, err)
	assert.Contains(t, string(yamlData), "graph_traverser")

	_, err = cfg.MarshalExport("toml")
	assert.Error(t, err)
}
