package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecondsToDuration(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, secondsToDuration(0.5))
	assert.Equal(t, 300*time.Millisecond, secondsToDuration(0.3))
	assert.Equal(t, time.Duration(0), secondsToDuration(0))
}

func TestConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	InitConfig()

	cfg, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 30, cfg.Analysis.ChunkSize)
	assert.Equal(t, 0.5, cfg.Analysis.ChunkPauseSec)
	assert.Equal(t, 0.3, cfg.Analysis.TaskPauseSec)
	assert.Equal(t, 10, cfg.Analysis.ResponseWindow)
	assert.Equal(t, "reports", cfg.Reports.Dir)
	assert.Equal(t, "json", cfg.Reports.Format)
}
