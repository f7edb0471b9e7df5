package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textmill/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "textmill-tasks", cfg.Storage.Bucket)
	assert.Equal(t, int64(100), cfg.Storage.MaxFileSizeMB)

	assert.True(t, cfg.OCR.Enabled)
	assert.Equal(t, "baidu", cfg.OCR.Engine)
	assert.Equal(t, "chi_sim+eng", cfg.OCR.Languages)
	assert.Equal(t, 30, cfg.OCR.TimeoutSecs)
	assert.Empty(t, cfg.OCR.BaiduAPIKey)

	assert.Equal(t, "qwen-vl-plus", cfg.Vision.DefaultModel)
	assert.Equal(t, 60, cfg.Vision.TimeoutSecs)

	assert.Equal(t, 10, cfg.Extract.MinTextLength)
	assert.Equal(t, 4, cfg.Extract.Workers)
	assert.InDelta(t, 0.4, cfg.Extract.ConfidenceWeight, 1e-9)
	assert.InDelta(t, 0.1, cfg.Extract.TieBand, 1e-9)
	assert.InDelta(t, 1.5, cfg.Extract.DominanceRatio, 1e-9)

	assert.True(t, cfg.Cleanup.Enabled)
	assert.Equal(t, 168, cfg.Cleanup.RetentionHours)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TEXTMILL_SERVER_PORT", ":9090")
	t.Setenv("TEXTMILL_STORAGE_BACKEND", "s3")
	t.Setenv("TEXTMILL_OCR_ENABLED", "false")
	t.Setenv("TEXTMILL_OCR_ENGINE", "tesseract")
	t.Setenv("TEXTMILL_OCR_BAIDU_API_KEY", "baidu-id")
	t.Setenv("TEXTMILL_EXTRACT_MIN_TEXT_LENGTH", "25")
	t.Setenv("TEXTMILL_VISION_API_KEY", "sk-test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.False(t, cfg.OCR.Enabled)
	assert.Equal(t, "tesseract", cfg.OCR.Engine)
	assert.Equal(t, "baidu-id", cfg.OCR.BaiduAPIKey)
	assert.Equal(t, 25, cfg.Extract.MinTextLength)
	assert.Equal(t, "sk-test", cfg.Vision.APIKey)
}
