package logger

import (
	"os"
	"path/filepath"
	"testing"

	"lmp_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		mode, level string
		want        zapcore.Level
	}{
		{mode: "debug", want: zap.DebugLevel},
		{mode: "release", want: zap.InfoLevel},
		{mode: "debug", level: "warn", want: zap.WarnLevel},
	}
	for _, tc := range tests {
		cfg := &config.Config{}
		cfg.Server.Mode = tc.mode
		cfg.Log.Level = tc.level
		assert.Equal(t, tc.want, level(cfg), "%s/%s", tc.mode, tc.level)
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	cfg := &config.Config{}
	cfg.Server.Mode = "release"
	cfg.Log.File = file
	cfg.Log.MaxSizeMB = 1

	log := New(cfg)
	log.Debug("hidden")
	log.Info("attempt started", zap.Uint("testID", 3))
	_ = log.Sync() // stdout 为管道时 Sync 会报错

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"attempt started"`)
	assert.Contains(t, string(data), `"testID":3`)
	assert.NotContains(t, string(data), "hidden")
}
