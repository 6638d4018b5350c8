package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lmp_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConfig_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	write := func(wait string) {
		body := []byte(`
database: {host: h, port: 1, dbname: d}
jwt: {secret: s}
testing: {lock_wait_ms: ` + wait + `}
`)
		require.NoError(t, os.WriteFile(file, body, 0o644))
	}
	write("100")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, file, 20*time.Millisecond, func(cfg *config.Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// 等待 watcher 就绪后再写入
	time.Sleep(100 * time.Millisecond)
	write("250")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 250*time.Millisecond, cfg.Testing.LockWait())
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
