package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addConfigFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "armio.yaml")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(cfgPath, []byte("driver: nrz\ntick_ms: 20\ncapacity: 8\n"), 0644))
	require.NoError(t, os.WriteFile(envPath, []byte("ARMIO_TICK_MS=15\nARMIO_SEED=3\n"), 0644))

	cfg, err := loadConfig(parse(t, "--config", cfgPath, "--env", envPath, "--driver", "sim"))
	require.NoError(t, err)
	assert.Equal(t, "sim", cfg.Driver, "flag beats file")
	assert.Equal(t, 15, cfg.TickMS, "env beats file")
	assert.Equal(t, int64(3), cfg.Seed)
	assert.Equal(t, 8, cfg.Capacity)
}

func TestLoadConfigMissingDefaultFile(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := loadConfig(parse(t))
	require.NoError(t, err)
	assert.Equal(t, "sim", cfg.Driver)

	_, err = loadConfig(parse(t, "--config", "nope.yaml"))
	assert.Error(t, err, "an explicit config path must exist")
}

func TestLoadConfigRejectsBadFlags(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := loadConfig(parse(t, "--tick-ms", "0"))
	assert.Error(t, err)
}

func TestLoadShow(t *testing.T) {
	p, err := loadShow("", 60)
	require.NoError(t, err)
	assert.Equal(t, "startup", p.Cues[0].Name)
	assert.Equal(t, 240, p.Cues[0].Distance)

	_, err = loadShow(filepath.Join(t.TempDir(), "missing.yaml"), 60)
	assert.Error(t, err)
}

func TestWithCORS(t *testing.T) {
	h := withCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
