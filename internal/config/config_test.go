package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: nrz\ntick_ms: 20\nspi:\n  port: SPI0.0\n"), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nrz", c.Driver)
	assert.Equal(t, 20, c.TickMS)
	assert.Equal(t, "SPI0.0", c.SPI.Port)
	assert.Equal(t, 60, c.Ring.Size, "unset fields keep defaults")
	assert.Len(t, c.Matrix.SegmentPins, 12)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armio.yaml")
	c := Default()
	c.Seed = 42
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadRejectsBadDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: pwm\n"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown driver")
}

func TestEnvFileAndProcessEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ARMIO_DRIVER=matrix\nARMIO_TICK_MS=5\n"), 0644))
	t.Setenv("ARMIO_TICK_MS", "8")

	env, err := Env(path)
	require.NoError(t, err)
	assert.Equal(t, "matrix", env["ARMIO_DRIVER"])
	assert.Equal(t, "8", env["ARMIO_TICK_MS"], "process environment wins")

	c := Default()
	require.NoError(t, c.ApplyEnv(env))
	assert.Equal(t, "matrix", c.Driver)
	assert.Equal(t, 8, c.TickMS)
}

func TestEnvMissingFile(t *testing.T) {
	_, err := Env(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}

func TestApplyEnvErrors(t *testing.T) {
	c := Default()
	assert.Error(t, c.ApplyEnv(map[string]string{"ARMIO_CAPACITY": "lots"}))
	c = Default()
	assert.Error(t, c.ApplyEnv(map[string]string{"ARMIO_SEED": "x"}))
	c = Default()
	assert.Error(t, c.ApplyEnv(map[string]string{"ARMIO_TICK_MS": "0"}))
	c = Default()
	require.NoError(t, c.ApplyEnv(map[string]string{"ARMIO_SEED": "7", "ARMIO_ADDR": ":9000"}))
	assert.Equal(t, int64(7), c.Seed)
	assert.Equal(t, ":9000", c.Addr)
}
