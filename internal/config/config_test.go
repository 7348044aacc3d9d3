package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/serialstat/internal/config"
	"codeberg.org/mutker/serialstat/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("SERIALSTAT_CONFIG", "")
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "serialstat.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
interval = "2s"
baud = 115200
backoff = "3s"
attempt_limit = 4
dwell = 7
screens = ["gpu", "system", "power"]
vendor_ids = ["0x2341", "1a86"]
log_level = "debug"
glyph_charging = "+"
metrics_listen = ":9110"

[dwell_overrides]
gpu = 2
`)
	t.Setenv("SERIALSTAT_CONFIG", path)

	cfg, err := config.Load(config.WithArgs(nil))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 3*time.Second, cfg.Backoff)
	assert.Equal(t, 4, cfg.AttemptLimit)
	assert.Equal(t, 7, cfg.Dwell)
	assert.Equal(t, []string{"system", "gpu", "power"}, cfg.Screens, "system screen is moved to the front")
	assert.Equal(t, []string{"2341", "1A86"}, cfg.VendorIDs)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "+", cfg.Glyphs.Charging)
	assert.Equal(t, "&", cfg.Glyphs.Discharging)
	assert.Equal(t, ":9110", cfg.MetricsListen)
	assert.Equal(t, 2, cfg.DwellFor("gpu"))
	assert.Equal(t, 7, cfg.DwellFor("power"))
	assert.Empty(t, cfg.Device)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load(config.WithArgs(nil))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, 9600, cfg.Baud)
	assert.Equal(t, 5*time.Second, cfg.Backoff)
	assert.Equal(t, 5, cfg.AttemptLimit)
	assert.Equal(t, 5, cfg.Dwell)
	assert.Equal(t, config.KnownScreens, cfg.Screens)
	assert.Equal(t, config.DefaultVendorIDs, cfg.VendorIDs)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "`", cfg.Glyphs.Charging)
	assert.Equal(t, "&", cfg.Glyphs.Discharging)
	assert.Equal(t, "^C", cfg.Glyphs.Degree)
	assert.Empty(t, cfg.MetricsListen)
	assert.Empty(t, cfg.DeviceDB)
}

func TestPositionalDevice(t *testing.T) {
	isolate(t)

	cfg, err := config.Load(config.WithArgs([]string{"COM7"}))
	require.NoError(t, err)
	assert.Equal(t, "COM7", cfg.Device)
}

func TestFlagsOverrideFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
baud = 115200
log_level = "error"
`)

	cfg, err := config.Load(
		config.WithConfigFile(path),
		config.WithArgs([]string{"--log-level", "debug", "--interval", "500ms", "/dev/ttyACM0"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 500*time.Millisecond, cfg.Interval)
	assert.Equal(t, "/dev/ttyACM0", cfg.Device)
}

func TestVendorIDsNormalized(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
vendor_ids = ["0x2341", "0X1a86", " 0403 ", ""]
`)

	cfg, err := config.Load(config.WithConfigFile(path), config.WithArgs(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"2341", "1A86", "0403"}, cfg.VendorIDs)
}

func TestEnvOverridesDefault(t *testing.T) {
	isolate(t)
	t.Setenv("SERIALSTAT_BAUD", "57600")

	cfg, err := config.Load(config.WithArgs(nil))
	require.NoError(t, err)
	assert.Equal(t, 57600, cfg.Baud)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
This is not a valid TOML file
`)

	_, err := config.Load(config.WithConfigFile(path), config.WithArgs(nil))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
log_level = "invalid"
`)

	_, err := config.Load(config.WithConfigFile(path), config.WithArgs(nil))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestUnknownScreen(t *testing.T) {
	isolate(t)

	_, err := config.Load(config.WithArgs([]string{"--screens", "system,weather"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather")
}

func TestInvalidInterval(t *testing.T) {
	isolate(t)

	_, err := config.Load(config.WithArgs([]string{"--interval", "0s"}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval))
}
