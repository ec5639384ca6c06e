package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
data:
  source: file
  path: data/prices.csv
`))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "date", cfg.Data.DateColumn)
	assert.Equal(t, "close", cfg.Data.CloseColumn)
	assert.InDelta(t, 100000, cfg.Trading.InitialCapital, 1e-9)
	assert.Equal(t, int64(100), cfg.Trading.Unit)
	assert.Equal(t, 4, cfg.Runner.MaxConcurrent)
	assert.Equal(t, "configs/strategies.yaml", cfg.Profiles.Path)
	assert.Equal(t, ":9991", cfg.Server.Addr)
	assert.False(t, cfg.Server.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  log_level: debug
data:
  source: binance
  symbol: BTCUSDT
  start: "2023-01-01"
  end: "2024-01-01"
trading:
  initial_capital: 5000
  commission: 0.0008
  unit: 10
server:
  enabled: true
  addr: ":8080"
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "binance", cfg.Data.Source)
	assert.InDelta(t, 5000, cfg.Trading.InitialCapital, 1e-9)
	assert.InDelta(t, 0.0008, cfg.Trading.Commission, 1e-12)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unknown source", "data:\n  source: ftp\n"},
		{"file requires path", "data:\n  source: file\n"},
		{"binance requires symbol", "data:\n  source: binance\n  start: \"2023-01-01\"\n  end: \"2024-01-01\"\n"},
		{"binance bad date", "data:\n  source: binance\n  symbol: BTCUSDT\n  start: 01/2023\n  end: \"2024-01-01\"\n"},
		{"negative commission", "data:\n  source: file\n  path: p.csv\ntrading:\n  commission: -1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
