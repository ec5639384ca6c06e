package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tauro/internal/strategy"
)

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleProfiles = `
strategies:
  ma_5_20:
    type: ma_cross
    params:
      short_window: 5
      long_window: 20
  rsi_14:
    type: rsi
    params:
      period: 14
      overbought: 80
      oversold: 20
      commission: 0.001
  paused:
    type: rsi
    disabled: true
`

func TestLoaderSnapshot(t *testing.T) {
	loader, err := NewLoader(writeProfiles(t, sampleProfiles))
	require.NoError(t, err)

	snap := loader.Snapshot()
	require.Len(t, snap.Profiles, 3)
	assert.Equal(t, TypeMACross, snap.Profiles["ma_5_20"].Type)
	assert.True(t, snap.Profiles["paused"].Disabled)
	assert.Equal(t, int64(1), snap.Version)
}

func TestLoaderSkipsInvalidProfiles(t *testing.T) {
	loader, err := NewLoader(writeProfiles(t, `
strategies:
  good:
    type: rsi
  no_type:
    params:
      period: 14
  bad_schema:
    type: ma_cross
    params:
      short_window: 0
  unknown:
    type: bollinger
`))
	require.NoError(t, err)

	snap := loader.Snapshot()
	require.Len(t, snap.Profiles, 1)
	_, ok := snap.Profiles["good"]
	assert.True(t, ok)
}

func TestLoaderRejectsMissingPath(t *testing.T) {
	_, err := NewLoader("")
	assert.Error(t, err)
	_, err = NewLoader(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoaderRejectsBrokenYAML(t *testing.T) {
	_, err := NewLoader(writeProfiles(t, "strategies: [broken"))
	assert.Error(t, err)
}

func TestBuildStrategies(t *testing.T) {
	loader, err := NewLoader(writeProfiles(t, sampleProfiles))
	require.NoError(t, err)

	base := strategy.Params{InitialCapital: 50000, Commission: 0.0003, Unit: 100}
	strategies, err := BuildStrategies(loader.Snapshot(), base)
	require.NoError(t, err)
	require.Len(t, strategies, 2, "禁用的档案不实例化")

	// 按档案名排序
	assert.Equal(t, "ma_5_20", strategies[0].Name())
	assert.Equal(t, "rsi_14", strategies[1].Name())

	// 共享约束沿用全局配置，档案可逐项覆盖
	assert.Equal(t, int64(100), strategies[0].UnitSize())
	assert.InDelta(t, 0.0003, strategies[0].CommissionRate(), 1e-12)
	assert.InDelta(t, 0.001, strategies[1].CommissionRate(), 1e-12)
}

func TestBuildStrategiesEmpty(t *testing.T) {
	_, err := BuildStrategies(Snapshot{}, strategy.Params{})
	assert.Error(t, err)
}

func TestValidateParamsUnknownType(t *testing.T) {
	assert.Error(t, validateParams("bollinger", nil))
	assert.NoError(t, validateParams(TypeRSI, nil))
	assert.NoError(t, validateParams(TypeRSI, map[string]interface{}{"period": 14}))
	assert.Error(t, validateParams(TypeRSI, map[string]interface{}{"period": 1}))
	assert.Error(t, validateParams(TypeMACross, map[string]interface{}{"commission": -0.1}))
}
