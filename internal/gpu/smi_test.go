package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSMILine(t *testing.T) {
	info, err := parseSMILine("NVIDIA GeForce RTX 3080, 37, 2048, 10240, 64, 55, 221.45")
	require.NoError(t, err)

	assert.True(t, info.Available)
	assert.Equal(t, "nvidia-smi", info.Backend)
	assert.Equal(t, "NVIDIA GeForce RTX 3080", info.Name)
	assert.InDelta(t, 37.0, info.UtilizationPercent, 0.001)
	assert.Equal(t, uint64(2048), info.MemoryUsedMiB)
	assert.Equal(t, uint64(10240), info.MemoryTotalMiB)
	assert.InDelta(t, 64.0, info.TemperatureC, 0.001)
	assert.InDelta(t, 55.0, info.FanPercent, 0.001)
	assert.InDelta(t, 221.45, info.PowerWatts, 0.001)
}

func TestParseSMILineNotSupported(t *testing.T) {
	// Passively cooled or older devices report [N/A] for some gauges.
	info, err := parseSMILine("Tesla T4, 12, 100, 15360, 43, [N/A], [N/A]")
	require.NoError(t, err)

	assert.Zero(t, info.FanPercent)
	assert.Zero(t, info.PowerWatts)
	assert.InDelta(t, 12.0, info.UtilizationPercent, 0.001)
}

func TestParseSMILineMalformed(t *testing.T) {
	_, err := parseSMILine("garbage output")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpu_bad_tool_output")
}

func TestUnavailableBackend(t *testing.T) {
	backend := unavailableBackend{}
	info, err := backend.Sample()
	require.NoError(t, err)
	assert.False(t, info.Available)
	assert.Equal(t, "none", backend.Name())
	assert.NoError(t, backend.Close())
}
