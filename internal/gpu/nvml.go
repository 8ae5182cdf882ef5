package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/sysboard/sysboard/internal/errors"
)

const (
	milliWattsToWatts = 1000
	bytesPerMiB       = 1024 * 1024
)

type nvmlBackend struct {
	device nvml.Device
	name   string
}

func newNVMLBackend() (*nvmlBackend, error) {
	if ret := nvml.Init(); !isNVMLSuccess(ret) {
		return nil, errors.Wrap(ErrInitFailed, newNVMLError(ret))
	}

	device, ret := nvml.DeviceGetHandleByIndex(0)
	if !isNVMLSuccess(ret) {
		_ = nvml.Shutdown()
		return nil, errors.Wrap(ErrDeviceNotFound, newNVMLError(ret))
	}

	backend := &nvmlBackend{device: device}
	if name, ret := device.GetName(); isNVMLSuccess(ret) {
		backend.name = name
	}

	return backend, nil
}

func (*nvmlBackend) Name() string {
	return "nvml"
}

// Sample reads each gauge independently; a gauge the device does not expose
// stays zero rather than failing the whole snapshot.
func (b *nvmlBackend) Sample() (Info, error) {
	info := Info{
		Available: true,
		Backend:   b.Name(),
		Name:      b.name,
	}

	if util, ret := b.device.GetUtilizationRates(); isNVMLSuccess(ret) {
		info.UtilizationPercent = float64(util.Gpu)
	}
	if memory, ret := b.device.GetMemoryInfo(); isNVMLSuccess(ret) {
		info.MemoryUsedMiB = memory.Used / bytesPerMiB
		info.MemoryTotalMiB = memory.Total / bytesPerMiB
	}
	if temp, ret := b.device.GetTemperature(nvml.TEMPERATURE_GPU); isNVMLSuccess(ret) {
		info.TemperatureC = float64(temp)
	}
	if fan, ret := b.device.GetFanSpeed(); isNVMLSuccess(ret) {
		info.FanPercent = float64(fan)
	}
	if power, ret := b.device.GetPowerUsage(); isNVMLSuccess(ret) {
		info.PowerWatts = float64(power) / milliWattsToWatts
	}

	return info, nil
}

func (*nvmlBackend) Close() error {
	if ret := nvml.Shutdown(); !isNVMLSuccess(ret) {
		return errors.Wrap(ErrShutdownFailed, newNVMLError(ret))
	}

	return nil
}
