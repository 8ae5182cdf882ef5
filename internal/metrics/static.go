package metrics

import (
	"sync"

	pscpu "github.com/shirou/gopsutil/v4/cpu"
	pshost "github.com/shirou/gopsutil/v4/host"

	"github.com/sysboard/sysboard/internal/logger"
)

// StaticProvider reads host facts once and serves the cached value after.
type StaticProvider struct {
	once sync.Once
	info StaticInfo
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

func (p *StaticProvider) Info() StaticInfo {
	p.once.Do(func() {
		p.info = readStaticInfo()
	})

	return p.info
}

func readStaticInfo() StaticInfo {
	info := StaticInfo{
		Hostname:     "unknown",
		OS:           "unknown",
		Architecture: "unknown",
	}

	if hostInfo, err := pshost.Info(); err == nil {
		info.Hostname = hostInfo.Hostname
		info.OS = hostInfo.OS
		info.Platform = hostInfo.Platform
		info.PlatformVersion = hostInfo.PlatformVersion
		info.KernelVersion = hostInfo.KernelVersion
		info.Architecture = hostInfo.KernelArch
		info.BootTime = hostInfo.BootTime
	} else {
		logger.Debug().Err(err).Msg("host info unavailable")
	}

	if physical, err := pscpu.Counts(false); err == nil {
		info.PhysicalCores = physical
	}
	if logical, err := pscpu.Counts(true); err == nil {
		info.LogicalCores = logical
	}

	return info
}
