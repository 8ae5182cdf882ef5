package metrics

import (
	"time"

	psmem "github.com/shirou/gopsutil/v4/mem"

	"github.com/sysboard/sysboard/internal/logger"
)

type MemorySampler struct{}

func NewMemorySampler() *MemorySampler {
	return &MemorySampler{}
}

func (*MemorySampler) Category() Category {
	return CategoryMemory
}

func (*MemorySampler) Sample() (Snapshot, error) {
	info := MemoryInfo{}

	if vm, err := psmem.VirtualMemory(); err == nil {
		info.Total = vm.Total
		info.Available = vm.Available
		info.Used = vm.Used
		info.Percent = vm.UsedPercent
	} else {
		logger.Debug().Err(err).Msg("virtual memory unavailable")
	}

	if swap, err := psmem.SwapMemory(); err == nil {
		info.SwapTotal = swap.Total
		info.SwapUsed = swap.Used
		info.SwapPercent = swap.UsedPercent
	}

	return Snapshot{Category: CategoryMemory, Taken: time.Now(), Data: info}, nil
}
