package metrics

import (
	"time"

	psdisk "github.com/shirou/gopsutil/v4/disk"

	"github.com/sysboard/sysboard/internal/logger"
)

type DiskSampler struct{}

func NewDiskSampler() *DiskSampler {
	return &DiskSampler{}
}

func (*DiskSampler) Category() Category {
	return CategoryDisk
}

func (*DiskSampler) Sample() (Snapshot, error) {
	info := DiskInfo{}

	partitions, err := psdisk.Partitions(false)
	if err != nil {
		logger.Debug().Err(err).Msg("disk partitions unavailable")
		return Snapshot{Category: CategoryDisk, Taken: time.Now(), Data: info}, nil
	}

	for _, partition := range partitions {
		usage, err := psdisk.Usage(partition.Mountpoint)
		if err != nil {
			// Mountpoint briefly inaccessible or permission denied: skip it.
			continue
		}
		info.Partitions = append(info.Partitions, PartitionInfo{
			Device:     partition.Device,
			Mountpoint: partition.Mountpoint,
			Fstype:     partition.Fstype,
			Total:      usage.Total,
			Used:       usage.Used,
			Free:       usage.Free,
			Percent:    usage.UsedPercent,
		})
	}

	return Snapshot{Category: CategoryDisk, Taken: time.Now(), Data: info}, nil
}
