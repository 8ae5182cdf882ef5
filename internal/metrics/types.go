package metrics

import "time"

// Category names one metric family. The wire names double as fragment
// identifiers on the dashboard page.
type Category string

const (
	CategoryCPU         Category = "cpu"
	CategoryMemory      Category = "memory"
	CategoryDisk        Category = "disk"
	CategoryNetwork     Category = "network"
	CategoryProcess     Category = "process"
	CategoryGPU         Category = "gpu"
	CategoryTemperature Category = "temperature"
)

// Categories is the fixed broadcast order. Updates within one tick are always
// emitted in this order.
var Categories = []Category{
	CategoryCPU,
	CategoryMemory,
	CategoryDisk,
	CategoryNetwork,
	CategoryProcess,
	CategoryGPU,
	CategoryTemperature,
}

// IsValid reports whether c names a known category.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}

	return false
}

// Snapshot is one point-in-time read of a category. The payload is one of the
// *Info structs below and is what gets serialized into the update fragment.
type Snapshot struct {
	Category Category
	Taken    time.Time
	Data     any
}

// Sampler reads one category from the OS. Sample must not fail for ordinary
// runtime conditions (missing sensor, vanished process); it omits the
// unavailable item and returns what it has.
type Sampler interface {
	Category() Category
	Sample() (Snapshot, error)
}

type CPUInfo struct {
	Percent        float64   `json:"percent"`
	PercentPerCore []float64 `json:"percent_per_core"`
	FrequencyMHz   float64   `json:"frequency_mhz"`
}

type MemoryInfo struct {
	Total       uint64  `json:"total"`
	Available   uint64  `json:"available"`
	Used        uint64  `json:"used"`
	Percent     float64 `json:"percent"`
	SwapTotal   uint64  `json:"swap_total"`
	SwapUsed    uint64  `json:"swap_used"`
	SwapPercent float64 `json:"swap_percent"`
}

type PartitionInfo struct {
	Device     string  `json:"device"`
	Mountpoint string  `json:"mountpoint"`
	Fstype     string  `json:"fstype"`
	Total      uint64  `json:"total"`
	Used       uint64  `json:"used"`
	Free       uint64  `json:"free"`
	Percent    float64 `json:"percent"`
}

type DiskInfo struct {
	Partitions []PartitionInfo `json:"partitions"`
}

type InterfaceInfo struct {
	Name         string  `json:"name"`
	SentRate     float64 `json:"sent_rate"`
	RecvRate     float64 `json:"recv_rate"`
	BytesSentAll uint64  `json:"bytes_sent_all"`
	BytesRecvAll uint64  `json:"bytes_recv_all"`
	PacketsSent  uint64  `json:"packets_sent"`
	PacketsRecv  uint64  `json:"packets_recv"`
}

type NetworkInfo struct {
	Interfaces []InterfaceInfo `json:"interfaces"`
	SentRate   float64         `json:"sent_rate"`
	RecvRate   float64         `json:"recv_rate"`
}

type ProcessEntry struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryMB      float64 `json:"memory_mb"`
	Username      string  `json:"username"`
	Status        string  `json:"status"`
}

type ProcessInfo struct {
	TopCPU       []ProcessEntry `json:"top_cpu"`
	TopMemory    []ProcessEntry `json:"top_memory"`
	Total        int            `json:"total"`
	StatusCounts map[string]int `json:"status_counts"`
}

type SensorInfo struct {
	Key      string  `json:"key"`
	Current  float64 `json:"current"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

type TemperatureInfo struct {
	Available bool         `json:"available"`
	Sensors   []SensorInfo `json:"sensors"`
}

// StaticInfo is host information that does not change while the daemon runs.
type StaticInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	KernelVersion   string `json:"kernel_version"`
	Architecture    string `json:"architecture"`
	PhysicalCores   int    `json:"physical_cores"`
	LogicalCores    int    `json:"logical_cores"`
	BootTime        uint64 `json:"boot_time"`
}
