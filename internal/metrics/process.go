package metrics

import (
	"sort"
	"time"

	psproc "github.com/shirou/gopsutil/v4/process"

	"github.com/sysboard/sysboard/internal/logger"
)

const (
	maxNameLen     = 30
	maxUsernameLen = 15
	bytesPerMiB    = 1024 * 1024
)

// ProcessSampler enumerates the process table and keeps the top consumers.
// Processes that exit mid-scan or deny access are skipped.
type ProcessSampler struct {
	topN int
}

func NewProcessSampler(topN int) *ProcessSampler {
	return &ProcessSampler{topN: topN}
}

func (*ProcessSampler) Category() Category {
	return CategoryProcess
}

func (s *ProcessSampler) Sample() (Snapshot, error) {
	taken := time.Now()

	procs, err := psproc.Processes()
	if err != nil {
		logger.Debug().Err(err).Msg("process enumeration unavailable")
		return Snapshot{Category: CategoryProcess, Taken: taken, Data: ProcessInfo{}}, nil
	}

	entries := make([]ProcessEntry, 0, len(procs))
	for _, proc := range procs {
		entry, ok := readProcess(proc)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	return Snapshot{Category: CategoryProcess, Taken: taken, Data: RankProcesses(entries, s.topN)}, nil
}

func readProcess(proc *psproc.Process) (ProcessEntry, bool) {
	// Each field read races with process exit; any failure drops the entry.
	name, err := proc.Name()
	if err != nil {
		return ProcessEntry{}, false
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		return ProcessEntry{}, false
	}

	memPercent, err := proc.MemoryPercent()
	if err != nil {
		return ProcessEntry{}, false
	}

	entry := ProcessEntry{
		PID:           proc.Pid,
		Name:          truncate(name, maxNameLen),
		CPUPercent:    cpuPercent,
		MemoryPercent: float64(memPercent),
		Username:      "N/A",
		Status:        "unknown",
	}

	if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
		entry.MemoryMB = float64(memInfo.RSS) / bytesPerMiB
	}
	if username, err := proc.Username(); err == nil && username != "" {
		entry.Username = truncate(username, maxUsernameLen)
	}
	if statuses, err := proc.Status(); err == nil && len(statuses) > 0 {
		entry.Status = statuses[0]
	}

	return entry, true
}

// RankProcesses filters idle entries and builds the top-N lists plus the
// aggregate status counts.
func RankProcesses(entries []ProcessEntry, topN int) ProcessInfo {
	active := make([]ProcessEntry, 0, len(entries))
	statusCounts := make(map[string]int)

	for _, entry := range entries {
		if entry.CPUPercent <= 0 && entry.MemoryPercent <= 0 {
			continue
		}
		active = append(active, entry)
		statusCounts[entry.Status]++
	}

	byCPU := make([]ProcessEntry, len(active))
	copy(byCPU, active)
	sort.SliceStable(byCPU, func(i, j int) bool {
		return byCPU[i].CPUPercent > byCPU[j].CPUPercent
	})

	byMemory := make([]ProcessEntry, len(active))
	copy(byMemory, active)
	sort.SliceStable(byMemory, func(i, j int) bool {
		return byMemory[i].MemoryPercent > byMemory[j].MemoryPercent
	})

	if topN > 0 && len(byCPU) > topN {
		byCPU = byCPU[:topN]
	}
	if topN > 0 && len(byMemory) > topN {
		byMemory = byMemory[:topN]
	}

	return ProcessInfo{
		TopCPU:       byCPU,
		TopMemory:    byMemory,
		Total:        len(active),
		StatusCounts: statusCounts,
	}
}

// truncate caps s at n runes; byte slicing could cut a multibyte name
// mid-rune and leak invalid UTF-8 into the fragment JSON.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
