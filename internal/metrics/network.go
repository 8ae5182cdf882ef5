package metrics

import (
	"strings"
	"time"

	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/sysboard/sysboard/internal/logger"
)

type counterSample struct {
	bytesSent uint64
	bytesRecv uint64
	taken     time.Time
}

// NetworkSampler computes per-interface throughput from successive counter
// reads. It is the only stateful sampler: the previous counters per interface
// are retained between samples and touched by nothing else.
type NetworkSampler struct {
	previous map[string]counterSample
	now      func() time.Time
}

func NewNetworkSampler() *NetworkSampler {
	return &NetworkSampler{
		previous: make(map[string]counterSample),
		now:      time.Now,
	}
}

func (*NetworkSampler) Category() Category {
	return CategoryNetwork
}

func (s *NetworkSampler) Sample() (Snapshot, error) {
	taken := s.now()
	info := NetworkInfo{}

	counters, err := psnet.IOCounters(true)
	if err != nil {
		logger.Debug().Err(err).Msg("network counters unavailable")
		return Snapshot{Category: CategoryNetwork, Taken: taken, Data: info}, nil
	}

	for _, counter := range counters {
		if skipInterface(counter.Name, counter.BytesSent, counter.BytesRecv) {
			continue
		}

		current := counterSample{
			bytesSent: counter.BytesSent,
			bytesRecv: counter.BytesRecv,
			taken:     taken,
		}

		iface := InterfaceInfo{
			Name:         counter.Name,
			BytesSentAll: counter.BytesSent,
			BytesRecvAll: counter.BytesRecv,
			PacketsSent:  counter.PacketsSent,
			PacketsRecv:  counter.PacketsRecv,
		}

		if prev, ok := s.previous[counter.Name]; ok {
			elapsed := taken.Sub(prev.taken).Seconds()
			iface.SentRate = ComputeRate(prev.bytesSent, current.bytesSent, elapsed)
			iface.RecvRate = ComputeRate(prev.bytesRecv, current.bytesRecv, elapsed)
		}

		s.previous[counter.Name] = current

		info.SentRate += iface.SentRate
		info.RecvRate += iface.RecvRate
		info.Interfaces = append(info.Interfaces, iface)
	}

	return Snapshot{Category: CategoryNetwork, Taken: taken, Data: info}, nil
}

// ComputeRate turns two cumulative byte counters into bytes per second.
// A counter that went backwards (interface reset) yields 0, never a negative
// rate.
func ComputeRate(previous, current uint64, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	if current < previous {
		return 0
	}

	return float64(current-previous) / elapsedSeconds
}

func skipInterface(name string, sent, recv uint64) bool {
	if name == "lo" || strings.HasPrefix(name, "lo:") {
		return true
	}

	return sent == 0 && recv == 0
}
