package gpu

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/sysboard/sysboard/internal/errors"
)

const smiQuery = "name,utilization.gpu,memory.used,memory.total,temperature.gpu,fan.speed,power.draw"

type smiBackend struct {
	path string
}

func newSMIBackend() (*smiBackend, error) {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return nil, errors.Wrap(ErrToolNotFound, err)
	}

	backend := &smiBackend{path: path}
	// One trial run so the probe rejects a tool that is present but has no
	// device to talk to.
	if _, err := backend.Sample(); err != nil {
		return nil, err
	}

	return backend, nil
}

func (*smiBackend) Name() string {
	return "nvidia-smi"
}

func (b *smiBackend) Sample() (Info, error) {
	out, err := exec.Command(b.path, "--query-gpu="+smiQuery, "--format=csv,noheader,nounits").Output()
	if err != nil {
		return Info{}, errors.Wrap(ErrQueryFailed, err)
	}

	return parseSMILine(firstLine(string(out)))
}

func (*smiBackend) Close() error {
	return nil
}

// parseSMILine parses one CSV row of the smi query. Unsupported gauges are
// reported as "[N/A]" by the tool and left at zero.
func parseSMILine(line string) (Info, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 7 {
		return Info{}, errors.WithData(ErrBadToolOutput, line)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	info := Info{
		Available: true,
		Backend:   "nvidia-smi",
		Name:      fields[0],
	}

	info.UtilizationPercent = smiFloat(fields[1])
	info.MemoryUsedMiB = uint64(smiFloat(fields[2]))
	info.MemoryTotalMiB = uint64(smiFloat(fields[3]))
	info.TemperatureC = smiFloat(fields[4])
	info.FanPercent = smiFloat(fields[5])
	info.PowerWatts = smiFloat(fields[6])

	return info, nil
}

func smiFloat(field string) float64 {
	if strings.Contains(field, "N/A") {
		return 0
	}
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0
	}

	return value
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}

	return s
}
