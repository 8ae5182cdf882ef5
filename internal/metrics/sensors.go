package metrics

import (
	"time"

	pssensors "github.com/shirou/gopsutil/v4/sensors"

	"github.com/sysboard/sysboard/internal/logger"
)

// TemperatureSampler reads thermal sensors. Hosts without exposed sensors
// report an explicit unavailable state rather than an error.
type TemperatureSampler struct{}

func NewTemperatureSampler() *TemperatureSampler {
	return &TemperatureSampler{}
}

func (*TemperatureSampler) Category() Category {
	return CategoryTemperature
}

func (*TemperatureSampler) Sample() (Snapshot, error) {
	taken := time.Now()
	info := TemperatureInfo{}

	stats, err := pssensors.SensorsTemperatures()
	if err != nil {
		logger.Debug().Err(err).Msg("temperature sensors unavailable")
		return Snapshot{Category: CategoryTemperature, Taken: taken, Data: info}, nil
	}

	for _, stat := range stats {
		if stat.SensorKey == "" {
			continue
		}
		info.Sensors = append(info.Sensors, SensorInfo{
			Key:      stat.SensorKey,
			Current:  stat.Temperature,
			High:     stat.High,
			Critical: stat.Critical,
		})
	}

	info.Available = len(info.Sensors) > 0

	return Snapshot{Category: CategoryTemperature, Taken: taken, Data: info}, nil
}
