package gpu

import "github.com/NVIDIA/go-nvml/pkg/nvml"

// Reader provides point-in-time GPU readings
type Reader interface {
	Snapshot() (Snapshot, error)
	Name() string
}

// Snapshot is one reading of the primary GPU
type Snapshot struct {
	Usage       float64
	Temperature float64
	MemoryUsed  uint64
	MemoryTotal uint64
	PowerWatts  float64
}

// device is the subset of nvml.Device the reader needs
type device interface {
	GetName() (string, nvml.Return)
	GetUtilizationRates() (nvml.Utilization, nvml.Return)
	GetTemperature(sensor nvml.TemperatureSensors) (uint32, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
	GetPowerUsage() (uint32, nvml.Return)
}
