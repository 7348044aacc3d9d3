package gpu

import (
	"sync"

	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

type GPU struct {
	nvml   nvmlController
	device device
	name   string
	mu     sync.Mutex
}

// New initializes NVML and opens the first GPU. Hosts without an NVIDIA
// GPU or driver get an error; callers treat that as "no GPU screen".
func New() (*GPU, error) {
	return newWithController(&nvmlWrapper{})
}

func newWithController(ctrl nvmlController) (*GPU, error) {
	errFactory := errors.New()

	if err := ctrl.Initialize(); err != nil {
		return nil, err
	}

	count, err := ctrl.GetDeviceCount()
	if err != nil {
		_ = ctrl.Shutdown()
		return nil, err
	}
	if count == 0 {
		_ = ctrl.Shutdown()
		return nil, errFactory.New(ErrDeviceNotFound)
	}

	dev, err := ctrl.GetDevice(0)
	if err != nil {
		_ = ctrl.Shutdown()
		return nil, err
	}

	g := newWithDevice(dev)
	g.nvml = ctrl

	return g, nil
}

func newWithDevice(dev device) *GPU {
	g := &GPU{device: dev}
	if name, ret := dev.GetName(); IsNVMLSuccess(ret) {
		g.name = name
		logger.Info().Msgf("Detected GPU: %v", name)
	} else {
		logger.Warn().Msgf("Failed to get GPU name: %v", nvml.ErrorString(ret))
	}

	return g
}

func (g *GPU) Name() string {
	return g.name
}

// Snapshot reads utilisation, temperature, memory and power draw.
func (g *GPU) Snapshot() (Snapshot, error) {
	errFactory := errors.New()
	g.mu.Lock()
	defer g.mu.Unlock()

	util, ret := g.device.GetUtilizationRates()
	if !IsNVMLSuccess(ret) {
		return Snapshot{}, errFactory.Wrap(ErrUtilizationReadFailed, newNVMLError(ret))
	}

	temp, ret := g.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if !IsNVMLSuccess(ret) {
		return Snapshot{}, errFactory.Wrap(ErrTemperatureReadFailed, newNVMLError(ret))
	}

	memory, ret := g.device.GetMemoryInfo()
	if !IsNVMLSuccess(ret) {
		return Snapshot{}, errFactory.Wrap(ErrMemoryReadFailed, newNVMLError(ret))
	}

	return Snapshot{
		Usage:       float64(util.Gpu),
		Temperature: float64(temp),
		MemoryUsed:  memory.Used,
		MemoryTotal: memory.Total,
		PowerWatts:  g.powerWatts(),
	}, nil
}

func (g *GPU) Shutdown() error {
	if g.nvml == nil {
		return nil
	}

	return g.nvml.Shutdown()
}
