// Package sensors reads point-in-time host metrics for the display screens.
package sensors

import (
	"context"
	"os"
	"os/user"
	"regexp"

	"codeberg.org/mutker/serialstat/internal/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// CoreClassifier decides which temperature channels belong to CPU cores.
type CoreClassifier struct {
	re *regexp.Regexp
}

func NewCoreClassifier(pattern string) (*CoreClassifier, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.New().Wrap(ErrInvalidPattern, err)
	}

	return &CoreClassifier{re: re}, nil
}

// Matches reports whether the sensor key names a core channel.
func (c *CoreClassifier) Matches(key string) bool {
	return c.re.MatchString(key)
}

// Select returns the readings of core channels only.
func (c *CoreClassifier) Select(stats []host.TemperatureStat) []float64 {
	temps := make([]float64, 0, len(stats))
	for _, s := range stats {
		if c.Matches(s.SensorKey) {
			temps = append(temps, s.Temperature)
		}
	}

	return temps
}

// Host reads CPU, temperature, memory and network counters through gopsutil.
type Host struct {
	cores *CoreClassifier
}

func NewHost(cores *CoreClassifier) *Host {
	return &Host{cores: cores}
}

// CPUUsage returns overall CPU utilisation since the previous call.
func (h *Host) CPUUsage(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, errors.New().Wrap(ErrCPUReadFailed, err)
	}
	if len(percents) == 0 {
		return 0, errors.New().New(ErrCPUReadFailed)
	}

	return percents[0], nil
}

// CoreTemperatures returns the readings of every core channel. An empty
// result is not an error.
func (h *Host) CoreTemperatures(ctx context.Context) ([]float64, error) {
	stats, err := host.SensorsTemperaturesWithContext(ctx)
	// Partial results come back together with a warnings error
	if err != nil && len(stats) == 0 {
		return nil, errors.New().Wrap(ErrTemperatureReadFailed, err)
	}

	return h.cores.Select(stats), nil
}

// Memory returns used and total physical memory in bytes.
func (h *Host) Memory(ctx context.Context) (used, total uint64, err error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, errors.New().Wrap(ErrMemoryReadFailed, err)
	}

	return vm.Used, vm.Total, nil
}

// Swap returns used and total swap in bytes.
func (h *Host) Swap(ctx context.Context) (used, total uint64, err error) {
	sm, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, errors.New().Wrap(ErrSwapReadFailed, err)
	}

	return sm.Used, sm.Total, nil
}

// NetworkCounters returns cumulative received and sent bytes over all interfaces.
func (h *Host) NetworkCounters(ctx context.Context) (in, out uint64, err error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return 0, 0, errors.New().Wrap(ErrNetworkReadFailed, err)
	}
	if len(counters) == 0 {
		return 0, 0, errors.New().New(ErrNetworkReadFailed)
	}

	return counters[0].BytesRecv, counters[0].BytesSent, nil
}

// Identity is the operator shown on the power screen.
type Identity struct {
	User string
	Host string
}

// CurrentIdentity looks up the user and host names once at startup.
func CurrentIdentity() Identity {
	id := Identity{}
	if u, err := user.Current(); err == nil {
		id.User = u.Username
	}
	if info, err := host.Info(); err == nil {
		id.Host = info.Hostname
	} else if name, err := os.Hostname(); err == nil {
		id.Host = name
	}

	return id
}
