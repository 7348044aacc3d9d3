package screen

import (
	"context"
	"math"

	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/frame"
	"codeberg.org/mutker/serialstat/internal/gpu"
	"codeberg.org/mutker/serialstat/internal/logger"
	"codeberg.org/mutker/serialstat/internal/sensors"
)

type HostReader interface {
	CPUUsage(ctx context.Context) (float64, error)
	CoreTemperatures(ctx context.Context) ([]float64, error)
	Memory(ctx context.Context) (used, total uint64, err error)
	Swap(ctx context.Context) (used, total uint64, err error)
}

type NetworkReader interface {
	NetworkCounters(ctx context.Context) (in, out uint64, err error)
}

type BatteryReader interface {
	Primary() (sensors.BatteryStatus, error)
}

type MediaReader interface {
	HasSession() bool
	ActiveMedia() (*sensors.Media, error)
}

// SystemLoad never fails: unreadable values render as placeholders so
// the default screen always has something to show.
func SystemLoad(host HostReader) Provider {
	return func(ctx context.Context, _ int) (frame.Snapshot, error) {
		snap := frame.SystemLoad{CPU: math.NaN()}

		if cpu, err := host.CPUUsage(ctx); err == nil {
			snap.CPU = cpu
		} else {
			logger.Debug().Err(err).Msg("CPU usage unavailable")
		}

		if temps, err := host.CoreTemperatures(ctx); err == nil {
			snap.CoreTemperatures = temps
		} else {
			logger.Debug().Err(err).Msg("Core temperatures unavailable")
		}

		if used, total, err := host.Memory(ctx); err == nil {
			snap.MemoryUsed, snap.MemoryTotal = used, total
		} else {
			logger.Debug().Err(err).Msg("Memory usage unavailable")
		}

		if used, total, err := host.Swap(ctx); err == nil {
			snap.SwapUsed, snap.SwapTotal = used, total
		} else {
			logger.Debug().Err(err).Msg("Swap usage unavailable")
		}

		return snap, nil
	}
}

// PowerAndNetwork shows battery state for the operator and the network
// throughput, or the hostname until a throughput baseline exists. Below lowBattery percent a discharging battery blinks a
// warning on even positions of the screen's dwell.
func PowerAndNetwork(bat BatteryReader, net NetworkReader, meter *sensors.Throughput, id sensors.Identity, lowBattery float64) Provider {
	return func(ctx context.Context, position int) (frame.Snapshot, error) {
		status, err := bat.Primary()
		if err != nil {
			return nil, errors.New().Wrap(errors.ErrSensorUnavailable, err)
		}

		snap := frame.PowerAndNetwork{
			State:      status.State,
			Charge:     status.Charge,
			LowBattery: status.State == frame.Discharging && status.Charge < lowBattery,
			Blink:      position%2 == 0,
			User:       id.User,
			Hostname:   id.Host,
			RateIn:     math.NaN(),
			RateOut:    math.NaN(),
		}

		in, out, err := net.NetworkCounters(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("Network counters unavailable")
			meter.Reset()
			return snap, nil
		}
		snap.RateIn, snap.RateOut = meter.Sample(in, out)

		return snap, nil
	}
}

func NowPlaying(media MediaReader) Provider {
	return func(_ context.Context, _ int) (frame.Snapshot, error) {
		m, err := media.ActiveMedia()
		if err != nil {
			return nil, errors.New().Wrap(errors.ErrSensorUnavailable, err)
		}
		if m == nil {
			return nil, errors.New().WithMessage(errors.ErrSensorUnavailable, "no active media session")
		}

		return frame.NowPlaying{State: m.State, Artist: m.Artist, Title: m.Title}, nil
	}
}

func GpuLoad(reader gpu.Reader) Provider {
	return func(_ context.Context, _ int) (frame.Snapshot, error) {
		snap, err := reader.Snapshot()
		if err != nil {
			return nil, errors.New().Wrap(errors.ErrSensorUnavailable, err)
		}

		return frame.GpuLoad{
			Usage:       snap.Usage,
			Temperature: snap.Temperature,
			MemoryUsed:  snap.MemoryUsed,
			MemoryTotal: snap.MemoryTotal,
			PowerWatts:  snap.PowerWatts,
		}, nil
	}
}
