package screen

import (
	"codeberg.org/mutker/serialstat/internal/config"
	"codeberg.org/mutker/serialstat/internal/gpu"
	"codeberg.org/mutker/serialstat/internal/sensors"
)

// Sources are the metric readers behind the screens. GPU and Media may
// be nil when the host has no such facility.
type Sources struct {
	Host       HostReader
	Network    NetworkReader
	Battery    BatteryReader
	Media      MediaReader
	GPU        gpu.Reader
	Throughput *sensors.Throughput
	Identity   sensors.Identity
}

// FromConfig builds the rotation in the configured order.
func FromConfig(cfg *config.Config, src Sources) []Screen {
	screens := make([]Screen, 0, len(cfg.Screens))
	for _, name := range cfg.Screens {
		s := Screen{Name: name, Dwell: cfg.DwellFor(name)}

		switch name {
		case config.ScreenSystem:
			s.Content = SystemLoad(src.Host)
		case config.ScreenPower:
			s.Content = PowerAndNetwork(src.Battery, src.Network, src.Throughput, src.Identity, cfg.LowBattery)
		case config.ScreenMedia:
			if src.Media == nil {
				continue
			}
			s.Available = src.Media.HasSession
			s.Content = NowPlaying(src.Media)
		case config.ScreenGPU:
			if src.GPU == nil {
				continue
			}
			s.Content = GpuLoad(src.GPU)
		default:
			continue
		}

		screens = append(screens, s)
	}

	return screens
}
