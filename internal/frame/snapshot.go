package frame

import "math"

// Snapshot is a point-in-time metric reading for one screen type.
type Snapshot interface {
	rows(g Glyphs) (string, string)
}

// SystemLoad feeds the default screen.
type SystemLoad struct {
	CPU              float64
	CoreTemperatures []float64
	MemoryUsed       uint64
	MemoryTotal      uint64
	SwapUsed         uint64
	SwapTotal        uint64
}

func (s SystemLoad) rows(g Glyphs) (string, string) {
	top := "CPU " + Whole(s.CPU) + "% " + Whole(Mean(s.CoreTemperatures)) + g.Degree
	bottom := "RAM " + Whole(Percent(s.MemoryUsed, s.MemoryTotal)) + "% Swp " +
		Whole(Percent(s.SwapUsed, s.SwapTotal)) + "%"

	return top, bottom
}

// ChargeState of the primary battery.
type ChargeState int

const (
	NoBattery ChargeState = iota
	Charging
	Discharging
)

// PowerAndNetwork feeds the power screen. Blink selects the low-battery
// warning variant of the top row. Hostname replaces the bottom row while
// no throughput baseline exists.
type PowerAndNetwork struct {
	State      ChargeState
	Charge     float64
	LowBattery bool
	Blink      bool
	User       string
	Hostname   string
	// Rates in bytes per second, NaN when no baseline exists yet
	RateIn  float64
	RateOut float64
}

func (s PowerAndNetwork) rows(g Glyphs) (string, string) {
	var top string
	switch s.State {
	case NoBattery:
		top = g.Mains + " Usr:" + sanitize(s.User)
	case Charging:
		top = g.Charging + " " + Whole(s.Charge) + "% Usr:" + sanitize(s.User)
	default:
		if s.LowBattery && s.Blink {
			top = g.Discharging + " RECHARGE NOW"
		} else {
			top = g.Discharging + " " + Whole(s.Charge) + "% Usr:" + sanitize(s.User)
		}
	}

	if s.Hostname != "" && math.IsNaN(s.RateIn) && math.IsNaN(s.RateOut) {
		return top, sanitize(s.Hostname)
	}
	bottom := "Dn " + Whole(kibibytes(s.RateIn)) + "K Up " + Whole(kibibytes(s.RateOut)) + "K"

	return top, bottom
}

func kibibytes(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}

	return v / 1024
}

// PlaybackState of the active media session.
type PlaybackState int

const (
	Stopped PlaybackState = iota
	Playing
	Paused
)

// NowPlaying feeds the media screen.
type NowPlaying struct {
	State  PlaybackState
	Artist string
	Title  string
}

func (s NowPlaying) rows(g Glyphs) (string, string) {
	glyph := g.Paused
	if s.State == Playing {
		glyph = g.Playing
	}

	return glyph + " " + sanitize(s.Title), sanitize(s.Artist)
}

// GpuLoad feeds the GPU screen.
type GpuLoad struct {
	Usage       float64
	Temperature float64
	MemoryUsed  uint64
	MemoryTotal uint64
	PowerWatts  float64
}

func (s GpuLoad) rows(g Glyphs) (string, string) {
	top := "GPU " + Whole(s.Usage) + "% " + Whole(s.Temperature) + g.Degree
	bottom := "VRAM " + Whole(Percent(s.MemoryUsed, s.MemoryTotal)) + "% " + Whole(s.PowerWatts) + "W"

	return top, bottom
}
