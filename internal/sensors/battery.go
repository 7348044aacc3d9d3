package sensors

import (
	"math"

	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/frame"
	"github.com/distatus/battery"
)

// BatteryStatus is the state and charge of the primary battery.
type BatteryStatus struct {
	State  frame.ChargeState
	Charge float64
}

// Batteries reads the primary battery via the platform power supply API.
type Batteries struct{}

func NewBatteries() *Batteries {
	return &Batteries{}
}

// Primary returns the first readable battery, or NoBattery when the host
// has none.
func (*Batteries) Primary() (BatteryStatus, error) {
	bats, err := battery.GetAll()
	for _, b := range bats {
		if b == nil {
			continue
		}

		return statusOf(b), nil
	}

	if err != nil {
		return BatteryStatus{}, errors.New().Wrap(ErrBatteryReadFailed, err)
	}

	return BatteryStatus{State: frame.NoBattery, Charge: math.NaN()}, nil
}

func statusOf(b *battery.Battery) BatteryStatus {
	// Only an actively charging battery gets the charging glyph
	state := frame.Discharging
	if b.State.Raw == battery.Charging {
		state = frame.Charging
	}

	charge := math.NaN()
	if b.Full > 0 {
		charge = b.Current / b.Full * 100
	}

	return BatteryStatus{State: state, Charge: charge}
}
