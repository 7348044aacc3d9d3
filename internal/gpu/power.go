package gpu

import "math"

const milliWattsToWatts = 1000

// powerWatts converts an NVML power reading. Boards without power
// management report an error, which renders as a placeholder.
func (g *GPU) powerWatts() float64 {
	usage, ret := g.device.GetPowerUsage()
	if !IsNVMLSuccess(ret) {
		return math.NaN()
	}

	return float64(usage) / milliWattsToWatts
}
