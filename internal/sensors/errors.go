package sensors

import "codeberg.org/mutker/serialstat/internal/errors"

const (
	ErrCPUReadFailed         = errors.ErrorCode("sensors_cpu_read_failed")
	ErrTemperatureReadFailed = errors.ErrorCode("sensors_temperature_read_failed")
	ErrMemoryReadFailed      = errors.ErrorCode("sensors_memory_read_failed")
	ErrSwapReadFailed        = errors.ErrorCode("sensors_swap_read_failed")
	ErrNetworkReadFailed     = errors.ErrorCode("sensors_network_read_failed")
	ErrBatteryReadFailed     = errors.ErrorCode("sensors_battery_read_failed")
	ErrMediaReadFailed       = errors.ErrorCode("sensors_media_read_failed")
	ErrInvalidPattern        = errors.ErrorCode("sensors_invalid_core_pattern")
)
