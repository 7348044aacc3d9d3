package telemetry

import "codeberg.org/mutker/serialstat/internal/errors"

const (
	ErrListenFailed   = errors.ErrorCode("telemetry_listen_failed")
	ErrServerShutdown = errors.ErrShutdownFailed
)
