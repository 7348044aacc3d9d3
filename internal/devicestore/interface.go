package devicestore

import (
	"context"
	"time"
)

// Store remembers which serial devices the bridge has connected to, so
// discovery can prefer a known display over an arbitrary adapter.
type Store interface {
	Remember(ctx context.Context, dev Device) error
	// Recent returns remembered devices, most recently connected first.
	Recent(ctx context.Context) ([]Device, error)
	Close() error
}

// Device is a serial port the bridge successfully opened.
type Device struct {
	Port         string
	SerialNumber string
	VID          string
	PID          string
	ConnectedAt  time.Time
}

// Matches reports whether a candidate port is the remembered device. A
// USB serial number identifies the adapter across port renames; without
// one the port name has to match.
func (d Device) Matches(port, serialNumber string) bool {
	if d.SerialNumber != "" && serialNumber != "" {
		return d.SerialNumber == serialNumber
	}

	return d.Port == port
}
