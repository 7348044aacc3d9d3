package device

import "context"

// Endpoint is one enumerated serial port. VID and PID are uppercase hex
// and empty for non-USB ports.
type Endpoint struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// Enumerator lists the serial endpoints present on the host.
type Enumerator interface {
	List() ([]Endpoint, error)
}

// Prompter asks the operator for a device identifier. Empty input is an
// abort.
type Prompter interface {
	Prompt(ctx context.Context) (string, error)
}
